package datastore

import (
	"sync"

	"github.com/google/uuid"
)

// EventType identifies a store notification.
type EventType string

const (
	EventColumnAdded   EventType = "column_added"
	EventColumnRemoved EventType = "column_removed"
	EventCellAdded     EventType = "cell_added"
	EventCellRemoved   EventType = "cell_removed"

	// EventChanged fires when the store goes from unchanged to changed.
	EventChanged EventType = "changed"

	// EventUnchanged fires when a save resets the changed flag.
	EventUnchanged EventType = "unchanged"
)

// Event describes a store mutation. ColumnID and CellID are uuid.Nil when
// not applicable.
type Event struct {
	Type     EventType
	ColumnID uuid.UUID
	CellID   uuid.UUID
}

// Listener is called synchronously on the goroutine that mutated the store.
type Listener func(Event)

// listeners is an observer list. Add, remove and fire are mutually
// exclusive; fire iterates a snapshot so callbacks may unsubscribe.
type listeners struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]Listener
	order  []int
}

func (l *listeners) add(fn Listener) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.byID == nil {
		l.byID = make(map[int]Listener)
	}
	id := l.nextID
	l.nextID++
	l.byID[id] = fn
	l.order = append(l.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { l.remove(id) })
	}
}

func (l *listeners) remove(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.byID, id)
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i:i], l.order[i+1:]...)
			break
		}
	}
}

func (l *listeners) fire(e Event) {
	l.mu.Lock()
	snapshot := make([]Listener, 0, len(l.order))
	for _, id := range l.order {
		snapshot = append(snapshot, l.byID[id])
	}
	l.mu.Unlock()

	for _, fn := range snapshot {
		fn(e)
	}
}
