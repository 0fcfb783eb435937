package datastore

import (
	"fmt"

	"github.com/google/uuid"
)

// Store owns the ordered columns of an annotation session and tracks whether
// they changed since the last save. It is the sole arbiter of column name
// uniqueness.
//
// A Store is not safe for concurrent mutation; only Subscribe may be called
// from other goroutines.
type Store struct {
	columns map[uuid.UUID]*Column
	names   map[string]uuid.UUID
	order   []uuid.UUID
	changed bool

	listeners listeners
}

// New returns an empty, unchanged store.
func New() *Store {
	return &Store{
		columns: make(map[uuid.UUID]*Column),
		names:   make(map[string]uuid.UUID),
	}
}

// AddColumn creates a column. The schema is copied and its top-level name
// becomes the column name. Names are matched case-sensitively.
func (s *Store) AddColumn(name string, schema Argument) (uuid.UUID, error) {
	if err := validateName(name); err != nil {
		return uuid.Nil, schemaErrorf("column: %v", err)
	}
	if _, exists := s.names[name]; exists {
		return uuid.Nil, &Error{Kind: ErrDuplicateName, Msg: fmt.Sprintf("column %q already exists", name)}
	}
	if err := schema.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("column %q: %w", name, err)
	}

	stored := schema.Clone()
	stored.Name = name

	col := &Column{
		id:     uuid.New(),
		name:   name,
		schema: stored,
	}
	s.columns[col.id] = col
	s.names[name] = col.id
	s.order = append(s.order, col.id)

	s.listeners.fire(Event{Type: EventColumnAdded, ColumnID: col.id})
	s.MarkChanged()
	return col.id, nil
}

// RemoveColumn deletes a column and all its cells.
func (s *Store) RemoveColumn(id uuid.UUID) error {
	col, err := s.Column(id)
	if err != nil {
		return err
	}

	delete(s.columns, id)
	delete(s.names, col.name)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}

	s.listeners.fire(Event{Type: EventColumnRemoved, ColumnID: id})
	s.MarkChanged()
	return nil
}

// Column returns the column with the given id.
func (s *Store) Column(id uuid.UUID) (*Column, error) {
	col, ok := s.columns[id]
	if !ok {
		return nil, notFoundf("column %s", id)
	}
	return col, nil
}

// ColumnByName returns the column with the given exact name.
func (s *Store) ColumnByName(name string) (*Column, error) {
	id, ok := s.names[name]
	if !ok {
		return nil, notFoundf("column %q", name)
	}
	return s.columns[id], nil
}

// ColumnOrder returns column ids in insertion order, the order used for
// serialization.
func (s *Store) ColumnOrder() []uuid.UUID {
	out := make([]uuid.UUID, len(s.order))
	copy(out, s.order)
	return out
}

// Columns returns the columns in insertion order.
func (s *Store) Columns() []*Column {
	out := make([]*Column, len(s.order))
	for i, id := range s.order {
		out[i] = s.columns[id]
	}
	return out
}

// AddCell appends an empty cell to a column. Cells keep the order they were
// added in; they are not sorted by time.
func (s *Store) AddCell(columnID uuid.UUID, onset, offset Timestamp) (uuid.UUID, error) {
	col, err := s.Column(columnID)
	if err != nil {
		return uuid.Nil, err
	}

	cell := &Cell{
		id:       uuid.New(),
		columnID: columnID,
		onset:    onset,
		offset:   offset,
		owner:    s,
	}
	cell.value = NewOwnedValue(cell.id, col.schema, s)
	col.cells = append(col.cells, cell)

	s.listeners.fire(Event{Type: EventCellAdded, ColumnID: columnID, CellID: cell.id})
	s.MarkChanged()
	return cell.id, nil
}

// Cell returns the cell at a 1-based ordinal within a column.
func (s *Store) Cell(columnID uuid.UUID, ordinal int) (*Cell, error) {
	col, err := s.Column(columnID)
	if err != nil {
		return nil, err
	}
	return col.cell(ordinal)
}

// RemoveCell deletes the cell at a 1-based ordinal.
func (s *Store) RemoveCell(columnID uuid.UUID, ordinal int) error {
	col, err := s.Column(columnID)
	if err != nil {
		return err
	}
	cell, err := col.cell(ordinal)
	if err != nil {
		return err
	}

	i := ordinal - 1
	col.cells = append(col.cells[:i:i], col.cells[i+1:]...)

	s.listeners.fire(Event{Type: EventCellRemoved, ColumnID: columnID, CellID: cell.id})
	s.MarkChanged()
	return nil
}

// SetCellValue validates one payload per schema slot and commits them to the
// cell at ordinal. An empty payload clears its slot. A rejected edit leaves
// the store untouched; re-applying current payloads does not mark it changed.
func (s *Store) SetCellValue(columnID uuid.UUID, ordinal int, payloads ...string) error {
	col, err := s.Column(columnID)
	if err != nil {
		return err
	}
	cell, err := col.cell(ordinal)
	if err != nil {
		return err
	}

	if err := Validate(col.schema, candidates(col.schema, payloads)); err != nil {
		return fmt.Errorf("column %q cell %d: %w", col.name, ordinal, err)
	}

	slots := []*Value{cell.value}
	if col.schema.IsMatrix() {
		slots = cell.value.Fields()
	}
	for i, p := range payloads {
		if p == "" {
			if !slots[i].IsEmpty() {
				slots[i].Clear()
			}
			continue
		}
		slots[i].Set(p)
	}
	return nil
}

// MarkChanged flags unsaved edits. Every value, cell and column mutation
// routes here.
func (s *Store) MarkChanged() {
	if s.changed {
		return
	}
	s.changed = true
	s.listeners.fire(Event{Type: EventChanged})
}

// MarkUnchanged clears the flag after a successful save. It is idempotent.
func (s *Store) MarkUnchanged() {
	if !s.changed {
		return
	}
	s.changed = false
	s.listeners.fire(Event{Type: EventUnchanged})
}

// IsChanged reports whether the store has unsaved edits.
func (s *Store) IsChanged() bool {
	return s.changed
}

// Subscribe registers a listener and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	return s.listeners.add(fn)
}
