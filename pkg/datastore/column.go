package datastore

import "github.com/google/uuid"

// Column is a named, schema-typed, ordered sequence of cells. Its schema is
// fixed for the lifetime of the column.
type Column struct {
	id     uuid.UUID
	name   string
	schema Argument
	cells  []*Cell
}

// ID is the column's identity, fixed at creation.
func (c *Column) ID() uuid.UUID { return c.id }

// Name is the column name, unique within its store.
func (c *Column) Name() string { return c.name }

// Schema returns a copy of the column's argument tree.
func (c *Column) Schema() Argument { return c.schema.Clone() }

// Type is the column's declared argument type.
func (c *Column) Type() ArgType { return c.schema.Type }

// NumCells is the number of cells; valid ordinals are 1..NumCells.
func (c *Column) NumCells() int { return len(c.cells) }

// Cells returns the cells in stored order. The slice must not be modified.
func (c *Column) Cells() []*Cell { return c.cells }

// cell returns the cell at a 1-based ordinal.
func (c *Column) cell(ordinal int) (*Cell, error) {
	if ordinal < 1 || ordinal > len(c.cells) {
		return nil, indexErrorf("cell %d of column %q (has %d)", ordinal, c.name, len(c.cells))
	}
	return c.cells[ordinal-1], nil
}

// Cell is a time-bounded container for exactly one schema-conformant value.
type Cell struct {
	id       uuid.UUID
	columnID uuid.UUID
	onset    Timestamp
	offset   Timestamp
	value    *Value
	owner    Notifier
}

// ID is the cell's identity, fixed at creation.
func (c *Cell) ID() uuid.UUID { return c.id }

// ColumnID identifies the column that owns the cell.
func (c *Cell) ColumnID() uuid.UUID { return c.columnID }

// Onset is the cell start.
func (c *Cell) Onset() Timestamp { return c.onset }

// Offset is the cell end.
func (c *Cell) Offset() Timestamp { return c.offset }

// Value is the cell's content. Edits through it reach the owning store;
// Value.Set drops payloads the schema cannot hold.
func (c *Cell) Value() *Value { return c.value }

// SetOnset moves the cell start. Onset is not forced to precede offset.
func (c *Cell) SetOnset(t Timestamp) {
	if t == c.onset {
		return
	}
	c.onset = t
	c.notify()
}

// SetOffset moves the cell end.
func (c *Cell) SetOffset(t Timestamp) {
	if t == c.offset {
		return
	}
	c.offset = t
	c.notify()
}

func (c *Cell) notify() {
	if c.owner != nil {
		c.owner.MarkChanged()
	}
}
