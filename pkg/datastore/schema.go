package datastore

import "github.com/google/uuid"

// Schema registry helpers. A column schema is either a single scalar
// Argument or a MATRIX Argument whose ordered Fields are the value slots.

// NumFields returns the number of value slots a schema declares.
func NumFields(schema Argument) int {
	if schema.IsMatrix() {
		return len(schema.Fields)
	}
	return 1
}

// FieldAt returns value slot i of a schema. Slot 0 of a scalar schema is the
// schema itself.
func FieldAt(schema Argument, i int) (Argument, error) {
	n := NumFields(schema)
	if i < 0 || i >= n {
		return Argument{}, schemaErrorf("field index %d out of range [0, %d)", i, n)
	}
	if schema.IsMatrix() {
		return schema.Fields[i], nil
	}
	return schema, nil
}

// Validate checks candidate slot values against a schema: arity, per-slot
// kind, and payload conformance (INTEGER and FLOAT payloads must parse).
// It must pass before a cell's value is committed.
func Validate(schema Argument, candidates []*Value) error {
	n := NumFields(schema)
	if len(candidates) != n {
		return schemaErrorf("expected %d value(s), got %d", n, len(candidates))
	}

	for i, c := range candidates {
		want, err := FieldAt(schema, i)
		if err != nil {
			return err
		}
		if c == nil {
			return schemaErrorf("value %d is nil", i)
		}
		if c.Kind() != want.Type {
			return schemaErrorf("value %d: expected %s, got %s", i, want.Type, c.Kind())
		}
		if err := c.conforms(); err != nil {
			return err
		}
	}

	return nil
}

// candidates builds detached slot values for a schema from raw payloads.
// An empty payload stays null.
func candidates(schema Argument, payloads []string) []*Value {
	out := make([]*Value, len(payloads))
	for i, p := range payloads {
		slot := Argument{Type: ArgUndefined}
		if f, err := FieldAt(schema, i); err == nil {
			slot = f
		}
		v := NewFieldValue(uuid.Nil, slot.Name, i, slot, nil)
		if p != "" {
			// Set drops nonconforming payloads; Validate must see them
			payload := p
			v.raw = &payload
		}
		out[i] = v
	}
	return out
}
