package datastore

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Notifier receives change notices from the values it owns. It is a
// non-owning handle: a Value never manages its Store's lifetime.
type Notifier interface {
	MarkChanged()
}

// Value is the typed, possibly empty content of a cell or matrix field.
//
// Value is a closed tagged variant keyed by Kind. Scalar kinds (NOMINAL,
// TEXT, INTEGER, FLOAT, PREDICATE, UNDEFINED) carry a nullable raw payload;
// MATRIX carries ordered field values and no payload of its own.
type Value struct {
	id       uuid.UUID
	parentID uuid.UUID
	name     string
	index    int
	arg      Argument
	kind     ArgType

	raw    *string  // scalar arm
	fields []*Value // matrix arm

	owner Notifier
}

// NewValue returns a detached, untyped value.
func NewValue() *Value {
	return &Value{id: uuid.New(), kind: ArgUndefined, arg: Argument{Type: ArgUndefined}}
}

// NewBoundValue returns an untyped value bound to the cell parentID.
func NewBoundValue(parentID uuid.UUID) *Value {
	v := NewValue()
	v.parentID = parentID
	v.index = -1
	return v
}

// NewOwnedValue returns a value shaped by arg that reports changes to owner.
// A MATRIX argument yields one empty field value per declared field.
func NewOwnedValue(parentID uuid.UUID, arg Argument, owner Notifier) *Value {
	v := NewBoundValue(parentID)
	v.bind(arg, owner)
	return v
}

// NewFieldValue returns a fully addressed value, used for matrix fields.
func NewFieldValue(parentID uuid.UUID, name string, index int, arg Argument, owner Notifier) *Value {
	v := NewBoundValue(parentID)
	v.name = name
	v.index = index
	v.bind(arg, owner)
	return v
}

func (v *Value) bind(arg Argument, owner Notifier) {
	v.arg = arg.Clone()
	v.kind = arg.Type
	if v.kind == "" {
		v.kind = ArgUndefined
	}
	v.owner = owner
	if v.kind == ArgMatrix {
		v.fields = make([]*Value, len(arg.Fields))
		for i, f := range arg.Fields {
			v.fields[i] = NewFieldValue(v.parentID, f.Name, i, f, owner)
		}
	}
}

// ID is the value's own identity.
func (v *Value) ID() uuid.UUID { return v.id }

// ParentID identifies the owning cell.
func (v *Value) ParentID() uuid.UUID { return v.parentID }

// Name is the name of the argument the value was bound to.
func (v *Value) Name() string { return v.name }

// Index is the value's position among its sibling matrix fields.
func (v *Value) Index() int { return v.index }

// SetIndex repositions the value for Compare and SortFields. It does not
// move the value within its matrix.
func (v *Value) SetIndex(i int) { v.index = i }

// Kind is the argument type of the value's slot.
func (v *Value) Kind() ArgType { return v.kind }

// Argument returns the schema node the value was bound to.
func (v *Value) Argument() Argument { return v.arg }

// Raw returns the payload and whether it is non-null. Matrix values have none.
func (v *Value) Raw() (string, bool) {
	if v.raw == nil {
		return "", false
	}
	return *v.raw, true
}

// Fields returns the ordered field values of a matrix value.
func (v *Value) Fields() []*Value {
	return v.fields
}

// Field returns matrix field i.
func (v *Value) Field(i int) (*Value, error) {
	if i < 0 || i >= len(v.fields) {
		return nil, indexErrorf("field %d of %d", i, len(v.fields))
	}
	return v.fields[i], nil
}

// IsEmpty reports whether the payload is null or zero length. A matrix is
// empty when every field is.
func (v *Value) IsEmpty() bool {
	switch v.kind {
	case ArgMatrix:
		for _, f := range v.fields {
			if !f.IsEmpty() {
				return false
			}
		}
		return true
	default:
		return v.raw == nil || *v.raw == ""
	}
}

// String renders the value for display. Empty scalars render as the
// argument placeholder, "<name>".
func (v *Value) String() string {
	switch v.kind {
	case ArgMatrix:
		parts := make([]string, len(v.fields))
		for i, f := range v.fields {
			parts[i] = f.String()
		}
		return "(" + strings.Join(parts, ",") + ")"
	default:
		if v.IsEmpty() {
			return v.arg.Placeholder()
		}
		return *v.raw
	}
}

// Set replaces the payload and notifies the owner. Setting the current
// rendered form or the current raw payload is a no-op, and so is a payload
// an INTEGER or FLOAT slot cannot hold. Use Store.SetCellValue to get the
// rejection as an error.
//
// For a matrix, newValue is a literal such as "(3,4)" applied field by field;
// a literal that does not parse or has the wrong arity is ignored.
func (v *Value) Set(newValue string) {
	switch v.kind {
	case ArgMatrix:
		if newValue == v.String() {
			return
		}
		parts, err := splitMatrix(newValue)
		if err != nil || len(parts) != len(v.fields) {
			return
		}
		for i, p := range parts {
			v.fields[i].Set(p)
		}
	default:
		if newValue == v.String() || (v.raw != nil && newValue == *v.raw) {
			return
		}
		if conformsPayload(v.kind, newValue) != nil {
			return
		}
		v.raw = &newValue
		v.notify()
	}
}

// Clear nulls the payload unconditionally.
func (v *Value) Clear() {
	switch v.kind {
	case ArgMatrix:
		for _, f := range v.fields {
			f.Clear()
		}
	default:
		wasSet := v.raw != nil
		v.raw = nil
		if wasSet {
			v.notify()
		}
	}
}

// Serialize renders the value for the text format: empty payloads become an
// empty field, never the placeholder.
func (v *Value) Serialize() string {
	switch v.kind {
	case ArgMatrix:
		parts := make([]string, len(v.fields))
		for i, f := range v.fields {
			parts[i] = f.Serialize()
		}
		return "(" + strings.Join(parts, ",") + ")"
	default:
		if v.IsEmpty() {
			return ""
		}
		return Escape(*v.raw)
	}
}

// Compare orders values by index only.
func (v *Value) Compare(other *Value) int {
	return cmp.Compare(v.index, other.index)
}

// SortFields orders values by index, keeping declared field order regardless
// of creation order.
func SortFields(values []*Value) {
	slices.SortStableFunc(values, (*Value).Compare)
}

// conforms reports whether a non-empty scalar payload parses as its kind.
func (v *Value) conforms() error {
	if v.kind == ArgMatrix || v.IsEmpty() {
		return nil
	}
	return conformsPayload(v.kind, *v.raw)
}

func conformsPayload(kind ArgType, payload string) error {
	if payload == "" {
		return nil
	}
	switch kind {
	case ArgInteger:
		if _, err := strconv.ParseInt(payload, 10, 64); err != nil {
			return schemaErrorf("%q is not an INTEGER", payload)
		}
	case ArgFloat:
		if _, err := strconv.ParseFloat(payload, 64); err != nil {
			return schemaErrorf("%q is not a FLOAT", payload)
		}
	case ArgNominal, ArgText, ArgPredicate, ArgUndefined, ArgMatrix:
	}
	return nil
}

func (v *Value) notify() {
	if v.owner != nil {
		v.owner.MarkChanged()
	}
}
