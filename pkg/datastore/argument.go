package datastore

import (
	"fmt"
	"strings"
)

// ArgType is the declared type of an argument slot.
type ArgType string

const (
	// ArgNominal is a short categorical code.
	ArgNominal ArgType = "NOMINAL"

	// ArgText is free text.
	ArgText ArgType = "TEXT"

	// ArgInteger is a base-10 signed integer.
	ArgInteger ArgType = "INTEGER"

	// ArgFloat is a floating point number.
	ArgFloat ArgType = "FLOAT"

	// ArgPredicate is a predicate expression such as "touch(hand,cup)".
	ArgPredicate ArgType = "PREDICATE"

	// ArgMatrix is an ordered set of named, independently typed fields.
	ArgMatrix ArgType = "MATRIX"

	// ArgUndefined is an untyped slot that accepts any text.
	ArgUndefined ArgType = "UNDEFINED"
)

// Validate checks if the ArgType is a valid enum value.
func (t ArgType) Validate() error {
	switch t {
	case ArgNominal, ArgText, ArgInteger, ArgFloat, ArgPredicate, ArgMatrix, ArgUndefined:
		return nil
	default:
		return fmt.Errorf("unknown argument type: %q", string(t))
	}
}

// ParseArgType parses a type name as written in a header line.
func ParseArgType(s string) (ArgType, error) {
	t := ArgType(s)
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// reservedChars may not appear in column or field names because the header
// line uses them as delimiters.
const reservedChars = ",|()<>\"\r\n"

// Argument is a schema node: the name and type of a value slot, with ordered
// child fields for MATRIX types.
type Argument struct {
	Name   string
	Type   ArgType
	Fields []Argument
}

// Scalar returns a single-slot schema of type t.
func Scalar(t ArgType) Argument {
	return Argument{Type: t}
}

// Matrix returns a MATRIX schema with the given ordered fields.
func Matrix(fields ...Argument) Argument {
	return Argument{Type: ArgMatrix, Fields: fields}
}

// Field returns a named matrix field of type t.
func Field(name string, t ArgType) Argument {
	return Argument{Name: StripDelimiters(name), Type: t}
}

// StripDelimiters removes the enclosing "<" and ">" of a formal argument name.
func StripDelimiters(name string) string {
	if len(name) >= 2 && name[0] == '<' && name[len(name)-1] == '>' {
		return name[1 : len(name)-1]
	}
	return name
}

// Placeholder is the rendering of an empty value in this slot.
func (a Argument) Placeholder() string {
	return "<" + a.Name + ">"
}

// IsMatrix reports whether the argument has ordered child fields.
func (a Argument) IsMatrix() bool {
	return a.Type == ArgMatrix
}

// Clone returns a deep copy so stored schemas cannot be mutated by callers.
func (a Argument) Clone() Argument {
	c := Argument{Name: a.Name, Type: a.Type}
	if len(a.Fields) > 0 {
		c.Fields = make([]Argument, len(a.Fields))
		for i, f := range a.Fields {
			c.Fields[i] = f.Clone()
		}
	}
	return c
}

// Equal reports whether two schemas have the same names, types and fields.
func (a Argument) Equal(b Argument) bool {
	if a.Name != b.Name || a.Type != b.Type || len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if !a.Fields[i].Equal(b.Fields[i]) {
			return false
		}
	}
	return true
}

// Validate checks the shape of a column schema.
func (a Argument) Validate() error {
	if err := a.Type.Validate(); err != nil {
		return schemaErrorf("%v", err)
	}

	if !a.IsMatrix() {
		if len(a.Fields) > 0 {
			return schemaErrorf("%s argument cannot declare fields", a.Type)
		}
		return nil
	}

	if len(a.Fields) == 0 {
		return schemaErrorf("matrix argument must declare at least one field")
	}

	seen := make(map[string]bool, len(a.Fields))
	for i, f := range a.Fields {
		if err := validateName(f.Name); err != nil {
			return schemaErrorf("field %d: %v", i, err)
		}
		if err := f.Type.Validate(); err != nil {
			return schemaErrorf("field %q: %v", f.Name, err)
		}
		if f.IsMatrix() {
			return schemaErrorf("field %q: nested matrix fields are not supported", f.Name)
		}
		if len(f.Fields) > 0 {
			return schemaErrorf("field %q: scalar fields cannot declare fields", f.Name)
		}
		if seen[f.Name] {
			return schemaErrorf("duplicate field name %q", f.Name)
		}
		seen[f.Name] = true
	}

	return nil
}

// String renders the argument as it appears in a header line.
func (a Argument) String() string {
	var b strings.Builder
	b.WriteString(string(a.Type))
	if a.IsMatrix() {
		b.WriteString("-")
		for i, f := range a.Fields {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(StripDelimiters(f.Name))
			b.WriteString("|")
			b.WriteString(string(f.Type))
		}
	}
	return b.String()
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.ContainsAny(name, reservedChars) {
		return fmt.Errorf("name %q contains a reserved character (one of , | ( ) < > \" or a line break)", name)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("name %q has leading or trailing whitespace", name)
	}
	return nil
}
