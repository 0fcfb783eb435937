package datastore

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrSchema indicates a value or schema does not match its column's declared arguments.
	ErrSchema = errors.New("schema mismatch")

	// ErrDuplicateName indicates a column name is already in use.
	ErrDuplicateName = errors.New("duplicate column name")

	// ErrIndex indicates a cell ordinal or field index out of bounds.
	ErrIndex = errors.New("index out of range")

	// ErrIO indicates a failure reading or writing the backing file.
	ErrIO = errors.New("i/o failure")

	// ErrParse indicates a malformed header or body line.
	ErrParse = errors.New("malformed annotation data")

	// ErrDigestUnavailable indicates the naming hash is not linked into the binary.
	ErrDigestUnavailable = errors.New("digest algorithm unavailable")

	// ErrNotFound indicates an unknown column id or name.
	ErrNotFound = errors.New("not found")
)

// Error is a datastore failure of a given Kind.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

// Error renders "kind: msg: cause", omitting empty parts.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func schemaErrorf(format string, args ...any) error {
	return &Error{Kind: ErrSchema, Msg: fmt.Sprintf(format, args...)}
}

func indexErrorf(format string, args ...any) error {
	return &Error{Kind: ErrIndex, Msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

// IOError wraps an underlying read or write failure.
func IOError(op string, err error) error {
	return &Error{Kind: ErrIO, Msg: op, Err: err}
}

// ParseError reports the offending line of a failed load.
type ParseError struct {
	Line int    // 1-based physical line where the record starts
	Text string // the offending record
	Msg  string
	Err  error
}

// Error includes the line number and the offending record.
func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s at line %d: %s", ErrParse, e.Line, e.Msg)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s (%q)", msg, e.Text)
}

// Unwrap exposes ErrParse and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// IsSchemaError reports whether err is a SchemaError.
func IsSchemaError(err error) bool { return errors.Is(err, ErrSchema) }

// IsDuplicateNameError reports whether err is a DuplicateNameError.
func IsDuplicateNameError(err error) bool { return errors.Is(err, ErrDuplicateName) }

// IsIndexError reports whether err is an IndexError.
func IsIndexError(err error) bool { return errors.Is(err, ErrIndex) }

// IsParseError reports whether err is a ParseError.
func IsParseError(err error) bool { return errors.Is(err, ErrParse) }

// IsNotFound reports whether err names an unknown column.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
