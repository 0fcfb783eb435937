package datastore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Text format
//
// One block per column, in store order:
//
//	<name> (<TYPE>)[-<field>|<TYPE>,<field>|<TYPE>,...]
//	<onset>,<offset>,<value>
//	...
//
// Names cannot contain commas, so a record whose first two comma separated
// tokens are timestamps is always a body line.

var headerPattern = regexp.MustCompile(`^([^,()"]+) \(([A-Z]+)\)(?:-(.*))?$`)

// Save writes every column of s in store order. Any write failure aborts the
// save; no partial-file cleanup is attempted.
func Save(w io.Writer, s *Store) error {
	bw := bufio.NewWriter(w)

	for _, col := range s.Columns() {
		if _, err := io.WriteString(bw, HeaderLine(col)+"\n"); err != nil {
			return IOError("write header", err)
		}
		for _, cell := range col.cells {
			if _, err := io.WriteString(bw, BodyLine(cell)+"\n"); err != nil {
				return IOError("write cell", err)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return IOError("flush", err)
	}
	return nil
}

// HeaderLine renders a column's schema header.
func HeaderLine(col *Column) string {
	var b strings.Builder
	b.WriteString(col.name)
	b.WriteString(" (")
	b.WriteString(string(col.schema.Type))
	b.WriteString(")")
	if col.schema.IsMatrix() {
		b.WriteString("-")
		for i, f := range col.schema.Fields {
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

// BodyLine renders a cell as onset,offset,value. Scalar values are written as
// their escaped payload without the placeholder brackets; matrix values keep
// their parenthesised form.
func BodyLine(cell *Cell) string {
	return cell.onset.String() + "," + cell.offset.String() + "," + cell.value.Serialize()
}

// Load parses the text format into a new, unchanged store. Any malformed
// record aborts the whole load with a *ParseError naming the line.
func Load(r io.Reader) (*Store, error) {
	s := New()
	rr := &recordReader{r: bufio.NewReader(r)}
	var cur *Column

	for {
		rec, line, err := rr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				return nil, err
			}
			return nil, IOError("read", err)
		}
		if strings.TrimSpace(rec) == "" {
			continue
		}

		if isBodyRecord(rec) {
			if cur == nil {
				return nil, &ParseError{Line: line, Text: rec, Msg: "cell before any column header"}
			}
			if err := loadCell(s, cur, rec); err != nil {
				return nil, &ParseError{Line: line, Text: rec, Msg: "invalid cell", Err: err}
			}
			continue
		}

		col, err := loadHeader(s, rec)
		if err != nil {
			return nil, &ParseError{Line: line, Text: rec, Msg: "invalid column header", Err: err}
		}
		cur = col
	}

	s.changed = false
	return s, nil
}

func isBodyRecord(rec string) bool {
	parts := strings.SplitN(rec, ",", 3)
	if len(parts) < 3 {
		return false
	}
	if _, err := ParseTimestamp(parts[0]); err != nil {
		return false
	}
	_, err := ParseTimestamp(parts[1])
	return err == nil
}

func loadHeader(s *Store, rec string) (*Column, error) {
	m := headerPattern.FindStringSubmatch(rec)
	if m == nil {
		return nil, fmt.Errorf("expected \"name (TYPE)\"")
	}
	name, typeName, fieldSpec := m[1], m[2], m[3]

	t, err := ParseArgType(typeName)
	if err != nil {
		return nil, err
	}

	schema := Scalar(t)
	if t == ArgMatrix {
		if fieldSpec == "" {
			return nil, fmt.Errorf("matrix column %q declares no fields", name)
		}
		for _, spec := range strings.Split(fieldSpec, ",") {
			fname, ftype, ok := strings.Cut(spec, "|")
			if !ok {
				return nil, fmt.Errorf("field %q: expected name|TYPE", spec)
			}
			ft, err := ParseArgType(ftype)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", fname, err)
			}
			schema.Fields = append(schema.Fields, Field(fname, ft))
		}
	} else if fieldSpec != "" || strings.HasSuffix(rec, ")-") {
		return nil, fmt.Errorf("%s column %q cannot declare fields", t, name)
	}

	id, err := s.AddColumn(name, schema)
	if err != nil {
		return nil, err
	}
	return s.Column(id)
}

func loadCell(s *Store, col *Column, rec string) error {
	parts := strings.SplitN(rec, ",", 3)
	onset, err := ParseTimestamp(parts[0])
	if err != nil {
		return err
	}
	offset, err := ParseTimestamp(parts[1])
	if err != nil {
		return err
	}

	var fields []string
	if col.schema.IsMatrix() {
		fields, err = splitMatrix(parts[2])
	} else {
		fields, err = splitFields(parts[2])
	}
	if err != nil {
		return err
	}
	if want := NumFields(col.schema); len(fields) != want {
		return schemaErrorf("expected %d field(s), got %d", want, len(fields))
	}

	if _, err := s.AddCell(col.id, onset, offset); err != nil {
		return err
	}
	return s.SetCellValue(col.id, col.NumCells(), fields...)
}

// recordReader yields logical records. A quoted payload may contain line
// breaks, so physical lines are joined while a quote is open.
type recordReader struct {
	r    *bufio.Reader
	line int
}

func (rr *recordReader) readLine() (string, error) {
	s, err := rr.r.ReadString('\n')
	if err == io.EOF && s != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	rr.line++
	return strings.TrimSuffix(s, "\n"), nil
}

func (rr *recordReader) next() (string, int, error) {
	rec, err := rr.readLine()
	if err != nil {
		return "", 0, err
	}
	start := rr.line

	for strings.Count(rec, `"`)%2 == 1 {
		more, err := rr.readLine()
		if err == io.EOF {
			return "", start, &ParseError{Line: start, Text: rec, Msg: "unterminated quoted value"}
		}
		if err != nil {
			return "", start, err
		}
		rec += "\n" + more
	}

	return strings.TrimSuffix(rec, "\r"), start, nil
}
