package datastore

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveString(t *testing.T, s *Store) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, s))
	return buf.String()
}

// dump flattens a store into comparable lines: one header per column and an
// (onset, offset, rendered value) triple per cell
func dump(s *Store) []string {
	var out []string
	for _, col := range s.Columns() {
		out = append(out, HeaderLine(col))
		for _, c := range col.Cells() {
			out = append(out, fmt.Sprintf("%s|%s|%s", c.Onset(), c.Offset(), c.Value().String()))
		}
	}
	return out
}

func TestSave_NominalScenario(t *testing.T) {
	s, id := newTrialStore(t)
	_, err := s.AddCell(id, 0, 1000)
	require.NoError(t, err)
	require.NoError(t, s.SetCellValue(id, 1, "correct"))

	assert.Equal(t, "trial (NOMINAL)\n0,1000,correct\n", saveString(t, s))
}

func TestSave_MatrixScenario(t *testing.T) {
	s := New()
	id, err := s.AddColumn("pos", Matrix(Field("x", ArgInteger), Field("y", ArgInteger)))
	require.NoError(t, err)
	_, err = s.AddCell(id, 0, 500)
	require.NoError(t, err)
	require.NoError(t, s.SetCellValue(id, 1, "3", "4"))

	assert.Equal(t, "pos (MATRIX)-x|INTEGER,y|INTEGER\n0,500,(3,4)\n", saveString(t, s))
}

func TestSave_CommaPayloadScenario(t *testing.T) {
	s, id := newTrialStore(t)
	_, _ = s.AddCell(id, 0, 1000)
	c, _ := s.Cell(id, 1)
	c.Value().Set("a,b")

	out := saveString(t, s)
	assert.Equal(t, "trial (NOMINAL)\n0,1000,\"a,b\"\n", out)

	loaded, err := Load(strings.NewReader(out))
	require.NoError(t, err)
	col, err := loaded.ColumnByName("trial")
	require.NoError(t, err)
	raw, ok := col.Cells()[0].Value().Raw()
	require.True(t, ok)
	assert.Equal(t, "a,b", raw)
}

func TestSave_EmptyValuesAreEmptyFields(t *testing.T) {
	s, id := newTrialStore(t)
	_, _ = s.AddCell(id, 0, 1000)
	m, err := s.AddColumn("pos", Matrix(Field("x", ArgInteger), Field("y", ArgInteger)))
	require.NoError(t, err)
	_, _ = s.AddCell(m, 10, 20)
	require.NoError(t, s.SetCellValue(m, 1, "", "7"))

	assert.Equal(t,
		"trial (NOMINAL)\n0,1000,\npos (MATRIX)-x|INTEGER,y|INTEGER\n10,20,(,7)\n",
		saveString(t, s))
}

func TestSave_DoesNotResetChanged(t *testing.T) {
	s, _ := newTrialStore(t)
	saveString(t, s)
	assert.True(t, s.IsChanged(), "only the save pipeline marks a store unchanged")
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestSave_IOFailure(t *testing.T) {
	s, id := newTrialStore(t)
	_, _ = s.AddCell(id, 0, 1000)

	err := Save(failingWriter{}, s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
	assert.Contains(t, err.Error(), "disk full")
}

// TestRoundTrip builds a store from mutation operations only and checks that
// save then load reproduces column order, schema and cell triples
func TestRoundTrip(t *testing.T) {
	s := New()

	trial, err := s.AddColumn("trial", Scalar(ArgNominal))
	require.NoError(t, err)
	notes, err := s.AddColumn("notes", Scalar(ArgText))
	require.NoError(t, err)
	pos, err := s.AddColumn("pos", Matrix(Field("x", ArgInteger), Field("y", ArgFloat), Field("<label>", ArgText)))
	require.NoError(t, err)
	_, err = s.AddColumn("empty-column", Scalar(ArgPredicate))
	require.NoError(t, err)

	for i, v := range []string{"correct", "", "wrong"} {
		_, err := s.AddCell(trial, Timestamp(i*1000), Timestamp(i*1000+999))
		require.NoError(t, err)
		require.NoError(t, s.SetCellValue(trial, i+1, v))
	}

	_, _ = s.AddCell(notes, 3000, 1000)
	require.NoError(t, s.SetCellValue(notes, 1, "she said \"stop\",\nthen left"))
	_, _ = s.AddCell(notes, 0, 0)
	require.NoError(t, s.SetCellValue(notes, 2, "<notes> literal"))

	_, _ = s.AddCell(pos, 0, 500)
	require.NoError(t, s.SetCellValue(pos, 1, "3", "4.5", "top, left"))
	_, _ = s.AddCell(pos, 500, 1000)
	require.NoError(t, s.SetCellValue(pos, 2, "", "-1", ""))

	text := saveString(t, s)
	loaded, err := Load(strings.NewReader(text))
	require.NoError(t, err)

	assert.Equal(t, dump(s), dump(loaded))
	require.Len(t, loaded.Columns(), 4)
	for i, col := range s.Columns() {
		assert.True(t, col.Schema().Equal(loaded.Columns()[i].Schema()), "schema of %s", col.Name())
	}
	assert.False(t, loaded.IsChanged(), "a freshly loaded store has no unsaved edits")

	assert.Equal(t, text, saveString(t, loaded), "save is deterministic across a round trip")
}

// TestRoundTrip_NegativeTimes covers cells placed before media start, which
// AddCell and SetOnset both accept
func TestRoundTrip_NegativeTimes(t *testing.T) {
	s := New()
	id, err := s.AddColumn("trial", Scalar(ArgNominal))
	require.NoError(t, err)

	_, err = s.AddCell(id, -5, 10)
	require.NoError(t, err)
	_, err = s.AddCell(id, 0, 100)
	require.NoError(t, err)
	require.NoError(t, s.SetCellValue(id, 2, "late"))
	c, err := s.Cell(id, 2)
	require.NoError(t, err)
	c.SetOnset(-2000)
	c.SetOffset(-1000)

	text := saveString(t, s)
	assert.Equal(t, "trial (NOMINAL)\n-5,10,\n-2000,-1000,late\n", text)

	loaded, err := Load(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, dump(s), dump(loaded))
}

// TestRoundTrip_DirectValueEdits edits through Cell.Value rather than
// SetCellValue; whatever those edits commit must load back
func TestRoundTrip_DirectValueEdits(t *testing.T) {
	s := New()
	n, err := s.AddColumn("n", Scalar(ArgInteger))
	require.NoError(t, err)
	pos, err := s.AddColumn("pos", Matrix(Field("x", ArgInteger), Field("y", ArgFloat)))
	require.NoError(t, err)
	_, err = s.AddCell(n, 0, 1)
	require.NoError(t, err)
	_, err = s.AddCell(pos, 0, 1)
	require.NoError(t, err)
	s.MarkUnchanged()

	c, err := s.Cell(n, 1)
	require.NoError(t, err)
	c.Value().Set("abc")
	assert.False(t, s.IsChanged(), "a payload the column cannot hold is not committed")

	m, err := s.Cell(pos, 1)
	require.NoError(t, err)
	m.Value().Set("(x,1.5)")
	assert.True(t, s.IsChanged())

	text := saveString(t, s)
	assert.Equal(t, "n (INTEGER)\n0,1,\npos (MATRIX)-x|INTEGER,y|FLOAT\n0,1,(,1.5)\n", text)

	loaded, err := Load(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, dump(s), dump(loaded))
}

func TestLoad_Tolerance(t *testing.T) {
	t.Run("crlf line endings", func(t *testing.T) {
		s, err := Load(strings.NewReader("trial (NOMINAL)\r\n0,1000,correct\r\n"))
		require.NoError(t, err)
		col, _ := s.ColumnByName("trial")
		require.Equal(t, 1, col.NumCells())
		assert.Equal(t, "correct", col.Cells()[0].Value().String())
	})

	t.Run("blank lines and missing final newline", func(t *testing.T) {
		s, err := Load(strings.NewReader("\ntrial (NOMINAL)\n\n0,1000,a\n1000,2000,b"))
		require.NoError(t, err)
		col, _ := s.ColumnByName("trial")
		assert.Equal(t, 2, col.NumCells())
	})

	t.Run("clock timestamps", func(t *testing.T) {
		s, err := Load(strings.NewReader("trial (NOMINAL)\n00:00:01:000,00:00:02:500,a\n"))
		require.NoError(t, err)
		col, _ := s.ColumnByName("trial")
		c := col.Cells()[0]
		assert.Equal(t, Timestamp(1000), c.Onset())
		assert.Equal(t, Timestamp(2500), c.Offset())
	})

	t.Run("header without cells", func(t *testing.T) {
		s, err := Load(strings.NewReader("trial (NOMINAL)\nnotes (TEXT)\n"))
		require.NoError(t, err)
		assert.Len(t, s.ColumnOrder(), 2)
	})

	t.Run("empty input", func(t *testing.T) {
		s, err := Load(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, s.ColumnOrder())
	})
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
		wantMsg  string
	}{
		{name: "cell before header", input: "0,1000,a\n", wantLine: 1, wantMsg: "cell before any column header"},
		{name: "malformed header", input: "trial NOMINAL\n", wantLine: 1, wantMsg: "invalid column header"},
		{name: "unknown type", input: "trial (DATE)\n", wantLine: 1, wantMsg: "unknown argument type"},
		{name: "matrix without fields", input: "pos (MATRIX)\n", wantLine: 1, wantMsg: "declares no fields"},
		{name: "scalar with fields", input: "trial (NOMINAL)-x|TEXT\n", wantLine: 1, wantMsg: "cannot declare fields"},
		{name: "bad field spec", input: "pos (MATRIX)-x\n", wantLine: 1, wantMsg: "expected name|TYPE"},
		{name: "duplicate column", input: "trial (NOMINAL)\ntrial (TEXT)\n", wantLine: 2, wantMsg: "duplicate column name"},
		{name: "scalar field count", input: "trial (NOMINAL)\n0,1000,a,b\n", wantLine: 2, wantMsg: "expected 1 field(s), got 2"},
		{name: "matrix field count", input: "pos (MATRIX)-x|INTEGER,y|INTEGER\n0,500,(3)\n", wantLine: 2, wantMsg: "expected 2 field(s), got 1"},
		{name: "matrix not parenthesised", input: "pos (MATRIX)-x|INTEGER,y|INTEGER\n0,500,3\n", wantLine: 2, wantMsg: "not enclosed"},
		{name: "type violation", input: "n (INTEGER)\n0,1,one\n", wantLine: 2, wantMsg: "not an INTEGER"},
		{name: "unterminated quote", input: "trial (NOMINAL)\n0,1000,\"open\nstill open\n", wantLine: 2, wantMsg: "unterminated quoted value"},
		{name: "line number after multiline record", input: "t (TEXT)\n0,1,\"a\nb\"\n2,3,x,y\n", wantLine: 4, wantMsg: "expected 1 field(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Load(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Nil(t, s, "no partial store on failure")
			assert.True(t, IsParseError(err))

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.wantLine, pe.Line)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) { return 0, errors.New("device gone") }

func TestLoad_IOFailure(t *testing.T) {
	_, err := Load(failingReader{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
	assert.False(t, IsParseError(err))
}
