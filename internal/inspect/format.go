// Package inspect renders a store for people (a table per column) and for
// tools (one JSON object per cell).
package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dyluth/coda/internal/filter"
	"github.com/dyluth/coda/pkg/datastore"
)

// CellRecord is the JSONL shape of one cell. Value is set for scalar
// columns and Fields for matrix columns; a nil entry is an empty payload.
type CellRecord struct {
	Column  string             `json:"column"`
	Type    datastore.ArgType  `json:"type"`
	Ordinal int                `json:"ordinal"`
	CellID  string             `json:"cell_id"`
	Onset   int64              `json:"onset"`
	Offset  int64              `json:"offset"`
	Value   *string            `json:"value,omitempty"`
	Fields  map[string]*string `json:"fields,omitempty"`
}

// FormatTable writes every column passing crit as a header line followed by
// a table of its matching cells. Ordinals are positions in the unfiltered
// column. A nil crit matches everything. Returns the number of cells
// formatted.
func FormatTable(w io.Writer, store *datastore.Store, title string, crit *filter.Criteria) int {
	var columns []*datastore.Column
	for _, col := range store.Columns() {
		if crit.MatchesColumn(col) {
			columns = append(columns, col)
		}
	}
	if len(columns) == 0 {
		fmt.Fprintf(w, "No columns found in '%s'\n", title)
		return 0
	}

	fmt.Fprintf(w, "Columns in '%s':\n", title)

	total := 0
	for _, col := range columns {
		fmt.Fprintf(w, "\n%s\n", datastore.HeaderLine(col))

		shown := 0
		for i, cell := range col.Cells() {
			if !crit.Matches(cell) {
				continue
			}
			if shown == 0 {
				fmt.Fprintf(w, "  %-4s %-12s %-12s %s\n", "#", "ONSET", "OFFSET", "VALUE")
				fmt.Fprintf(w, "  %-4s %-12s %-12s %s\n", "----", "------------", "------------", "----------------------------------------")
			}
			fmt.Fprintf(w, "  %-4d %-12s %-12s %s\n",
				i+1,
				cell.Onset().Clock(),
				cell.Offset().Clock(),
				formatValue(cell.Value().String()),
			)
			shown++
		}

		if shown == 0 {
			if crit.HasFilters() {
				fmt.Fprintf(w, "  (no matching cells)\n")
			} else {
				fmt.Fprintf(w, "  (no cells)\n")
			}
		}
		total += shown
	}

	fmt.Fprintf(w, "\n%d %s, %d %s\n", len(columns), plural(len(columns), "column"), total, plural(total, "cell"))
	return total
}

// FormatJSONL writes one CellRecord per matching cell, columns in store
// order.
func FormatJSONL(w io.Writer, store *datastore.Store, crit *filter.Criteria) error {
	for _, col := range store.Columns() {
		if !crit.MatchesColumn(col) {
			continue
		}
		for i, cell := range col.Cells() {
			if !crit.Matches(cell) {
				continue
			}
			data, err := json.Marshal(Record(col, i+1, cell))
			if err != nil {
				return fmt.Errorf("failed to marshal cell to JSON: %w", err)
			}
			if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
				return fmt.Errorf("failed to write JSONL output: %w", err)
			}
		}
	}
	return nil
}

// Record builds the JSONL record for the cell at 1-based ordinal.
func Record(col *datastore.Column, ordinal int, cell *datastore.Cell) CellRecord {
	rec := CellRecord{
		Column:  col.Name(),
		Type:    col.Type(),
		Ordinal: ordinal,
		CellID:  cell.ID().String(),
		Onset:   int64(cell.Onset()),
		Offset:  int64(cell.Offset()),
	}

	v := cell.Value()
	if v.Kind() == datastore.ArgMatrix {
		rec.Fields = make(map[string]*string, len(v.Fields()))
		for _, f := range v.Fields() {
			rec.Fields[f.Name()] = rawPtr(f)
		}
		return rec
	}
	rec.Value = rawPtr(v)
	return rec
}

func rawPtr(v *datastore.Value) *string {
	raw, ok := v.Raw()
	if !ok || raw == "" {
		return nil
	}
	return &raw
}

// formatValue keeps the first line of a payload, truncated to 40 characters.
func formatValue(s string) string {
	first, _, multiline := strings.Cut(s, "\n")
	runes := []rune(first)
	if len(runes) > 40 {
		return string(runes[:37]) + "..."
	}
	if multiline {
		return first + " ..."
	}
	return first
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
