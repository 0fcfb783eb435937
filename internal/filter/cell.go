package filter

import (
	"path/filepath"
	"strings"

	"github.com/dyluth/coda/internal/timespec"
	"github.com/dyluth/coda/pkg/datastore"
)

// Criteria defines filtering criteria for cells.
// All filters are ANDed together - a cell must match ALL criteria to pass.
type Criteria struct {
	ColumnGlob string          // Glob pattern for column name, empty = no filter
	Window     timespec.Window // Cells overlapping this window, open bounds = no filter
	Contains   string          // Substring of the rendered value, empty = no filter
}

// MatchesColumn reports whether cells of col can pass at all.
func (c *Criteria) MatchesColumn(col *datastore.Column) bool {
	if c == nil || c.ColumnGlob == "" {
		return true
	}
	matched, err := filepath.Match(c.ColumnGlob, col.Name())
	return err == nil && matched
}

// Matches returns true if the cell matches the time and value criteria.
// A cell matches the window when [onset, offset] overlaps it.
func (c *Criteria) Matches(cell *datastore.Cell) bool {
	if c == nil {
		return true
	}

	if c.Window.To != nil && cell.Onset() > *c.Window.To {
		return false
	}
	if c.Window.From != nil && cell.Offset() < *c.Window.From {
		return false
	}

	if c.Contains != "" && !strings.Contains(cell.Value().String(), c.Contains) {
		return false
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c != nil && (c.ColumnGlob != "" ||
		c.Window.From != nil ||
		c.Window.To != nil ||
		c.Contains != "")
}
