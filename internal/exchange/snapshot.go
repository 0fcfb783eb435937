package exchange

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/dyluth/coda/pkg/datastore"
)

// Snapshot is one published copy of a project's database. CSV holds the
// tabular text exactly as datastore.Save writes it.
type Snapshot struct {
	Project   string `json:"project"`
	Digest    string `json:"digest"` // hex SHA-1 of CSV
	Columns   int    `json:"columns"`
	Cells     int    `json:"cells"`
	SavedAtMs int64  `json:"saved_at_ms"`
	CSV       string `json:"-"`
}

// NewSnapshot serializes store into a snapshot of project.
func NewSnapshot(project string, store *datastore.Store, savedAtMs int64) (*Snapshot, error) {
	var buf bytes.Buffer
	if err := datastore.Save(&buf, store); err != nil {
		return nil, fmt.Errorf("failed to serialize store: %w", err)
	}

	cells := 0
	columns := store.Columns()
	for _, col := range columns {
		cells += col.NumCells()
	}

	return &Snapshot{
		Project:   project,
		Digest:    Digest(buf.String()),
		Columns:   len(columns),
		Cells:     cells,
		SavedAtMs: savedAtMs,
		CSV:       buf.String(),
	}, nil
}

// Digest returns the hex SHA-1 of the tabular text.
func Digest(csv string) string {
	sum := sha1.Sum([]byte(csv))
	return hex.EncodeToString(sum[:])
}

// Verify checks that CSV still matches Digest.
func (s *Snapshot) Verify() error {
	if got := Digest(s.CSV); got != s.Digest {
		return fmt.Errorf("snapshot %q digest mismatch: stored %s, computed %s", s.Project, s.Digest, got)
	}
	return nil
}

// Store parses the snapshot's tabular text into a new, unchanged store.
func (s *Snapshot) Store() (*datastore.Store, error) {
	if err := s.Verify(); err != nil {
		return nil, err
	}
	store, err := datastore.Load(bytes.NewReader([]byte(s.CSV)))
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %q: %w", s.Project, err)
	}
	return store, nil
}

// SnapshotToHash converts a Snapshot to a Redis hash.
func SnapshotToHash(s *Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"project":     s.Project,
		"csv":         s.CSV,
		"digest":      s.Digest,
		"columns":     s.Columns,
		"cells":       s.Cells,
		"saved_at_ms": s.SavedAtMs,
	}
}

// HashToSnapshot converts a Redis hash back to a Snapshot.
func HashToSnapshot(hash map[string]string) (*Snapshot, error) {
	columns, err := strconv.Atoi(hash["columns"])
	if err != nil {
		return nil, fmt.Errorf("invalid columns field: %w", err)
	}
	cells, err := strconv.Atoi(hash["cells"])
	if err != nil {
		return nil, fmt.Errorf("invalid cells field: %w", err)
	}
	savedAtMs, err := strconv.ParseInt(hash["saved_at_ms"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid saved_at_ms field: %w", err)
	}

	return &Snapshot{
		Project:   hash["project"],
		Digest:    hash["digest"],
		Columns:   columns,
		Cells:     cells,
		SavedAtMs: savedAtMs,
		CSV:       hash["csv"],
	}, nil
}
