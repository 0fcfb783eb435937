// Package datastore provides the typed value model, the column and cell
// schema, and the tabular text serialization for coda's temporal
// annotation data.
//
// # Overview
//
// A Store owns an ordered set of Columns. Each Column declares a schema,
// either a single scalar Argument or a MATRIX Argument with ordered named
// fields, and holds an ordered sequence of Cells. A Cell is a time-bounded
// container (onset and offset in milliseconds) for exactly one Value that
// conforms to its column's schema.
//
// # Change Tracking
//
// Every mutation routes to the owning Store's changed flag. Values keep a
// non-owning Notifier handle to the Store and report through it when their
// payload actually changes; re-applying the current value is a no-op. Only
// the save pipeline resets the flag, via MarkUnchanged.
//
// # Usage Example
//
//	s := datastore.New()
//	trialID, err := s.AddColumn("trial", datastore.Scalar(datastore.ArgNominal))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if _, err := s.AddCell(trialID, 0, 1000); err != nil {
//		log.Fatal(err)
//	}
//	if err := s.SetCellValue(trialID, 1, "correct"); err != nil {
//		log.Fatal(err)
//	}
//
//	// trial (NOMINAL)
//	// 0,1000,correct
//	if err := datastore.Save(os.Stdout, s); err != nil {
//		log.Fatal(err)
//	}
//
// # Text Format
//
// Columns are written one block after another, in store order. A block is a
// header line followed by one body line per cell:
//
//	name (TYPE)
//	pos (MATRIX)-x|INTEGER,y|INTEGER
//	onset,offset,value
//
// Scalar values are written as their escaped payload; matrix values as a
// parenthesised, comma separated list of escaped field payloads. Payloads
// containing a comma, a quote or a line terminator are wrapped in quotes with
// internal quotes doubled.
//
// # Concurrency
//
// A Store is single-writer: all edits are expected on one goroutine. Only the
// listener list is guarded, so listeners may subscribe and unsubscribe from
// any goroutine.
package datastore
