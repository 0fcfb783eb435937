// Package project implements the save pipeline around a datastore: it names
// database files from the project name, writes them, and resets the store's
// changed flag only after a successful write.
package project

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dyluth/coda/internal/logging"
	"github.com/dyluth/coda/pkg/datastore"
)

// Format is the output format chosen for a save.
type Format string

const (
	// FormatProject saves an auto-named database inside the project directory.
	FormatProject Format = "project"

	// FormatCSV saves the database to an explicit path.
	FormatCSV Format = "csv"
)

// ProjectExtension is stripped from names passed to SaveAs.
const ProjectExtension = ".coda"

// ErrOverwriteDeclined is returned when SaveAs would replace an existing
// database and the overwrite was not confirmed.
var ErrOverwriteDeclined = errors.New("overwrite declined")

// Project is the save target for a store.
type Project struct {
	Name         string
	Directory    string
	DatabaseFile string // set by SaveProject
	LastFormat   Format
	LastPath     string // set by SaveDatabase
	Store        *datastore.Store
}

// Saver writes projects and databases to disk.
type Saver struct {
	logger *slog.Logger

	// ConfirmOverwrite is asked before SaveAs replaces an existing file. A
	// nil func declines.
	ConfirmOverwrite func(path string) bool
}

// NewSaver returns a saver that logs through logger.
func NewSaver(logger *slog.Logger) *Saver {
	return &Saver{logger: logging.Component(logger, "save")}
}

// Save repeats the project's last save option.
func (s *Saver) Save(p *Project) error {
	switch p.LastFormat {
	case FormatProject, "":
		return s.SaveProject(p)
	case FormatCSV:
		if p.LastPath == "" {
			return fmt.Errorf("project %q has no previous database path", p.Name)
		}
		path, err := s.SaveDatabase(p.Store, p.LastPath, FormatCSV)
		if err != nil {
			return err
		}
		p.LastPath = path
		return nil
	default:
		return fmt.Errorf("unsupported save format %q", p.LastFormat)
	}
}

// SaveProject writes the store to <Directory>/<DatabaseFileName(Name)> and
// marks it unchanged.
func (s *Saver) SaveProject(p *Project) error {
	if p.Name == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	if p.Store == nil {
		return fmt.Errorf("project %q has no store", p.Name)
	}

	dbName, err := DatabaseFileName(p.Name)
	if err != nil {
		s.logger.Error("could not compute database file name", "project", p.Name, "error", err)
		return err
	}

	path := filepath.Join(p.Directory, dbName)
	if err := writeDatabase(path, p.Store); err != nil {
		s.logger.Error("unable to save database", "path", path, "error", err)
		return err
	}
	p.Store.MarkUnchanged()

	p.DatabaseFile = dbName
	p.LastFormat = FormatProject
	s.logger.Info("saved project", "project", p.Name, "path", path)
	return nil
}

// SaveAs saves the project under a new name and directory. A trailing
// ".coda" is stripped from file. If the target database already exists
// ConfirmOverwrite must approve replacing it.
func (s *Saver) SaveAs(p *Project, directory, file string) error {
	name := strings.TrimSuffix(file, ProjectExtension)
	if name == "" {
		return fmt.Errorf("invalid file name %q", file)
	}

	dbName, err := DatabaseFileName(name)
	if err != nil {
		return err
	}
	path := filepath.Join(directory, dbName)
	if _, err := os.Stat(path); err == nil {
		if s.ConfirmOverwrite == nil || !s.ConfirmOverwrite(path) {
			s.logger.Info("save cancelled, file exists", "path", path)
			return fmt.Errorf("%s: %w", path, ErrOverwriteDeclined)
		}
	}

	next := *p
	next.Name = name
	next.Directory = directory
	if err := s.SaveProject(&next); err != nil {
		return err
	}
	*p = next
	return nil
}

// SaveDatabase writes the store to path in the given format and marks it
// unchanged. FormatCSV appends ".csv" when missing. It returns the path
// actually written.
func (s *Saver) SaveDatabase(store *datastore.Store, path string, format Format) (string, error) {
	switch format {
	case FormatCSV:
		if !strings.HasSuffix(path, DatabaseExtension) {
			path += DatabaseExtension
		}
	default:
		return "", fmt.Errorf("unsupported database format %q", format)
	}

	if err := s.Overwrite(store, path); err != nil {
		return "", err
	}
	return path, nil
}

// Overwrite writes the store to exactly path, whatever its extension, and
// marks it unchanged. It is the write-back for a database edited in place.
func (s *Saver) Overwrite(store *datastore.Store, path string) error {
	if err := writeDatabase(path, store); err != nil {
		s.logger.Error("unable to save database", "path", path, "error", err)
		return err
	}
	store.MarkUnchanged()

	s.logger.Info("saved database", "path", path)
	return nil
}

// Open loads a database file.
func Open(path string) (*datastore.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, datastore.IOError("open "+path, err)
	}
	defer f.Close()

	store, err := datastore.Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return store, nil
}

// writeDatabase does not replace the target atomically; a failed write may
// leave a truncated file behind.
func writeDatabase(path string, store *datastore.Store) error {
	f, err := os.Create(path)
	if err != nil {
		return datastore.IOError("create "+path, err)
	}
	if err := datastore.Save(f, store); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return datastore.IOError("close "+path, err)
	}
	return nil
}
