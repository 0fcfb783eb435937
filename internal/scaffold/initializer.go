package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/dyluth/coda/internal/config"
	"github.com/dyluth/coda/internal/project"
	"github.com/dyluth/coda/pkg/datastore"
)

//go:embed templates/*
var templatesFS embed.FS

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize creates coda.yml and an empty database for project name in dir.
// If force is true, existing files are replaced.
func Initialize(dir, name string, force bool) ([]FileInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("project name cannot be empty")
	}

	if !force {
		if err := CheckExisting(dir, name); err != nil {
			return nil, err
		}
	}

	files, err := getTemplateFiles(dir, name)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := writeFiles(files); err != nil {
		return nil, err
	}

	if err := validateCreatedFiles(dir); err != nil {
		return nil, err
	}

	return files, nil
}

// getTemplateFiles renders coda.yml and an empty database
func getTemplateFiles(dir, name string) ([]FileInfo, error) {
	raw, err := templatesFS.ReadFile("templates/coda.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read coda.yml template: %w", err)
	}
	tmpl, err := template.New("coda.yml").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse coda.yml template: %w", err)
	}
	var cfg bytes.Buffer
	if err := tmpl.Execute(&cfg, struct{ Name string }{Name: name}); err != nil {
		return nil, fmt.Errorf("failed to render coda.yml: %w", err)
	}

	dbName, err := project.DatabaseFileName(name)
	if err != nil {
		return nil, err
	}
	var db bytes.Buffer
	if err := datastore.Save(&db, datastore.New()); err != nil {
		return nil, err
	}

	return []FileInfo{
		{Path: filepath.Join(dir, config.DefaultFile), Content: cfg.Bytes(), Permissions: 0644},
		{Path: filepath.Join(dir, dbName), Content: db.Bytes(), Permissions: 0644},
	}, nil
}

// writeFiles writes all template files to disk
func writeFiles(files []FileInfo) error {
	for _, file := range files {
		if err := os.WriteFile(file.Path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}
	return nil
}

// validateCreatedFiles loads the written coda.yml through the real loader
func validateCreatedFiles(dir string) error {
	if _, err := config.Load(filepath.Join(dir, config.DefaultFile)); err != nil {
		return fmt.Errorf("created coda.yml is invalid: %w", err)
	}
	return nil
}
