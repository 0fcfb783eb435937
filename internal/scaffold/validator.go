package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/coda/internal/config"
	"github.com/dyluth/coda/internal/project"
)

// CheckExisting returns an error listing coda.yml or the project database
// if either already exists in dir.
func CheckExisting(dir, name string) error {
	candidates := []string{config.DefaultFile}
	if dbName, err := project.DatabaseFileName(name); err == nil {
		candidates = append(candidates, dbName)
	}

	var existingFiles []string
	for _, f := range candidates {
		if _, err := os.Stat(filepath.Join(dir, f)); err == nil {
			existingFiles = append(existingFiles, f)
		}
	}

	if len(existingFiles) > 0 {
		errMsg := "project already initialized\n\nFound existing"
		if len(existingFiles) == 1 {
			errMsg += fmt.Sprintf(": %s\n", existingFiles[0])
		} else {
			errMsg += " files:\n"
			for _, file := range existingFiles {
				errMsg += fmt.Sprintf("  - %s\n", file)
			}
		}
		errMsg += "\nUse 'coda init --force' to reinitialize (this will overwrite existing files)"

		return fmt.Errorf("%s", errMsg)
	}

	return nil
}
