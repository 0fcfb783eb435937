package commands

import (
	"path/filepath"
	"strings"

	"github.com/dyluth/coda/internal/printer"
	"github.com/dyluth/coda/internal/project"
	"github.com/dyluth/coda/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init PROJECT",
	Short: "Initialize a new coda project",
	Long: `Initialize a new coda project in --dir (default: the current directory).

Creates:
  • coda.yml - Project configuration file
  • PROJECT-<hash>.csv - Empty database under its content-addressed name

Use --force to reinitialize an existing project (WARNING: replaces existing files).`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Force reinitialization (replaces coda.yml and the database)")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "Directory to initialize")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	name := strings.TrimSuffix(args[0], project.ProjectExtension)

	files, err := scaffold.Initialize(initDir, name, forceInit)
	if err != nil {
		if strings.HasPrefix(err.Error(), "project already initialized") {
			return printer.Error("project already initialized", err.Error(), nil)
		}
		return printer.Error("initialization failed", err.Error(), nil)
	}

	printer.Success("Initialized coda project %s\n", name)
	printer.Info("\nCreated:\n")
	for _, f := range files {
		printer.Info("  ✓ %s\n", filepath.Base(f.Path))
	}
	printer.Info("\nNext steps:\n")
	printer.Info("  1. Add a column: coda column add %s trial NOMINAL\n", filepath.Base(files[len(files)-1].Path))
	printer.Info("  2. Uncomment the exchange section of coda.yml to share snapshots\n")
	return nil
}
