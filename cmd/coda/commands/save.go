package commands

import (
	"path/filepath"

	"github.com/dyluth/coda/internal/printer"
	"github.com/dyluth/coda/internal/project"
	"github.com/spf13/cobra"
)

var (
	saveDir   string
	saveForce bool
)

var saveCmd = &cobra.Command{
	Use:   "save PROJECT FILE",
	Short: "Save a database under its project's content-addressed name",
	Long: `Load FILE and save it as PROJECT's database, named
PROJECT-<hash>.csv, in --dir (default: project.directory from coda.yml).
A trailing ".coda" on PROJECT is ignored.

An existing database is only replaced with --force.

Examples:
  coda save MyStudy draft.csv --dir ./studies
  coda save MyStudy.coda draft.csv --force`,
	Args: cobra.ExactArgs(2),
	RunE: runSave,
}

func init() {
	saveCmd.Flags().StringVar(&saveDir, "dir", "", "Target directory (default: project.directory)")
	saveCmd.Flags().BoolVarP(&saveForce, "force", "f", false, "Overwrite an existing database")
	rootCmd.AddCommand(saveCmd)
}

func runSave(cmd *cobra.Command, args []string) error {
	name, file := args[0], args[1]

	store, err := openDatabase(file)
	if err != nil {
		return err
	}

	dir := saveDir
	if dir == "" {
		dir = cfg.Project.Directory
	}

	saver := project.NewSaver(logger)
	saver.ConfirmOverwrite = func(path string) bool { return saveForce }

	p := &project.Project{Name: name, Directory: dir, Store: store}
	if err := saver.SaveAs(p, dir, name); err != nil {
		return printer.FromError(file, err)
	}

	printer.Success("Saved %s as %s\n", p.Name, filepath.Join(p.Directory, p.DatabaseFile))
	return nil
}
