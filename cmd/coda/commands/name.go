package commands

import (
	"fmt"

	"github.com/dyluth/coda/internal/printer"
	"github.com/dyluth/coda/internal/project"
	"github.com/spf13/cobra"
)

var nameCmd = &cobra.Command{
	Use:   "name [PROJECT]",
	Short: "Print the database file name for a project",
	Long: `Print the content-addressed database file name for a project:
the project name, a dash, the first 10 hex characters of the SHA-1 of the
name, and ".csv".

PROJECT defaults to project.name from coda.yml.

Examples:
  coda name MyStudy
  # MyStudy-ca7f43ae21.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runName,
}

func init() {
	rootCmd.AddCommand(nameCmd)
}

func runName(cmd *cobra.Command, args []string) error {
	name := cfg.Project.Name
	if len(args) == 1 {
		name = args[0]
	}
	if name == "" {
		return printer.Error("no project name", "No PROJECT argument given and coda.yml has no project.name.",
			[]string{"Run 'coda name PROJECT'"})
	}

	fileName, err := project.DatabaseFileName(name)
	if err != nil {
		return printer.FromError(name, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), fileName)
	return nil
}
