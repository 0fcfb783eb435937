package commands

import (
	"fmt"

	"github.com/dyluth/coda/internal/filter"
	"github.com/dyluth/coda/internal/inspect"
	"github.com/dyluth/coda/internal/printer"
	"github.com/dyluth/coda/internal/timespec"
	"github.com/spf13/cobra"
)

var (
	inspectOutputFormat string
	inspectColumn       string
	inspectFrom         string
	inspectTo           string
	inspectContains     string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show the columns and cells of a database",
	Long: `Show every column of a database with its cells.

Output Formats:
  default - One table per column with onset, offset and value
  jsonl   - Line-delimited JSON, one cell per line

Filters:
  --column   - Column name glob ("trial", "pos*")
  --from     - Cells ending at or after this time
  --to       - Cells starting at or before this time
  --contains - Cells whose value contains this text

Times are milliseconds, HH:MM:SS:mmm or a duration such as 1m30s.

Examples:
  coda inspect MyStudy-ca7f43ae21.csv
  coda inspect study.csv --column 'pos*' --from 1m --to 2m
  coda inspect study.csv -o jsonl | jq 'select(.column=="trial")'`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check that a database file loads cleanly",
	Long: `Load a database file and report the first malformed record, if any.
Exits non-zero when the file cannot be loaded.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectOutputFormat, "output", "o", "default", "Output format: default or jsonl")
	inspectCmd.Flags().StringVar(&inspectColumn, "column", "", "Filter by column name (glob pattern)")
	inspectCmd.Flags().StringVar(&inspectFrom, "from", "", "Show cells ending at or after this time")
	inspectCmd.Flags().StringVar(&inspectTo, "to", "", "Show cells starting at or before this time")
	inspectCmd.Flags().StringVar(&inspectContains, "contains", "", "Show cells whose value contains this text")
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(validateCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if inspectOutputFormat != "default" && inspectOutputFormat != "jsonl" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", inspectOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	window, err := timespec.ParseRange(inspectFrom, inspectTo)
	if err != nil {
		return printer.Error("invalid time filter", err.Error(),
			[]string{"Use milliseconds, HH:MM:SS:mmm or a duration such as 1m30s"})
	}
	crit := &filter.Criteria{ColumnGlob: inspectColumn, Window: window, Contains: inspectContains}

	store, err := openDatabase(args[0])
	if err != nil {
		return err
	}

	if inspectOutputFormat == "jsonl" {
		return inspect.FormatJSONL(cmd.OutOrStdout(), store, crit)
	}
	inspect.FormatTable(cmd.OutOrStdout(), store, args[0], crit)
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	store, err := openDatabase(args[0])
	if err != nil {
		return err
	}

	cells := 0
	for _, col := range store.Columns() {
		cells += col.NumCells()
	}
	printer.Success("%s is valid: %d columns, %d cells\n", args[0], len(store.Columns()), cells)
	return nil
}
