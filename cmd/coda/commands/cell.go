package commands

import (
	"fmt"
	"strconv"

	"github.com/dyluth/coda/internal/printer"
	"github.com/dyluth/coda/pkg/datastore"
	"github.com/spf13/cobra"
)

var cellCmd = &cobra.Command{
	Use:   "cell",
	Short: "Add, edit or remove cells",
}

var cellAddCmd = &cobra.Command{
	Use:   "add FILE COLUMN ONSET OFFSET [VALUE ...]",
	Short: "Append a cell to a column",
	Long: `Append a cell to a column. Times are milliseconds ("1500") or
HH:MM:SS:mmm ("00:00:01:500"). Values are optional; a MATRIX column takes
one value per field, and "" leaves a slot empty.

Examples:
  coda cell add study.csv trial 0 1000 correct
  coda cell add study.csv pos 00:00:01:000 00:00:02:000 3 4`,
	Args: cobra.MinimumNArgs(4),
	RunE: runCellAdd,
}

var cellSetCmd = &cobra.Command{
	Use:   "set FILE COLUMN ORDINAL VALUE ...",
	Short: "Replace the value of a cell",
	Long: `Replace the value of the cell at ORDINAL (1 is the first cell).
A MATRIX column takes one value per field.

Examples:
  coda cell set study.csv trial 2 incorrect`,
	Args: cobra.MinimumNArgs(4),
	RunE: runCellSet,
}

var cellRemoveCmd = &cobra.Command{
	Use:   "rm FILE COLUMN ORDINAL",
	Short: "Remove a cell",
	Args:  cobra.ExactArgs(3),
	RunE:  runCellRemove,
}

func init() {
	cellCmd.AddCommand(cellAddCmd)
	cellCmd.AddCommand(cellSetCmd)
	cellCmd.AddCommand(cellRemoveCmd)
	rootCmd.AddCommand(cellCmd)
}

func runCellAdd(cmd *cobra.Command, args []string) error {
	file, name := args[0], args[1]

	onset, err := datastore.ParseTimestamp(args[2])
	if err != nil {
		return printer.Error("invalid onset", err.Error(), []string{"Use milliseconds or HH:MM:SS:mmm"})
	}
	offset, err := datastore.ParseTimestamp(args[3])
	if err != nil {
		return printer.Error("invalid offset", err.Error(), []string{"Use milliseconds or HH:MM:SS:mmm"})
	}

	store, err := openDatabase(file)
	if err != nil {
		return err
	}
	col, err := columnByName(store, file, name)
	if err != nil {
		return err
	}

	// A rejected value returns before writeBack, so the file keeps no new cell.
	values := args[4:]
	if _, err := store.AddCell(col.ID(), onset, offset); err != nil {
		return printer.FromError(file, err)
	}
	ordinal := col.NumCells()
	if len(values) > 0 {
		if err := store.SetCellValue(col.ID(), ordinal, values...); err != nil {
			return printer.FromError(file, err)
		}
	}

	written, err := writeBack(store, file)
	if err != nil {
		return err
	}
	printer.Success("Added cell %d to %s in %s\n", ordinal, name, written)
	return nil
}

func runCellSet(cmd *cobra.Command, args []string) error {
	file, name := args[0], args[1]
	ordinal, err := parseOrdinal(args[2])
	if err != nil {
		return err
	}

	store, err := openDatabase(file)
	if err != nil {
		return err
	}
	col, err := columnByName(store, file, name)
	if err != nil {
		return err
	}
	if err := store.SetCellValue(col.ID(), ordinal, args[3:]...); err != nil {
		return printer.FromError(file, err)
	}

	if !store.IsChanged() {
		printer.Info("Cell %d of %s already has that value\n", ordinal, name)
		return nil
	}
	written, err := writeBack(store, file)
	if err != nil {
		return err
	}
	printer.Success("Updated cell %d of %s in %s\n", ordinal, name, written)
	return nil
}

func runCellRemove(cmd *cobra.Command, args []string) error {
	file, name := args[0], args[1]
	ordinal, err := parseOrdinal(args[2])
	if err != nil {
		return err
	}

	store, err := openDatabase(file)
	if err != nil {
		return err
	}
	col, err := columnByName(store, file, name)
	if err != nil {
		return err
	}
	if err := store.RemoveCell(col.ID(), ordinal); err != nil {
		return printer.FromError(file, err)
	}

	written, err := writeBack(store, file)
	if err != nil {
		return err
	}
	printer.Success("Removed cell %d from %s in %s\n", ordinal, name, written)
	return nil
}

func parseOrdinal(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, printer.Error("invalid ordinal", fmt.Sprintf("%q is not a number", s),
			[]string{"Cell ordinals start at 1; run 'coda inspect' to list cells"})
	}
	return n, nil
}
