package commands

import (
	"fmt"
	"strings"

	"github.com/dyluth/coda/internal/printer"
	"github.com/dyluth/coda/pkg/datastore"
	"github.com/spf13/cobra"
)

var columnCmd = &cobra.Command{
	Use:   "column",
	Short: "Add or remove columns",
}

var columnAddCmd = &cobra.Command{
	Use:   "add FILE NAME TYPE [FIELD|TYPE ...]",
	Short: "Add a column to a database",
	Long: `Add a column to a database file, creating the file if it does not exist.

TYPE is one of NOMINAL, TEXT, INTEGER, FLOAT, PREDICATE, UNDEFINED or MATRIX.
A MATRIX column takes one or more FIELD|TYPE arguments naming its fields.

Examples:
  coda column add study.csv trial NOMINAL
  coda column add study.csv pos MATRIX 'x|INTEGER' 'y|INTEGER'`,
	Args: cobra.MinimumNArgs(3),
	RunE: runColumnAdd,
}

var columnRemoveCmd = &cobra.Command{
	Use:   "rm FILE NAME",
	Short: "Remove a column and all its cells",
	Args:  cobra.ExactArgs(2),
	RunE:  runColumnRemove,
}

func init() {
	columnCmd.AddCommand(columnAddCmd)
	columnCmd.AddCommand(columnRemoveCmd)
	rootCmd.AddCommand(columnCmd)
}

func runColumnAdd(cmd *cobra.Command, args []string) error {
	file, name := args[0], args[1]

	schema, err := parseSchema(args[2], args[3:])
	if err != nil {
		return printer.Error("invalid column type", err.Error(),
			[]string{"Use a scalar TYPE, or MATRIX followed by FIELD|TYPE arguments"})
	}

	store, err := openOrCreate(file)
	if err != nil {
		return err
	}
	if _, err := store.AddColumn(name, schema); err != nil {
		return printer.FromError(file, err)
	}

	written, err := writeBack(store, file)
	if err != nil {
		return err
	}
	logger.Debug("column added", "file", written, "column", name, "schema", schema.String())
	printer.Success("Added column %s (%s) to %s\n", name, schema.String(), written)
	return nil
}

func runColumnRemove(cmd *cobra.Command, args []string) error {
	file, name := args[0], args[1]

	store, err := openDatabase(file)
	if err != nil {
		return err
	}
	col, err := columnByName(store, file, name)
	if err != nil {
		return err
	}
	if err := store.RemoveColumn(col.ID()); err != nil {
		return printer.FromError(file, err)
	}

	written, err := writeBack(store, file)
	if err != nil {
		return err
	}
	printer.Success("Removed column %s from %s\n", name, written)
	return nil
}

// parseSchema builds a schema from a type name and, for MATRIX, field specs
// of the form "name|TYPE".
func parseSchema(typeName string, fieldSpecs []string) (datastore.Argument, error) {
	t, err := datastore.ParseArgType(strings.ToUpper(typeName))
	if err != nil {
		return datastore.Argument{}, err
	}

	if t != datastore.ArgMatrix {
		if len(fieldSpecs) > 0 {
			return datastore.Argument{}, fmt.Errorf("%s columns take no fields", t)
		}
		return datastore.Scalar(t), nil
	}

	if len(fieldSpecs) == 0 {
		return datastore.Argument{}, fmt.Errorf("MATRIX columns need at least one FIELD|TYPE")
	}
	fields := make([]datastore.Argument, 0, len(fieldSpecs))
	for _, spec := range fieldSpecs {
		fieldName, fieldType, ok := strings.Cut(spec, "|")
		if !ok {
			return datastore.Argument{}, fmt.Errorf("field %q must have the form name|TYPE", spec)
		}
		ft, err := datastore.ParseArgType(strings.ToUpper(fieldType))
		if err != nil {
			return datastore.Argument{}, fmt.Errorf("field %q: %w", fieldName, err)
		}
		fields = append(fields, datastore.Field(fieldName, ft))
	}
	return datastore.Matrix(fields...), nil
}
