package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dyluth/coda/internal/config"
	"github.com/dyluth/coda/internal/logging"
	"github.com/dyluth/coda/internal/printer"
	"github.com/dyluth/coda/internal/project"
	"github.com/dyluth/coda/pkg/datastore"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	configPath string
	logLevel   string

	// Set by loadEnvironment before any subcommand runs.
	cfg      *config.CodaConfig
	logger   *slog.Logger
	closeLog = func() error { return nil }
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "coda",
	Short: "coda - temporal annotation datastore",
	Long: `coda manages annotation databases: named columns of time-coded cells
whose values follow a typed schema.

Databases are plain text files, one header line per column followed by one
line per cell. coda can name them by content hash, validate and inspect
them, edit columns and cells, and share snapshots through Redis.`,
	Version: version,
	// Prevent silent success when unknown flags are passed to root command
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: loadEnvironment,
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	defer func() {
		closeLog()
		closeLog = func() error { return nil }
	}()
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFile, "Path to coda.yml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
}

// loadEnvironment reads the config and builds the logger. A missing default
// config file is fine; a missing file named with --config is not.
func loadEnvironment(cmd *cobra.Command, args []string) error {
	var err error
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadOrDefault(configPath)
	}
	if err != nil {
		return printer.ErrorWithContext(
			"configuration error",
			err.Error(),
			map[string]string{"config": configPath},
			[]string{"Fix coda.yml or point --config at a valid file"},
		)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	l, closeFn, err := logging.New(logging.Options{
		Level:   level,
		File:    cfg.Logging.File,
		Journal: cfg.Logging.Journal,
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return printer.Error("logging setup failed", err.Error(), []string{"Check --log-level and logging.file in coda.yml"})
	}
	logger = l
	closeLog = closeFn
	return nil
}

// openDatabase loads path and reports failures through the printer.
func openDatabase(path string) (*datastore.Store, error) {
	store, err := project.Open(path)
	if err != nil {
		return nil, printer.FromError(path, err)
	}
	return store, nil
}

// openOrCreate is openDatabase, except a missing file yields an empty store.
func openOrCreate(path string) (*datastore.Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return datastore.New(), nil
	}
	return openDatabase(path)
}

// writeBack saves an edited store over the file it was read from.
func writeBack(store *datastore.Store, path string) (string, error) {
	if err := project.NewSaver(logger).Overwrite(store, path); err != nil {
		return "", printer.FromError(path, err)
	}
	return path, nil
}

// columnByName resolves a column and reports a missing one.
func columnByName(store *datastore.Store, file, name string) (*datastore.Column, error) {
	col, err := store.ColumnByName(name)
	if err != nil {
		return nil, printer.FromError(file, err)
	}
	return col, nil
}
