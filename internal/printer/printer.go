// Package printer renders coda's user-facing CLI output: colored status
// lines on stdout and structured error reports on stderr.
package printer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dyluth/coda/internal/project"
	"github.com/dyluth/coda/pkg/datastore"
	"github.com/fatih/color"
)

func init() {
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects printing, returning a func that restores the previous
// writers. Used by command tests.
func SetOutput(out, errOut io.Writer) (restore func()) {
	prevOut, prevErr := stdout, stderr
	stdout, stderr = out, errOut
	return func() { stdout, stderr = prevOut, prevErr }
}

// Success prints a success message in green with a checkmark prefix
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprint(stdout, msg)
}

// Info prints an informational message in the default color
func Info(format string, a ...any) {
	fmt.Fprintf(stdout, format, a...)
}

// Warning prints a warning message in yellow
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		msg = "⚠️  " + msg
	}
	yellow.Fprint(stderr, msg)
}

// Step prints a step message with emphasis (used in multi-step operations)
func Step(format string, a ...any) {
	cyan.Fprintf(stdout, "→ %s", fmt.Sprintf(format, a...))
}

// Error prints a titled error report with suggestions to stderr and returns
// a simple error for Cobra.
func Error(title string, explanation string, suggestions []string) error {
	return ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext is Error plus key/value details, printed in key order.
func ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string) error {
	red.Fprintf(stderr, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(stderr, "%s\n", explanation)
	}

	if len(context) > 0 {
		keys := make([]string, 0, len(context))
		for k := range context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintf(stderr, "\n")
		for _, k := range keys {
			fmt.Fprintf(stderr, "  %s: %s\n", k, context[k])
		}
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(stderr, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(stderr, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(stderr, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(stderr, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	// Won't be printed by Cobra due to SilenceErrors
	return fmt.Errorf("%s", title)
}

// FromError reports a datastore or save failure with a title and
// suggestions chosen by its kind. subject names the file or project involved.
func FromError(subject string, err error) error {
	var parseErr *datastore.ParseError
	switch {
	case errors.As(err, &parseErr):
		return ErrorWithContext(
			"malformed annotation data",
			err.Error(),
			map[string]string{"file": subject, "line": fmt.Sprint(parseErr.Line)},
			[]string{"Fix the record at the reported line and retry"},
		)
	case errors.Is(err, project.ErrOverwriteDeclined):
		return Error("save cancelled", fmt.Sprintf("%s already exists.", subject),
			[]string{"Re-run with --force to overwrite it"})
	case datastore.IsDuplicateNameError(err):
		return Error("duplicate column name", err.Error(),
			[]string{"Choose a column name that is not already in use"})
	case datastore.IsSchemaError(err):
		return Error("schema violation", err.Error(),
			[]string{"Check the column's type and the number of values supplied"})
	case datastore.IsIndexError(err):
		return Error("no such cell or field", err.Error(),
			[]string{"Cell ordinals start at 1; run 'coda inspect' to list cells"})
	case datastore.IsNotFound(err):
		return Error("column not found", err.Error(),
			[]string{"Run 'coda inspect' to list the columns"})
	case errors.Is(err, datastore.ErrDigestUnavailable):
		return Error("cannot name database file", err.Error(), nil)
	case errors.Is(err, datastore.ErrIO):
		return ErrorWithContext("I/O failure", err.Error(), map[string]string{"path": subject}, nil)
	default:
		return Error("operation failed", err.Error(), nil)
	}
}
