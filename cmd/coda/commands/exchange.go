package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dyluth/coda/internal/config"
	"github.com/dyluth/coda/internal/exchange"
	"github.com/dyluth/coda/internal/printer"
	"github.com/dyluth/coda/internal/project"
	"github.com/spf13/cobra"
)

var (
	redisURL  string
	namespace string

	pushProject string

	pullOut   string
	pullForce bool

	watchOutputFormat string
)

var pushCmd = &cobra.Command{
	Use:   "push FILE",
	Short: "Publish a database as the project's shared snapshot",
	Long: `Publish FILE to Redis as the latest snapshot of a project and
announce it to watchers. Redis comes from exchange.redis_url in coda.yml or
--redis-url.

Examples:
  coda push MyStudy-ca7f43ae21.csv --project MyStudy
  coda push draft.csv --project MyStudy --redis-url redis://localhost:6379`,
	Args: cobra.ExactArgs(1),
	RunE: runPush,
}

var pullCmd = &cobra.Command{
	Use:   "pull PROJECT",
	Short: "Download a project's shared snapshot",
	Long: `Fetch the latest snapshot of PROJECT, verify its digest and write it
to --out (default: the project's content-addressed name in project.directory).

An existing file is only replaced with --force.`,
	Args: cobra.ExactArgs(1),
	RunE: runPull,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream snapshot announcements",
	Long: `Print each snapshot as it is published, until interrupted.

Output Formats:
  default - One human-readable line per snapshot
  jsonl   - Line-delimited JSON for programmatic processing`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	for _, c := range []*cobra.Command{pushCmd, pullCmd, watchCmd} {
		c.Flags().StringVar(&redisURL, "redis-url", "", "Redis URL (overrides exchange.redis_url)")
		c.Flags().StringVar(&namespace, "namespace", "", "Exchange namespace (overrides exchange.namespace)")
		rootCmd.AddCommand(c)
	}
	pushCmd.Flags().StringVarP(&pushProject, "project", "p", "", "Project name (default: project.name)")
	pullCmd.Flags().StringVar(&pullOut, "out", "", "Output file")
	pullCmd.Flags().BoolVarP(&pullForce, "force", "f", false, "Overwrite an existing output file")
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format: default or jsonl")
}

// newExchangeClient connects using flags first, then coda.yml.
func newExchangeClient(ctx context.Context) (*exchange.Client, error) {
	url, ns := redisURL, namespace
	if cfg.Exchange != nil {
		if url == "" {
			url = cfg.Exchange.RedisURL
		}
		if ns == "" {
			ns = cfg.Exchange.Namespace
		}
	}
	if ns == "" {
		ns = config.DefaultNamespace
	}
	if url == "" {
		return nil, printer.Error("no exchange configured", "No Redis URL was given.",
			[]string{"Set exchange.redis_url in coda.yml", "Pass --redis-url redis://host:6379"})
	}

	client, err := exchange.NewClientFromURL(url, ns, logger)
	if err != nil {
		return nil, printer.Error("invalid exchange settings", err.Error(), nil)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext("cannot reach Redis", err.Error(),
			map[string]string{"redis_url": url}, []string{"Check that Redis is running"})
	}
	return client, nil
}

func runPush(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	file := args[0]

	name := pushProject
	if name == "" {
		name = cfg.Project.Name
	}
	if name == "" {
		return printer.Error("no project name", "No --project given and coda.yml has no project.name.",
			[]string{"Run 'coda push FILE --project NAME'"})
	}

	store, err := openDatabase(file)
	if err != nil {
		return err
	}

	client, err := newExchangeClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	snap, err := client.Publish(ctx, name, store)
	if err != nil {
		return printer.Error("push failed", err.Error(), nil)
	}
	printer.Success("Pushed %s: %d columns, %d cells (digest %s)\n", name, snap.Columns, snap.Cells, shortDigest(snap.Digest))
	return nil
}

func runPull(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name := args[0]

	out := pullOut
	if out == "" {
		fileName, err := project.DatabaseFileName(name)
		if err != nil {
			return printer.FromError(name, err)
		}
		out = filepath.Join(cfg.Project.Directory, fileName)
	}
	if _, err := os.Stat(out); err == nil && !pullForce {
		return printer.FromError(out, fmt.Errorf("%s: %w", out, project.ErrOverwriteDeclined))
	}

	client, err := newExchangeClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	store, snap, err := client.Fetch(ctx, name)
	if err != nil {
		if exchange.IsNotFound(err) {
			return printer.Error("snapshot not found", fmt.Sprintf("No snapshot has been pushed for %q.", name),
				[]string{"Run 'coda push FILE --project " + name + "' first"})
		}
		return printer.FromError(name, err)
	}

	written, err := writeBack(store, out)
	if err != nil {
		return err
	}
	printer.Success("Pulled %s into %s (%d columns, %d cells)\n", name, written, snap.Columns, snap.Cells)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchOutputFormat != "default" && watchOutputFormat != "jsonl" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newExchangeClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	sub, err := client.Subscribe(ctx)
	if err != nil {
		return printer.Error("watch failed", err.Error(), nil)
	}
	defer sub.Close()

	printer.Step("Watching for snapshots (Ctrl+C to stop)\n")
	return streamSnapshots(ctx, sub, cmd.OutOrStdout(), watchOutputFormat)
}

// streamSnapshots prints events until ctx ends or the subscription closes.
func streamSnapshots(ctx context.Context, sub *exchange.Subscription, w io.Writer, format string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-sub.Errors():
			if !ok {
				return nil
			}
			logger.Warn("skipped snapshot event", "error", err)
		case snap, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if format == "jsonl" {
				data, err := json.Marshal(snap)
				if err != nil {
					return fmt.Errorf("failed to marshal snapshot event: %w", err)
				}
				fmt.Fprintf(w, "%s\n", data)
				continue
			}
			fmt.Fprintf(w, "%s  %-20s %3d columns %5d cells  %s\n",
				time.UnixMilli(snap.SavedAtMs).Format(time.RFC3339),
				snap.Project, snap.Columns, snap.Cells, shortDigest(snap.Digest))
		}
	}
}

func shortDigest(d string) string {
	if len(d) > 10 {
		return d[:10]
	}
	return d
}
