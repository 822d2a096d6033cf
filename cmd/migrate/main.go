package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"tourbook/internal/config"
	"tourbook/internal/database"
	"tourbook/internal/database/migrations"
	"tourbook/internal/logger"
	"tourbook/internal/payment/storage"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dir string
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply tourbook schema migrations and inspect the webhook journal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", "", "migrations directory (defaults to MIGRATIONS_DIR)")

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRunner(cmd.Context(), dir, func(r *migrations.Runner) error {
				return r.Up()
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back the given number of migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := stepsArg(args)
			if err != nil {
				return err
			}
			return withRunner(cmd.Context(), dir, func(r *migrations.Runner) error {
				return r.Steps(-n)
			})
		},
	})

	var limit int
	unmatched := &cobra.Command{
		Use:   "unmatched",
		Short: "List journaled Stripe events that matched no order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), func(bunDB *bun.DB, log *logger.Logger) error {
				return listUnmatched(cmd.Context(), storage.NewBunStore(bunDB, log), limit, cmd.OutOrStdout())
			})
		},
	}
	unmatched.Flags().IntVar(&limit, "limit", 50, "maximum number of events to show")
	root.AddCommand(unmatched)

	return root
}

func listUnmatched(ctx context.Context, store storage.Store, limit int, out io.Writer) error {
	if limit < 1 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}
	events, err := store.ListUnmatched(ctx, limit)
	if err != nil {
		return fmt.Errorf("list unmatched events: %w", err)
	}
	if len(events) == 0 {
		fmt.Fprintln(out, "No unmatched webhook events")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RECEIVED\tEVENT\tTYPE\tSESSION")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ReceivedAt.UTC().Format(time.RFC3339), e.EventID, e.Type, e.SessionID)
	}
	return tw.Flush()
}

func stepsArg(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("steps must be a positive integer, got %q", args[0])
	}
	return n, nil
}

func withDB(ctx context.Context, fn func(*bun.DB, *logger.Logger) error) error {
	log := logger.NewLogger("migrate")
	defer log.Close()

	bunDB, err := database.Shared(ctx, config.Load().Database, log)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer database.Close()
	return fn(bunDB, log)
}

func withRunner(ctx context.Context, dir string, fn func(*migrations.Runner) error) error {
	if dir == "" {
		dir = config.Load().Database.MigrationsDir
	}
	return withDB(ctx, func(bunDB *bun.DB, log *logger.Logger) error {
		runner := migrations.NewRunner(bunDB, dir, log)
		defer runner.Close()
		return fn(runner)
	})
}
