package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"guild-mirror/bot"
	"guild-mirror/database"
	"guild-mirror/models"
	"guild-mirror/scanner"

	"github.com/spf13/cobra"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Passes scanner.Options
	Wait   time.Duration
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one full sync and exit",
		Long: `Connect to the gateway, wait for every guild to be delivered, reconcile
the selected kinds into the database and exit.

Example:
  guild-mirror sync
  guild-mirror sync --members=false --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Passes.Guilds, "guilds", true, "sync guild information")
	cmd.Flags().BoolVar(&opts.Passes.Channels, "channels", true, "sync channels")
	cmd.Flags().BoolVar(&opts.Passes.Roles, "roles", true, "sync roles")
	cmd.Flags().BoolVar(&opts.Passes.Members, "members", true, "sync members")
	cmd.Flags().BoolVar(&opts.Passes.Settings, "settings", true, "create missing bot settings")
	cmd.Flags().DurationVar(&opts.Wait, "wait", time.Minute, "how long to wait for guilds to arrive")

	return cmd
}

func runSync(cmd *cobra.Command, opts *SyncOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	sc := scanner.New(a.stores, database.NewStatusManager(a.cfg.Sync.StatusFile), a.cfg.Sync, a.cfg.Settings.Defaults)
	b, err := bot.NewBot(a.cfg, a.stores, sc)
	if err != nil {
		return WrapExitError(ExitCommandError, "error initializing bot", err)
	}
	defer b.Stop()
	if err := b.OpenAndWait(ctx, opts.Wait); err != nil {
		return WrapExitError(ExitFailure, "failed to connect", err)
	}

	status, err := b.SyncNow(opts.Passes)
	if err != nil {
		if errors.Is(err, scanner.ErrSyncInProgress) {
			return WrapExitError(ExitFailure, "sync refused", err)
		}
		return WrapExitError(ExitFailure, "sync stopped", err)
	}
	return printResult(cmd.OutOrStdout(), opts.Format, status, formatStatus(status))
}

func formatStatus(status models.SyncStatus) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s finished in %s\n", status.RunID, status.FinishedAt.Sub(status.StartedAt).Round(time.Millisecond))
	for _, kind := range models.SyncOrder {
		res, ok := status.Passes[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "  %-8s added=%d updated=%d skipped=%d failed=%d\n", kind, res.Added, res.Updated, res.Skipped, res.Failed)
	}
	return strings.TrimRight(sb.String(), "\n")
}
