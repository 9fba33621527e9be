package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"guild-mirror/bot"
	"guild-mirror/database"
	mirrorgrpc "guild-mirror/grpc"
	"guild-mirror/handlers"
	"guild-mirror/scanner"

	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and keep the mirror up to date",
		Long: `Connect to the gateway, mirror guilds as they become available, apply
live create/update/delete events, keep the points ledger and run the
scheduled full sync.

Example:
  guild-mirror serve
  DATABASE_DRIVER=postgres DATABASE_DSN=postgres://... guild-mirror serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

func runServe(parent context.Context, opts *RootOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	sc := scanner.New(a.stores, database.NewStatusManager(a.cfg.Sync.StatusFile), a.cfg.Sync, a.cfg.Settings.Defaults)
	b, err := bot.NewBot(a.cfg, a.stores, sc)
	if err != nil {
		return WrapExitError(ExitCommandError, "error initializing bot", err)
	}

	if addr := a.cfg.GRPC.ListenAddr; addr != "" {
		health := mirrorgrpc.NewServer(a.sv)
		if err := health.ListenAndServe(addr); err != nil {
			return WrapExitError(ExitFailure, "failed to start health server", err)
		}
		defer health.Stop()
	}

	if err := b.Start(handlers.Register); err != nil {
		return WrapExitError(ExitFailure, "error starting bot", err)
	}

	<-ctx.Done()
	a.log.Info("received signal, shutting down")
	b.Stop()
	return nil
}
