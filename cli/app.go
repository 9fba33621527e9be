package cli

import (
	"context"

	"guild-mirror/config"
	"guild-mirror/database"
	"guild-mirror/models"
	"guild-mirror/utils"

	"go.uber.org/zap"
)

// app is what every command needs: configuration, logger and a healthy,
// migrated store.
type app struct {
	cfg    *models.AppConfig
	log    *zap.Logger
	sv     *database.Supervisor
	stores *database.Stores
}

// bootstrap loads configuration and brings the store up. An unhealthy store
// is fatal.
func bootstrap(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	log, err := utils.InitLogger(level, cfg.Log.Development)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to initialise logging", err)
	}

	sv, err := database.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	if !sv.Healthcheck(ctx) {
		sv.Close()
		return nil, NewExitError(ExitFailure, "database is unavailable, giving up")
	}
	if err := sv.Migrate(ctx); err != nil {
		sv.Close()
		return nil, WrapExitError(ExitFailure, "failed to migrate database", err)
	}

	return &app{cfg: cfg, log: log, sv: sv, stores: database.NewStores(sv)}, nil
}

func (a *app) Close() {
	if err := a.sv.Close(); err != nil {
		a.log.Warn("error closing database", zap.Error(err))
	}
	_ = a.log.Sync()
}
