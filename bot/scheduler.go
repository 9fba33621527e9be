package bot

import (
	"errors"
	"fmt"
	"time"

	"guild-mirror/scanner"
	"guild-mirror/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// startupSyncDelay gives GUILD_CREATE events time to fill the session state
// before the first full sync reads it.
const startupSyncDelay = 15 * time.Second

// cronLogger routes cron's own logging into zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

// newScheduler builds the cron runner for sync.schedule.
func newScheduler(schedule string, job func()) (*cron.Cron, error) {
	logger := cronLogger{log: utils.L().Sugar().Named("cron")}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)
	if _, err := c.AddFunc(schedule, job); err != nil {
		return nil, fmt.Errorf("could not set up sync job %q: %w", schedule, err)
	}
	return c, nil
}

// startScheduler starts the cron jobs.
func (b *Bot) startScheduler() error {
	schedule := b.Config.Sync.Schedule
	c, err := newScheduler(schedule, func() {
		utils.L().Info("running scheduled sync")
		b.runSync("scheduled")
	})
	if err != nil {
		return err
	}
	b.cron = c
	b.cron.Start()
	utils.L().Info("sync job scheduled", zap.String("schedule", schedule))

	// Perform an initial sync on startup based on config.
	if b.Config.Bot.SyncAtStartup {
		time.AfterFunc(startupSyncDelay, func() {
			if b.ctx.Err() != nil {
				return
			}
			utils.L().Info("performing initial sync on startup")
			b.runSync("startup")
		})
	} else {
		utils.L().Info("skipping initial sync on startup as per configuration")
	}
	return nil
}

func (b *Bot) runSync(trigger string) {
	_, err := b.SyncNow(scanner.AllPasses())
	switch {
	case errors.Is(err, scanner.ErrSyncInProgress):
		utils.L().Warn("sync skipped, another run is in progress", zap.String("trigger", trigger))
	case err != nil:
		utils.L().Error("sync failed", zap.String("trigger", trigger), zap.Error(err))
	}
}

// stopScheduler stops the cron jobs and waits for a running job to return.
func (b *Bot) stopScheduler() {
	if b.cron != nil {
		<-b.cron.Stop().Done()
		utils.L().Info("scheduler stopped")
	}
}
