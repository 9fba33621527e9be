package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guild-mirror/database"
	"guild-mirror/models"
	"guild-mirror/utils"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

// ErrSyncInProgress is returned when Sync is called while another run is
// still going.
var ErrSyncInProgress = errors.New("a sync run is already in progress")

// Options selects which passes a run performs.
type Options struct {
	Guilds   bool
	Channels bool
	Roles    bool
	Members  bool
	Settings bool
}

// AllPasses enables every pass.
func AllPasses() Options {
	return Options{Guilds: true, Channels: true, Roles: true, Members: true, Settings: true}
}

// Enabled reports whether the pass for kind is selected.
func (o Options) Enabled(kind models.SyncKind) bool {
	switch kind {
	case models.KindGuild:
		return o.Guilds
	case models.KindChannel:
		return o.Channels
	case models.KindRole:
		return o.Roles
	case models.KindMember:
		return o.Members
	case models.KindSettings:
		return o.Settings
	}
	return false
}

// Scanner reconciles platform snapshots into the store.
type Scanner struct {
	stores     *database.Stores
	status     *database.StatusManager
	defaults   models.SettingsDefaults
	testGuilds map[string]bool
	now        func() time.Time

	runMu   deadlock.Mutex
	running bool
}

// New creates a scanner writing through stores and recording runs in status.
func New(stores *database.Stores, status *database.StatusManager, syncCfg models.SyncConfig, defaults models.SettingsDefaults) *Scanner {
	testGuilds := make(map[string]bool, len(syncCfg.TestGuilds))
	for _, id := range syncCfg.TestGuilds {
		testGuilds[id] = true
	}
	return &Scanner{
		stores:     stores,
		status:     status,
		defaults:   defaults,
		testGuilds: testGuilds,
		now:        time.Now,
	}
}

// Stores exposes the stores the scanner writes through.
func (sc *Scanner) Stores() *database.Stores {
	return sc.stores
}

// IsTestGuild reports whether guildID is listed under sync.test_guilds.
func (sc *Scanner) IsTestGuild(guildID string) bool {
	return sc.testGuilds[guildID]
}

// DefaultSettings builds the settings row written for a new guild.
func (sc *Scanner) DefaultSettings(guildID, botID string) models.Settings {
	return models.Settings{
		GuildID:    guildID,
		BotID:      botID,
		Admin:      sc.defaults.Admin,
		Logging:    sc.defaults.Logging,
		Moderation: sc.defaults.Moderation,
		AntiSpam:   sc.defaults.AntiSpam,
		Fun:        sc.defaults.Fun,
	}
}

func (sc *Scanner) tryBegin() bool {
	sc.runMu.Lock()
	defer sc.runMu.Unlock()
	if sc.running {
		return false
	}
	sc.running = true
	return true
}

func (sc *Scanner) end() {
	sc.runMu.Lock()
	sc.running = false
	sc.runMu.Unlock()
}

// Sync runs the selected passes over snap in the fixed order guilds,
// channels, roles, members, settings. Every row written in the run gets the
// same last_sync. A failing entity is logged and counted, the pass goes on.
func (sc *Scanner) Sync(ctx context.Context, snap models.Snapshot, opts Options) (models.SyncStatus, error) {
	if !sc.tryBegin() {
		return models.SyncStatus{}, ErrSyncInProgress
	}
	defer sc.end()

	runID := uuid.NewString()
	now := sc.now().UTC()
	log := utils.L().With(zap.String("run_id", runID))
	log.Info("starting database sync", zap.Int("guilds", len(snap.Guilds)))
	sc.status.Begin(runID, now)

	runErr := sc.runPasses(ctx, log, snap, opts, now, sc.status.RecordPass)

	if err := sc.status.Save(sc.now()); err != nil {
		log.Warn("failed to save sync status", zap.Error(err))
	}
	status, _ := sc.status.Last()
	if runErr != nil {
		utils.Error("scanner", "sync", fmt.Sprintf("sync run %s stopped: %v", runID, runErr))
		return status, runErr
	}
	utils.Info("scanner", "sync", fmt.Sprintf("sync run %s finished: %s", runID, summarize(status)))
	return status, nil
}

// SyncGuild reconciles one guild outside of a full run, for guilds that
// appear or come back while the bot is connected. It does not wait for or
// block a running Sync and is not recorded in the status file.
func (sc *Scanner) SyncGuild(ctx context.Context, botID string, gs models.GuildSnapshot) (map[models.SyncKind]models.PassResult, error) {
	log := utils.L().With(zap.String("guild", gs.Guild.ID))
	results := make(map[models.SyncKind]models.PassResult, len(models.SyncOrder))
	snap := models.Snapshot{BotID: botID, Guilds: []models.GuildSnapshot{gs}}
	err := sc.runPasses(ctx, log, snap, AllPasses(), sc.now().UTC(), func(res models.PassResult) {
		results[res.Kind] = res
	})
	return results, err
}

func (sc *Scanner) runPasses(ctx context.Context, log *zap.Logger, snap models.Snapshot, opts Options, now time.Time, record func(models.PassResult)) error {
	for _, kind := range models.SyncOrder {
		if !opts.Enabled(kind) {
			continue
		}
		res, err := sc.pass(ctx, log, kind, snap, now)
		record(res)
		log.Info("sync pass finished",
			zap.String("kind", string(kind)),
			zap.Int("added", res.Added),
			zap.Int("updated", res.Updated),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed))
		if err != nil {
			return fmt.Errorf("%s pass aborted: %w", kind, err)
		}
	}
	return nil
}

func (sc *Scanner) pass(ctx context.Context, log *zap.Logger, kind models.SyncKind, snap models.Snapshot, now time.Time) (models.PassResult, error) {
	st := sc.stores
	switch kind {
	case models.KindGuild:
		items := make([]entry[models.Guild], 0, len(snap.Guilds))
		for _, gs := range snap.Guilds {
			g := gs.Guild
			g.IsTest = sc.IsTestGuild(g.ID)
			items = append(items, entry[models.Guild]{guildID: g.ID, entity: g})
		}
		return reconcile(ctx, log, kind, items, st.Guilds, func(ctx context.Context, g models.Guild) (database.Outcome, error) {
			return st.UpsertGuild(ctx, g, now)
		})

	case models.KindChannel:
		var items []entry[models.Channel]
		for _, gs := range snap.Guilds {
			for _, c := range gs.Channels {
				items = append(items, entry[models.Channel]{guildID: gs.Guild.ID, entity: c})
			}
		}
		return reconcile(ctx, log, kind, items, st.Channels, func(ctx context.Context, c models.Channel) (database.Outcome, error) {
			return st.UpsertChannel(ctx, c, now)
		})

	case models.KindRole:
		var items []entry[models.Role]
		for _, gs := range snap.Guilds {
			for _, r := range gs.Roles {
				items = append(items, entry[models.Role]{guildID: gs.Guild.ID, entity: r})
			}
		}
		return reconcile(ctx, log, kind, items, st.Roles, func(ctx context.Context, r models.Role) (database.Outcome, error) {
			return st.UpsertRole(ctx, r, now)
		})

	case models.KindMember:
		var items []entry[models.Member]
		for _, gs := range snap.Guilds {
			for _, m := range gs.Members {
				items = append(items, entry[models.Member]{guildID: gs.Guild.ID, entity: m})
			}
		}
		return reconcile(ctx, log, kind, items, st.Members, func(ctx context.Context, m models.Member) (database.Outcome, error) {
			return st.UpsertMember(ctx, m, now)
		})

	case models.KindSettings:
		items := make([]entry[models.Settings], 0, len(snap.Guilds))
		for _, gs := range snap.Guilds {
			items = append(items, entry[models.Settings]{
				guildID: gs.Guild.ID,
				entity:  sc.DefaultSettings(gs.Guild.ID, snap.BotID),
			})
		}
		return reconcile(ctx, log, kind, items, st.Settings, func(ctx context.Context, s models.Settings) (database.Outcome, error) {
			return st.EnsureSettings(ctx, s, now)
		})
	}
	return models.PassResult{Kind: kind}, fmt.Errorf("unknown sync kind %q", kind)
}

type entry[T any] struct {
	guildID string
	entity  T
}

// keyer is the part of a store reconcile needs to name an entity in logs.
type keyer[T any] interface {
	Table() string
	Key(e T) []database.Column
}

// reconcile writes every entry and counts the outcomes. It only stops early
// when ctx is done.
func reconcile[T any](ctx context.Context, log *zap.Logger, kind models.SyncKind, items []entry[T], k keyer[T], write func(context.Context, T) (database.Outcome, error)) (models.PassResult, error) {
	res := models.PassResult{Kind: kind}
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		outcome, err := write(ctx, it.entity)
		switch outcome {
		case database.OutcomeAdded:
			res.Added++
		case database.OutcomeUpdated:
			res.Updated++
		case database.OutcomeSkipped:
			res.Skipped++
		default:
			res.Failed++
			log.Error("failed to sync entity",
				zap.String("kind", string(kind)),
				zap.String("key", database.LockKey(k.Table(), k.Key(it.entity))),
				zap.String("guild", it.guildID),
				zap.Error(err))
		}
	}
	return res, nil
}

func summarize(status models.SyncStatus) string {
	var added, updated, skipped, failed int
	for _, p := range status.Passes {
		added += p.Added
		updated += p.Updated
		skipped += p.Skipped
		failed += p.Failed
	}
	return fmt.Sprintf("%d added, %d updated, %d skipped, %d failed", added, updated, skipped, failed)
}
