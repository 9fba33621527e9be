package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"guild-mirror/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// guildWaiter tracks which guilds announced in READY have arrived.
type guildWaiter struct {
	mu      sync.Mutex
	ready   bool
	pending map[string]bool
	done    chan struct{}
	closed  bool
}

func newGuildWaiter() *guildWaiter {
	return &guildWaiter{pending: make(map[string]bool), done: make(chan struct{})}
}

func (w *guildWaiter) onReady(guilds []*discordgo.Guild) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ready = true
	for _, g := range guilds {
		w.pending[g.ID] = true
	}
	w.check()
}

func (w *guildWaiter) onGuild(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.pending, id)
	w.check()
}

func (w *guildWaiter) check() {
	if w.ready && len(w.pending) == 0 && !w.closed {
		w.closed = true
		close(w.done)
	}
}

// OpenAndWait opens the session and blocks until every guild listed in
// READY has been delivered, ctx is done or timeout passes. Only a failure to
// connect is an error; a timeout syncs what has arrived so far.
func (b *Bot) OpenAndWait(ctx context.Context, timeout time.Duration) error {
	w := newGuildWaiter()
	removeReady := b.Session.AddHandlerOnce(func(s *discordgo.Session, r *discordgo.Ready) {
		w.onReady(r.Guilds)
	})
	removeGuild := b.Session.AddHandler(func(s *discordgo.Session, g *discordgo.GuildCreate) {
		w.onGuild(g.ID)
	})
	defer removeReady()
	defer removeGuild()

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-w.done:
	case <-timer.C:
		utils.L().Warn("not every guild arrived before the timeout", zap.Duration("timeout", timeout))
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
