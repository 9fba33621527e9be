package bot

import (
	"context"
	"fmt"

	"guild-mirror/command"
	"guild-mirror/database"
	"guild-mirror/models"
	"guild-mirror/scanner"
	"guild-mirror/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Bot encapsulates the bot's state and the stores its handlers write to.
type Bot struct {
	Session *discordgo.Session
	Config  *models.AppConfig
	Stores  *database.Stores
	Scanner *scanner.Scanner
	Auth    *utils.Auth

	ctx    context.Context
	cancel context.CancelFunc
	cron   *cron.Cron
}

// New wires a bot around already opened stores. The session is not created;
// tests use the result directly and NewBot adds the session.
func New(cfg *models.AppConfig, stores *database.Stores, sc *scanner.Scanner) *Bot {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		Config:  cfg,
		Stores:  stores,
		Scanner: sc,
		Auth:    utils.NewAuth(cfg.Commands),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// NewBot creates and initializes a new Bot instance with a Discord session.
func NewBot(cfg *models.AppConfig, stores *database.Stores, sc *scanner.Scanner) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("no bot token provided")
	}

	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	// MessageDelete only carries ids; the cached copy supplies the content.
	dg.State.MaxMessageCount = cfg.Bot.MessageCacheLimit
	dg.State.TrackMembers = true
	dg.State.TrackRoles = true
	dg.State.TrackChannels = true

	b := New(cfg, stores, sc)
	b.Session = dg
	return b, nil
}

// Context is cancelled when the bot stops.
func (b *Bot) Context() context.Context {
	return b.ctx
}

// BotID is the id of the logged in user, or "" before Ready.
func (b *Bot) BotID() string {
	if b.Session == nil || b.Session.State == nil || b.Session.State.User == nil {
		return ""
	}
	return b.Session.State.User.ID
}

// SyncNow runs a full sync over the current session state. Guilds whose
// member list was not fully cached are listed over REST first.
func (b *Bot) SyncNow(opts scanner.Options) (models.SyncStatus, error) {
	snap := scanner.FromState(b.Session.State)
	if opts.Members {
		for guildID, err := range scanner.FillMembers(&snap, b.Session.State, b.Session) {
			utils.L().Warn("syncing cached members only",
				zap.String("guild", guildID),
				zap.Error(err))
		}
	}
	return b.Scanner.Sync(b.ctx, snap, opts)
}

// Start registers handlers, opens the session, publishes the slash commands
// and starts the scheduler.
func (b *Bot) Start(registerHandlers func(*Bot)) error {
	registerHandlers(b)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	utils.AttachSession(b.Session, b.Config.Bot.AdminChannelID)

	if _, err := b.Session.ApplicationCommandBulkOverwrite(b.BotID(), "", command.GetCommandDefinitions()); err != nil {
		utils.L().Error("cannot register slash commands", zap.Error(err))
	}

	if err := b.startScheduler(); err != nil {
		b.Session.Close()
		return err
	}

	utils.L().Info("bot is now running", zap.String("bot_id", b.BotID()))
	return nil
}

// Stop gracefully closes the bot's session.
func (b *Bot) Stop() {
	b.cancel()
	b.stopScheduler()
	if b.Session != nil {
		b.Session.Close()
	}
	utils.L().Info("bot stopped gracefully")
}
