package handlers

import (
	"guild-mirror/bot"
	"guild-mirror/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Register all handlers to the bot.
func Register(b *bot.Bot) {
	s := b.Session

	s.AddHandler(InteractionCreate(b))

	s.AddHandler(GuildCreate(b))
	s.AddHandler(GuildUpdate(b))
	s.AddHandler(GuildDelete(b))
	s.AddHandler(ChannelCreate(b))
	s.AddHandler(ChannelUpdate(b))
	s.AddHandler(ChannelDelete(b))
	s.AddHandler(RoleCreate(b))
	s.AddHandler(RoleUpdate(b))
	s.AddHandler(RoleDelete(b))

	s.AddHandler(MemberAddHandler(b))
	s.AddHandler(MemberUpdateHandler(b))
	s.AddHandler(MemberRemoveHandler(b))

	s.AddHandler(MessageCreate(b))
	s.AddHandler(MessageDelete(b))

	// Add a ready handler to log when the bot is connected.
	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		utils.L().Info("logged in",
			zap.String("user", r.User.Username),
			zap.String("user_id", r.User.ID),
			zap.Int("guilds", len(r.Guilds)))
	})
}
