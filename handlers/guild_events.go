package handlers

import (
	"context"
	"time"

	"guild-mirror/bot"
	"guild-mirror/models"
	"guild-mirror/scanner"
	"guild-mirror/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// GuildCreate mirrors a guild as soon as it becomes available, including its
// channels, roles, members and default settings.
func GuildCreate(b *bot.Bot) func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(s *discordgo.Session, g *discordgo.GuildCreate) {
		if g.Guild == nil || g.Unavailable {
			return
		}
		if err := syncGuild(b.Context(), b, s, b.BotID(), g.Guild); err != nil {
			utils.L().Error("failed to mirror guild", zap.String("guild", g.ID), zap.Error(err))
		}
	}
}

func syncGuild(ctx context.Context, b *bot.Bot, s *discordgo.Session, botID string, g *discordgo.Guild) error {
	results, err := b.Scanner.SyncGuild(ctx, botID, lockedGuildSnapshot(s, g))
	for kind, res := range results {
		if res.Failed > 0 {
			utils.L().Warn("guild mirrored with failures",
				zap.String("guild", g.ID),
				zap.String("kind", string(kind)),
				zap.Int("failed", res.Failed))
		}
	}
	return err
}

// lockedGuildSnapshot converts g under the state read lock. The event guild
// is the same pointer the state cache keeps mutating.
func lockedGuildSnapshot(s *discordgo.Session, g *discordgo.Guild) models.GuildSnapshot {
	if s != nil && s.State != nil {
		s.State.RLock()
		defer s.State.RUnlock()
	}
	return scanner.GuildSnapshot(g)
}

// GuildUpdate refreshes the guild row only. Channel, role and member changes
// arrive as their own events.
func GuildUpdate(b *bot.Bot) func(s *discordgo.Session, g *discordgo.GuildUpdate) {
	return func(s *discordgo.Session, g *discordgo.GuildUpdate) {
		if g.Guild == nil {
			return
		}
		if err := upsertGuild(b.Context(), b, g.Guild); err != nil {
			utils.L().Error("failed to update guild", zap.String("guild", g.ID), zap.Error(err))
		}
	}
}

func upsertGuild(ctx context.Context, b *bot.Bot, g *discordgo.Guild) error {
	guild := scanner.Guild(g)
	guild.IsTest = b.Scanner.IsTestGuild(guild.ID)
	_, err := b.Stores.UpsertGuild(ctx, guild, time.Now())
	return err
}

// GuildDelete drops a guild the bot left or was removed from. An outage also
// sends GUILD_DELETE, flagged unavailable; those rows are kept.
func GuildDelete(b *bot.Bot) func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(s *discordgo.Session, g *discordgo.GuildDelete) {
		if g.Guild == nil || g.Unavailable {
			return
		}
		if err := b.Stores.DeleteGuild(b.Context(), g.ID); err != nil {
			utils.L().Error("failed to delete guild", zap.String("guild", g.ID), zap.Error(err))
			return
		}
		utils.Info("handlers", "guild delete", "removed guild "+g.ID+" from the mirror")
	}
}

// ChannelCreate mirrors a new guild channel.
func ChannelCreate(b *bot.Bot) func(s *discordgo.Session, c *discordgo.ChannelCreate) {
	return func(s *discordgo.Session, c *discordgo.ChannelCreate) {
		onChannelChange(b, s, c.Channel)
	}
}

// ChannelUpdate refreshes a guild channel.
func ChannelUpdate(b *bot.Bot) func(s *discordgo.Session, c *discordgo.ChannelUpdate) {
	return func(s *discordgo.Session, c *discordgo.ChannelUpdate) {
		onChannelChange(b, s, c.Channel)
	}
}

func onChannelChange(b *bot.Bot, s *discordgo.Session, ch *discordgo.Channel) {
	if !isGuildChannel(ch) {
		return
	}
	var parent *discordgo.Channel
	if ch.ParentID != "" {
		parent, _ = s.State.Channel(ch.ParentID)
	}
	if err := upsertChannel(b.Context(), b, ch, parent); err != nil {
		utils.L().Error("failed to mirror channel",
			zap.String("guild", ch.GuildID),
			zap.String("channel", ch.ID),
			zap.Error(err))
	}
}

func upsertChannel(ctx context.Context, b *bot.Bot, ch, parent *discordgo.Channel) error {
	_, err := b.Stores.UpsertChannel(ctx, scanner.Channel(ch.GuildID, ch, parent), time.Now())
	return err
}

// ChannelDelete drops a guild channel.
func ChannelDelete(b *bot.Bot) func(s *discordgo.Session, c *discordgo.ChannelDelete) {
	return func(s *discordgo.Session, c *discordgo.ChannelDelete) {
		if !isGuildChannel(c.Channel) {
			return
		}
		if err := b.Stores.DeleteChannel(b.Context(), c.GuildID, c.ID); err != nil {
			utils.L().Error("failed to delete channel",
				zap.String("guild", c.GuildID),
				zap.String("channel", c.ID),
				zap.Error(err))
		}
	}
}

// isGuildChannel filters out DMs and threads, which are not mirrored.
func isGuildChannel(ch *discordgo.Channel) bool {
	return ch != nil && ch.GuildID != "" && !ch.IsThread()
}

// RoleCreate mirrors a new role.
func RoleCreate(b *bot.Bot) func(s *discordgo.Session, r *discordgo.GuildRoleCreate) {
	return func(s *discordgo.Session, r *discordgo.GuildRoleCreate) {
		onRoleChange(b, r.GuildRole)
	}
}

// RoleUpdate refreshes a role.
func RoleUpdate(b *bot.Bot) func(s *discordgo.Session, r *discordgo.GuildRoleUpdate) {
	return func(s *discordgo.Session, r *discordgo.GuildRoleUpdate) {
		onRoleChange(b, r.GuildRole)
	}
}

func onRoleChange(b *bot.Bot, gr *discordgo.GuildRole) {
	if gr == nil || gr.Role == nil {
		return
	}
	if _, err := b.Stores.UpsertRole(b.Context(), scanner.Role(gr.GuildID, gr.Role), time.Now()); err != nil {
		utils.L().Error("failed to mirror role",
			zap.String("guild", gr.GuildID),
			zap.String("role", gr.Role.ID),
			zap.Error(err))
	}
}

// RoleDelete drops a role.
func RoleDelete(b *bot.Bot) func(s *discordgo.Session, r *discordgo.GuildRoleDelete) {
	return func(s *discordgo.Session, r *discordgo.GuildRoleDelete) {
		if err := b.Stores.DeleteRole(b.Context(), r.GuildID, r.RoleID); err != nil {
			utils.L().Error("failed to delete role",
				zap.String("guild", r.GuildID),
				zap.String("role", r.RoleID),
				zap.Error(err))
		}
	}
}
