package handlers

import (
	"context"
	"errors"
	"strings"

	"guild-mirror/apperrors"
	"guild-mirror/bot"
	"guild-mirror/database"
	"guild-mirror/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// MessageCreate credits the author one point per word and answers the prefix
// commands.
func MessageCreate(b *bot.Bot) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		// Ignore bots, including ourselves, and direct messages.
		if m.Author == nil || m.Author.Bot || m.GuildID == "" {
			return
		}

		if err := creditMessage(b.Context(), b, m.GuildID, m.Author.ID, m.Content); err != nil {
			utils.L().Error("failed to add message points",
				zap.String("guild", m.GuildID),
				zap.String("member", m.Author.ID),
				zap.Error(err))
		}

		prefix := b.Config.Bot.Prefix
		if prefix == "" {
			prefix = "!" // Default prefix
		}
		if strings.HasPrefix(m.Content, prefix) {
			if reply := prefixCommand(b.Context(), b, m.GuildID, m.Author, strings.TrimPrefix(m.Content, prefix)); reply != "" {
				if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
					utils.L().Warn("failed to answer prefix command", zap.Error(err))
				}
			}
		}
	}
}

// creditMessage adds the message's word count. Members that predate the
// ledger get their row on first activity.
func creditMessage(ctx context.Context, b *bot.Bot, guildID, memberID, content string) error {
	amount := database.WordCount(content)
	err := b.Stores.Points.AddPoints(ctx, guildID, memberID, amount)
	if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	if err := b.Stores.Points.AddMemberToLedger(ctx, guildID, memberID); err != nil && !errors.Is(err, apperrors.ErrAlreadyExists) {
		return err
	}
	return b.Stores.Points.AddPoints(ctx, guildID, memberID, amount)
}

func prefixCommand(ctx context.Context, b *bot.Bot, guildID string, author *discordgo.User, command string) string {
	switch strings.TrimSpace(command) {
	case "ping":
		return "Pong!"
	case "pong":
		return "Ping!"
	case "points":
		return pointsReply(ctx, b, guildID, author.ID, author.Username)
	}
	return ""
}

// MessageDelete takes back the points a deleted message earned. Only messages
// still in the session's message cache can be counted.
func MessageDelete(b *bot.Bot) func(s *discordgo.Session, m *discordgo.MessageDelete) {
	return func(s *discordgo.Session, m *discordgo.MessageDelete) {
		before := m.BeforeDelete
		if before == nil || before.Author == nil || before.Author.Bot || m.GuildID == "" {
			return
		}
		if err := debitMessage(b.Context(), b, m.GuildID, before.Author.ID, before.Content); err != nil {
			utils.L().Error("failed to remove message points",
				zap.String("guild", m.GuildID),
				zap.String("member", before.Author.ID),
				zap.Error(err))
		}
	}
}

func debitMessage(ctx context.Context, b *bot.Bot, guildID, memberID, content string) error {
	err := b.Stores.Points.RemovePoints(ctx, guildID, memberID, database.WordCount(content))
	if errors.Is(err, apperrors.ErrNotFound) {
		// The member left and took the ledger row with them.
		return nil
	}
	return err
}
