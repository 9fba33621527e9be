package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"guild-mirror/apperrors"
	"guild-mirror/bot"
	"guild-mirror/command"
	"guild-mirror/models"
	"guild-mirror/scanner"
	"guild-mirror/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// syncOptions reads the /db_sync toggles. Omitted options default to true.
func syncOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) scanner.Options {
	out := scanner.AllPasses()
	for _, opt := range opts {
		if opt.Type != discordgo.ApplicationCommandOptionBoolean {
			continue
		}
		v := opt.BoolValue()
		switch opt.Name {
		case command.OptionGuilds:
			out.Guilds = v
		case command.OptionChannels:
			out.Channels = v
		case command.OptionRoles:
			out.Roles = v
		case command.OptionMembers:
			out.Members = v
		case command.OptionSettings:
			out.Settings = v
		}
	}
	return out
}

// HandleDBSync handles the logic for the /db_sync command.
func HandleDBSync(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := syncOptions(i.ApplicationCommandData().Options)

	// Respond to the interaction immediately; a full sync can take a while.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		utils.L().Warn("failed to defer /db_sync response", zap.Error(err))
		return
	}

	// Run the sync in a goroutine.
	go func() {
		status, err := b.SyncNow(opts)
		if _, ferr := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Content: syncReply(status, err),
		}); ferr != nil {
			utils.L().Warn("failed to send /db_sync followup", zap.Error(ferr))
		}
	}()
}

func syncReply(status models.SyncStatus, err error) string {
	switch {
	case errors.Is(err, scanner.ErrSyncInProgress):
		return "⏳ A sync is already running, try again when it has finished."
	case err != nil:
		return fmt.Sprintf("❌ Sync stopped: %v", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Sync `%s` finished in %s.\n", status.RunID, status.FinishedAt.Sub(status.StartedAt).Round(time.Millisecond))
	for _, kind := range models.SyncOrder {
		res, ok := status.Passes[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "**%s**: %s added, %s updated, %s skipped, %s failed\n", kind,
			humanize.Comma(int64(res.Added)),
			humanize.Comma(int64(res.Updated)),
			humanize.Comma(int64(res.Skipped)),
			humanize.Comma(int64(res.Failed)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// HandlePoints handles the logic for the /points command.
func HandlePoints(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		respondEphemeral(s, i, "Points are only kept inside servers.")
		return
	}

	target := i.Member.User
	data := i.ApplicationCommandData()
	for _, opt := range data.Options {
		if opt.Name != command.OptionMember {
			continue
		}
		id, _ := opt.Value.(string)
		if data.Resolved != nil {
			if u, ok := data.Resolved.Users[id]; ok {
				target = u
				continue
			}
		}
		if id != "" {
			target = &discordgo.User{ID: id, Username: id}
		}
	}

	respond(s, i, &discordgo.InteractionResponseData{
		Content: pointsReply(b.Context(), b, i.GuildID, target.ID, target.Username),
	})
}

func pointsReply(ctx context.Context, b *bot.Bot, guildID, memberID, name string) string {
	points, err := b.Stores.Points.GetPoints(ctx, guildID, memberID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return fmt.Sprintf("**%s** has no points yet.", name)
	case err != nil:
		utils.L().Error("failed to read points",
			zap.String("guild", guildID),
			zap.String("member", memberID),
			zap.Error(err))
		return "❌ Could not read points right now."
	}
	return fmt.Sprintf("**%s** has %s points.", name, humanize.Comma(points))
}

// HandlePing handles the logic for the /ping command.
func HandlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respond(s, i, &discordgo.InteractionResponseData{Content: "Pong!"})
}
