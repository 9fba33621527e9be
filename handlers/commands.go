package handlers

import (
	"guild-mirror/bot"
	"guild-mirror/command"
	"guild-mirror/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// commandPermissions maps every slash command to the level it requires.
var commandPermissions = map[string]string{
	command.NameDBSync: utils.LevelAdmin,
	command.NamePoints: utils.LevelGuest,
	command.NamePing:   utils.LevelGuest,
}

// CommandDispatcher is the central handler for all application command interactions.
// It performs permission checks and then dispatches the interaction to the appropriate handler.
func CommandDispatcher(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	commandName := i.ApplicationCommandData().Name

	if !allowed(b.Auth, i.Member, commandName) {
		respondEphemeral(s, i, "🚫 You do not have permission to run this command.")
		return
	}

	switch commandName {
	case command.NameDBSync:
		HandleDBSync(b, s, i)
	case command.NamePoints:
		HandlePoints(b, s, i)
	case command.NamePing:
		HandlePing(s, i)
	default:
		respondEphemeral(s, i, "🚫 Internal error: unknown command.")
	}
}

// allowed reports whether member may run name. Unknown commands pass through
// so the dispatcher can answer them.
func allowed(auth *utils.Auth, member *discordgo.Member, name string) bool {
	level, ok := commandPermissions[name]
	if !ok {
		return true
	}
	return auth.CheckPermission(member, level)
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		utils.L().Warn("failed to respond to interaction", zap.Error(err))
	}
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	respond(s, i, &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}
