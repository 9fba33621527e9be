package handlers

import (
	"guild-mirror/bot"

	"github.com/bwmarrin/discordgo"
)

// InteractionCreate routes slash commands issued inside a guild. Commands
// from DMs carry no member and cannot be authorised, so they are refused.
func InteractionCreate(b *bot.Bot) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		if i.GuildID == "" || i.Member == nil {
			respondEphemeral(s, i, "This bot only answers commands inside a server.")
			return
		}
		CommandDispatcher(b, s, i)
	}
}
