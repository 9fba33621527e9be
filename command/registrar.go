package command

import "github.com/bwmarrin/discordgo"

// Command is an application command the bot registers at startup.
type Command interface {
	Definition() *discordgo.ApplicationCommand
}

// registry lists the commands in registration order.
var registry = []Command{
	&DBSyncCommand{},
	&PointsCommand{},
	&PingCommand{},
}

// GetCommandDefinitions returns the definitions passed to
// ApplicationCommandBulkOverwrite.
func GetCommandDefinitions() []*discordgo.ApplicationCommand {
	defs := make([]*discordgo.ApplicationCommand, 0, len(registry))
	for _, c := range registry {
		defs = append(defs, c.Definition())
	}
	return defs
}

// Names returns the registered command names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, c := range registry {
		names = append(names, c.Definition().Name)
	}
	return names
}
