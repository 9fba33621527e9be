package command

import "github.com/bwmarrin/discordgo"

// Names of the slash commands.
const (
	NameDBSync = "db_sync"
	NamePoints = "points"
	NamePing   = "ping"
)

// Options of /db_sync. Each one toggles a reconciliation pass.
const (
	OptionGuilds   = "guilds"
	OptionChannels = "channels"
	OptionRoles    = "roles"
	OptionMembers  = "members"
	OptionSettings = "settings"
)

// OptionMember is the optional target of /points.
const OptionMember = "member"

var adminPermission int64 = discordgo.PermissionAdministrator

// DBSyncCommand defines the structure for the /db_sync command.
type DBSyncCommand struct{}

// Definition returns the application command definition.
func (c *DBSyncCommand) Definition() *discordgo.ApplicationCommand {
	pass := func(name, what string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Name:        name,
			Description: "Sync " + what + " (default: true)",
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Required:    false,
		}
	}
	return &discordgo.ApplicationCommand{
		Name:                     NameDBSync,
		Description:              "Mirror the current guild state into the database",
		DefaultMemberPermissions: &adminPermission,
		Options: []*discordgo.ApplicationCommandOption{
			pass(OptionGuilds, "guild information"),
			pass(OptionChannels, "channels"),
			pass(OptionRoles, "roles"),
			pass(OptionMembers, "members"),
			pass(OptionSettings, "default bot settings"),
		},
	}
}

// PointsCommand defines the structure for the /points command.
type PointsCommand struct{}

// Definition returns the application command definition.
func (c *PointsCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        NamePoints,
		Description: "Show a member's message points",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        OptionMember,
				Description: "Whose points to show (default: you)",
				Type:        discordgo.ApplicationCommandOptionUser,
				Required:    false,
			},
		},
	}
}

// PingCommand defines the structure for the /ping command.
type PingCommand struct{}

// Definition returns the application command definition.
func (c *PingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        NamePing,
		Description: "Responds with Pong!",
	}
}
