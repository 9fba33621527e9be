package scanner

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"guild-mirror/models"

	"github.com/bwmarrin/discordgo"
)

// everyoneRole is what a member without roles reports as top role.
const everyoneRole = "@everyone"

// FromState captures everything the session state currently knows about.
func FromState(state *discordgo.State) models.Snapshot {
	state.RLock()
	defer state.RUnlock()

	var botID string
	if state.User != nil {
		botID = state.User.ID
	}
	return FromGuilds(botID, state.Guilds)
}

// FromGuilds converts the given guilds into a snapshot.
func FromGuilds(botID string, guilds []*discordgo.Guild) models.Snapshot {
	snap := models.Snapshot{BotID: botID}
	for _, g := range guilds {
		if g == nil || g.Unavailable {
			continue
		}
		snap.Guilds = append(snap.Guilds, GuildSnapshot(g))
	}
	return snap
}

// GuildSnapshot converts one guild together with its channels, roles and
// members.
func GuildSnapshot(g *discordgo.Guild) models.GuildSnapshot {
	gs := models.GuildSnapshot{Guild: Guild(g)}

	channels := make(map[string]*discordgo.Channel, len(g.Channels))
	for _, ch := range g.Channels {
		channels[ch.ID] = ch
	}
	for _, ch := range g.Channels {
		gs.Channels = append(gs.Channels, Channel(g.ID, ch, channels[ch.ParentID]))
	}

	for _, r := range g.Roles {
		gs.Roles = append(gs.Roles, Role(g.ID, r))
	}

	roles := RoleIndex(g.Roles)
	for _, m := range g.Members {
		if m.User == nil {
			continue
		}
		gs.Members = append(gs.Members, Member(g.ID, m, roles))
	}
	return gs
}

// Guild converts the platform guild. Premium and test flags are not taken from
// the platform.
func Guild(g *discordgo.Guild) models.Guild {
	return models.Guild{
		ID:          g.ID,
		Name:        g.Name,
		Icon:        g.Icon,
		MemberCount: g.MemberCount,
		NSFWLevel:   int(g.NSFWLevel),
		Locale:      g.PreferredLocale,
		CreatedAt:   snowflakeTime(g.ID),
	}
}

// Channel converts ch. parent is the category ch sits in, or nil. Channels
// nested in a GUILD_CREATE payload may come without their guild id.
func Channel(guildID string, ch *discordgo.Channel, parent *discordgo.Channel) models.Channel {
	if ch.GuildID != "" {
		guildID = ch.GuildID
	}
	c := models.Channel{
		ID:         ch.ID,
		GuildID:    guildID,
		Name:       ch.Name,
		Category:   models.NoCategory,
		Position:   ch.Position,
		Mention:    fmt.Sprintf("<#%s>", ch.ID),
		JumpURL:    fmt.Sprintf("https://discord.com/channels/%s/%s", guildID, ch.ID),
		Overwrites: overwritesJSON(ch.PermissionOverwrites),
		CreatedAt:  snowflakeTime(ch.ID),
	}
	if parent != nil {
		c.Category = parent.Name
		c.PermissionsSynced = sameOverwrites(ch.PermissionOverwrites, parent.PermissionOverwrites)
	}
	return c
}

// Role converts r. Roles do not carry their guild on the wire.
func Role(guildID string, r *discordgo.Role) models.Role {
	return models.Role{
		ID:          r.ID,
		GuildID:     guildID,
		Name:        r.Name,
		Position:    r.Position,
		Color:       fmt.Sprintf("#%06x", r.Color),
		Hoisted:     r.Hoist,
		Mentionable: r.Mentionable,
		Managed:     r.Managed,
		Permissions: strconv.FormatInt(r.Permissions, 10),
		CreatedAt:   snowflakeTime(r.ID),
	}
}

// RoleIndex maps role ids to roles for TopRole lookups.
func RoleIndex(roles []*discordgo.Role) map[string]*discordgo.Role {
	idx := make(map[string]*discordgo.Role, len(roles))
	for _, r := range roles {
		idx[r.ID] = r
	}
	return idx
}

// Member converts m. roles resolves the member's role ids.
func Member(guildID string, m *discordgo.Member, roles map[string]*discordgo.Role) models.Member {
	if m.GuildID != "" {
		guildID = m.GuildID
	}
	return models.Member{
		GuildID:     guildID,
		ID:          m.User.ID,
		Name:        m.User.Username,
		DisplayName: displayName(m),
		Nickname:    m.Nick,
		Avatar:      m.AvatarURL(""),
		TopRole:     TopRole(m.Roles, roles),
		JoinedAt:    m.JoinedAt,
		CreatedAt:   snowflakeTime(m.User.ID),
	}
}

// TopRole returns the name of the highest positioned role among ids.
func TopRole(ids []string, roles map[string]*discordgo.Role) string {
	var top *discordgo.Role
	for _, id := range ids {
		r, ok := roles[id]
		if !ok {
			continue
		}
		if top == nil || r.Position > top.Position {
			top = r
		}
	}
	if top == nil {
		return everyoneRole
	}
	return top.Name
}

func displayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}

func snowflakeTime(id string) time.Time {
	ts, err := discordgo.SnowflakeTimestamp(id)
	if err != nil {
		return time.Now().UTC()
	}
	return ts.UTC()
}

func overwritesJSON(ows []*discordgo.PermissionOverwrite) string {
	if len(ows) == 0 {
		return "[]"
	}
	data, err := json.Marshal(ows)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// sameOverwrites compares overwrites regardless of order.
func sameOverwrites(a, b []*discordgo.PermissionOverwrite) bool {
	if len(a) != len(b) {
		return false
	}
	key := func(o *discordgo.PermissionOverwrite) string {
		return fmt.Sprintf("%s:%d:%d:%d", o.ID, o.Type, o.Allow, o.Deny)
	}
	ka := make([]string, len(a))
	kb := make([]string, len(b))
	for i := range a {
		ka[i] = key(a[i])
		kb[i] = key(b[i])
	}
	sort.Strings(ka)
	sort.Strings(kb)
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}
