package scanner

import (
	"encoding/json"
	"testing"
	"time"

	"guild-mirror/models"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 175928847299117063 is the snowflake used in the platform docs.
const docSnowflake = "175928847299117063"

func TestChannel_WithoutCategory(t *testing.T) {
	ch := &discordgo.Channel{ID: docSnowflake, GuildID: "41771983423143937", Name: "general", Position: 3}

	got := Channel("", ch, nil)
	assert.Equal(t, models.NoCategory, got.Category)
	assert.Equal(t, "<#175928847299117063>", got.Mention)
	assert.Equal(t, "https://discord.com/channels/41771983423143937/175928847299117063", got.JumpURL)
	assert.Equal(t, "[]", got.Overwrites)
	assert.False(t, got.PermissionsSynced)
	assert.Equal(t, 3, got.Position)
	assert.True(t, got.CreatedAt.Equal(time.Date(2016, 4, 30, 11, 18, 25, 796000000, time.UTC)))
}

func TestChannel_PermissionsSyncedWithParent(t *testing.T) {
	ows := []*discordgo.PermissionOverwrite{
		{ID: "1", Type: discordgo.PermissionOverwriteTypeRole, Allow: 1024},
		{ID: "2", Type: discordgo.PermissionOverwriteTypeMember, Deny: 2048},
	}
	parent := &discordgo.Channel{ID: "10", Name: "Text Channels", PermissionOverwrites: ows}

	synced := &discordgo.Channel{ID: "11", ParentID: "10", Name: "a",
		PermissionOverwrites: []*discordgo.PermissionOverwrite{ows[1], ows[0]}}
	got := Channel("G1", synced, parent)
	assert.Equal(t, "Text Channels", got.Category)
	assert.Equal(t, "G1", got.GuildID)
	assert.True(t, got.PermissionsSynced)

	var decoded []discordgo.PermissionOverwrite
	require.NoError(t, json.Unmarshal([]byte(got.Overwrites), &decoded))
	assert.Len(t, decoded, 2)

	drifted := &discordgo.Channel{ID: "12", ParentID: "10", Name: "b",
		PermissionOverwrites: []*discordgo.PermissionOverwrite{ows[0]}}
	assert.False(t, Channel("G1", drifted, parent).PermissionsSynced)
}

func TestRole(t *testing.T) {
	r := &discordgo.Role{ID: "5", Name: "mods", Color: 0x1abc9c, Position: 4, Hoist: true, Permissions: 8}

	got := Role("G1", r)
	assert.Equal(t, "G1", got.GuildID)
	assert.Equal(t, "#1abc9c", got.Color)
	assert.Equal(t, "8", got.Permissions)
	assert.True(t, got.Hoisted)
	assert.Equal(t, "#000000", Role("G1", &discordgo.Role{ID: "6"}).Color)
}

func TestMember(t *testing.T) {
	roles := RoleIndex([]*discordgo.Role{
		{ID: "r1", Name: "member", Position: 1},
		{ID: "r2", Name: "admin", Position: 9},
	})
	joined := time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC)

	m := &discordgo.Member{
		User:     &discordgo.User{ID: docSnowflake, Username: "alice", GlobalName: "Alice"},
		Roles:    []string{"r1", "r2", "gone"},
		JoinedAt: joined,
	}
	got := Member("G1", m, roles)
	assert.Equal(t, "G1", got.GuildID)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, "admin", got.TopRole)
	assert.Equal(t, joined, got.JoinedAt)

	m.Nick = "ally"
	m.Roles = nil
	got = Member("G1", m, roles)
	assert.Equal(t, "ally", got.DisplayName)
	assert.Equal(t, "ally", got.Nickname)
	assert.Equal(t, "@everyone", got.TopRole)
}

func TestFromGuilds(t *testing.T) {
	g := &discordgo.Guild{
		ID:              "41771983423143937",
		Name:            "Alpha",
		MemberCount:     2,
		PreferredLocale: "en-US",
		Channels: []*discordgo.Channel{
			{ID: "c0", Name: "Info", Type: discordgo.ChannelTypeGuildCategory},
			{ID: "c1", Name: "rules", ParentID: "c0"},
		},
		Roles: []*discordgo.Role{{ID: "41771983423143937", Name: "@everyone"}},
		Members: []*discordgo.Member{
			{User: &discordgo.User{ID: "u1", Username: "alice"}},
			{},
		},
	}
	snap := FromGuilds("B1", []*discordgo.Guild{g, {ID: "down", Unavailable: true}})

	require.Len(t, snap.Guilds, 1)
	gs := snap.Guilds[0]
	assert.Equal(t, "B1", snap.BotID)
	assert.Equal(t, "Alpha", gs.Guild.Name)
	assert.Equal(t, "en-US", gs.Guild.Locale)
	assert.False(t, gs.Guild.IsPremium)
	require.Len(t, gs.Channels, 2)
	assert.Equal(t, "Info", gs.Channels[1].Category)
	assert.Equal(t, g.ID, gs.Channels[1].GuildID)
	assert.Len(t, gs.Roles, 1)
	assert.Len(t, gs.Members, 1)
}
