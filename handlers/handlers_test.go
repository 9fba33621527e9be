package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"guild-mirror/apperrors"
	"guild-mirror/bot"
	"guild-mirror/command"
	"guild-mirror/database"
	"guild-mirror/models"
	"guild-mirror/scanner"
	"guild-mirror/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBot(t *testing.T) *bot.Bot {
	t.Helper()
	dir := t.TempDir()
	sv, err := database.Open(models.DatabaseConfig{Driver: "sqlite3", DSN: filepath.Join(dir, "mirror.db")})
	require.NoError(t, err)
	t.Cleanup(func() { sv.Close() })
	require.NoError(t, sv.Migrate(context.Background()))

	cfg := &models.AppConfig{
		Bot: models.BotConfig{Prefix: "!"},
		Commands: models.CommandsConfig{Auth: models.AuthConfig{
			Developers:  []string{"dev"},
			AdminsRoles: []string{"admin-role"},
		}},
	}
	stores := database.NewStores(sv)
	sc := scanner.New(stores, database.NewStatusManager(""), cfg.Sync, models.SettingsDefaults{Admin: true})
	return bot.New(cfg, stores, sc)
}

func testGuild() *discordgo.Guild {
	return &discordgo.Guild{
		ID:          "G1",
		Name:        "Alpha",
		MemberCount: 1,
		Channels: []*discordgo.Channel{
			{ID: "C0", Name: "Text", Type: discordgo.ChannelTypeGuildCategory},
			{ID: "C1", Name: "general", ParentID: "C0", Type: discordgo.ChannelTypeGuildText},
		},
		Roles: []*discordgo.Role{
			{ID: "G1", Name: "@everyone"},
			{ID: "R1", Name: "mods", Position: 3},
		},
		Members: []*discordgo.Member{
			{User: &discordgo.User{ID: "M1", Username: "alice"}, Roles: []string{"R1"}},
		},
	}
}

func TestSyncGuild_MirrorsEverything(t *testing.T) {
	b := createTestBot(t)
	ctx := context.Background()

	require.NoError(t, syncGuild(ctx, b, nil, "B1", testGuild()))

	ch, err := b.Stores.Channels.Get(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, "Text", ch.Category)
	assert.Equal(t, "G1", ch.GuildID)

	m, err := b.Stores.Members.Get(ctx, "G1", "M1")
	require.NoError(t, err)
	assert.Equal(t, "mods", m.TopRole)

	st, err := b.Stores.Settings.Get(ctx, "G1")
	require.NoError(t, err)
	assert.Equal(t, "B1", st.BotID)
}

func TestUpsertGuild_Live(t *testing.T) {
	b := createTestBot(t)
	ctx := context.Background()
	g := testGuild()

	require.NoError(t, upsertGuild(ctx, b, g))
	g.Name = "Beta"
	g.MemberCount = 7
	require.NoError(t, upsertGuild(ctx, b, g))

	got, err := b.Stores.Guilds.Get(ctx, "G1")
	require.NoError(t, err)
	assert.Equal(t, "Beta", got.Name)
	assert.Equal(t, 7, got.MemberCount)
}

func TestUpsertChannel_Live(t *testing.T) {
	b := createTestBot(t)
	ctx := context.Background()
	require.NoError(t, upsertGuild(ctx, b, testGuild()))

	ch := &discordgo.Channel{ID: "C9", GuildID: "G1", Name: "memes"}
	require.NoError(t, upsertChannel(ctx, b, ch, nil))

	got, err := b.Stores.Channels.Get(ctx, "C9")
	require.NoError(t, err)
	assert.Equal(t, models.NoCategory, got.Category)
	assert.Equal(t, "<#C9>", got.Mention)
}

func TestIsGuildChannel(t *testing.T) {
	assert.False(t, isGuildChannel(nil))
	assert.False(t, isGuildChannel(&discordgo.Channel{ID: "dm", Type: discordgo.ChannelTypeDM}))
	assert.False(t, isGuildChannel(&discordgo.Channel{ID: "t", GuildID: "G1", Type: discordgo.ChannelTypeGuildPublicThread}))
	assert.True(t, isGuildChannel(&discordgo.Channel{ID: "c", GuildID: "G1", Type: discordgo.ChannelTypeGuildText}))
}

func TestMemberJoinAndLeave(t *testing.T) {
	b := createTestBot(t)
	ctx := context.Background()
	require.NoError(t, upsertGuild(ctx, b, testGuild()))

	m := &discordgo.Member{GuildID: "G1", User: &discordgo.User{ID: "M2", Username: "bob"}}
	require.NoError(t, memberJoined(ctx, b, m, nil))

	points, err := b.Stores.Points.GetPoints(ctx, "G1", "M2")
	require.NoError(t, err)
	assert.Zero(t, points)

	// Joining again keeps the existing balance.
	require.NoError(t, b.Stores.Points.AddPoints(ctx, "G1", "M2", 4))
	require.NoError(t, memberJoined(ctx, b, m, nil))
	points, err = b.Stores.Points.GetPoints(ctx, "G1", "M2")
	require.NoError(t, err)
	assert.Equal(t, int64(4), points)

	require.NoError(t, memberLeft(ctx, b, "G1", "M2"))
	_, err = b.Stores.Members.Get(ctx, "G1", "M2")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	_, err = b.Stores.Points.GetPoints(ctx, "G1", "M2")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestMessagePoints_RoundTrip(t *testing.T) {
	b := createTestBot(t)
	ctx := context.Background()
	require.NoError(t, upsertGuild(ctx, b, testGuild()))
	require.NoError(t, b.Stores.Points.AddMemberToLedger(ctx, "G1", "M1"))

	content := "one two three four five"
	require.NoError(t, creditMessage(ctx, b, "G1", "M1", content))
	points, err := b.Stores.Points.GetPoints(ctx, "G1", "M1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), points)

	require.NoError(t, debitMessage(ctx, b, "G1", "M1", content))
	points, err = b.Stores.Points.GetPoints(ctx, "G1", "M1")
	require.NoError(t, err)
	assert.Zero(t, points)
}

func TestCreditMessage_OpensLedgerRow(t *testing.T) {
	b := createTestBot(t)
	ctx := context.Background()
	require.NoError(t, upsertGuild(ctx, b, testGuild()))

	require.NoError(t, creditMessage(ctx, b, "G1", "newcomer", "hi there"))
	points, err := b.Stores.Points.GetPoints(ctx, "G1", "newcomer")
	require.NoError(t, err)
	assert.Equal(t, int64(2), points)
}

func TestDebitMessage_UnknownMemberIsIgnored(t *testing.T) {
	b := createTestBot(t)
	assert.NoError(t, debitMessage(context.Background(), b, "G1", "ghost", "bye"))
}

func TestPrefixCommand(t *testing.T) {
	b := createTestBot(t)
	ctx := context.Background()
	require.NoError(t, upsertGuild(ctx, b, testGuild()))
	author := &discordgo.User{ID: "M1", Username: "alice"}

	assert.Equal(t, "Pong!", prefixCommand(ctx, b, "G1", author, "ping"))
	assert.Equal(t, "Ping!", prefixCommand(ctx, b, "G1", author, "pong"))
	assert.Empty(t, prefixCommand(ctx, b, "G1", author, "unknown"))
	assert.Equal(t, "**alice** has no points yet.", prefixCommand(ctx, b, "G1", author, "points"))
}

func TestPointsReply_FormatsBalance(t *testing.T) {
	b := createTestBot(t)
	ctx := context.Background()
	require.NoError(t, upsertGuild(ctx, b, testGuild()))
	require.NoError(t, b.Stores.Points.AddMemberToLedger(ctx, "G1", "M1"))
	require.NoError(t, b.Stores.Points.AddPoints(ctx, "G1", "M1", 1234567))

	assert.Equal(t, "**alice** has 1,234,567 points.", pointsReply(ctx, b, "G1", "M1", "alice"))
}

func TestSyncOptions(t *testing.T) {
	assert.Equal(t, scanner.AllPasses(), syncOptions(nil))

	opts := syncOptions([]*discordgo.ApplicationCommandInteractionDataOption{
		{Name: command.OptionMembers, Type: discordgo.ApplicationCommandOptionBoolean, Value: false},
		{Name: command.OptionRoles, Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
	})
	assert.True(t, opts.Guilds)
	assert.True(t, opts.Roles)
	assert.False(t, opts.Members)
}

func TestSyncReply(t *testing.T) {
	assert.Contains(t, syncReply(models.SyncStatus{}, scanner.ErrSyncInProgress), "already running")
	assert.Contains(t, syncReply(models.SyncStatus{}, errors.New("boom")), "boom")

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	reply := syncReply(models.SyncStatus{
		RunID:      "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Passes: map[models.SyncKind]models.PassResult{
			models.KindGuild:  {Kind: models.KindGuild, Added: 1200},
			models.KindMember: {Kind: models.KindMember, Updated: 3, Failed: 1},
		},
	}, nil)
	assert.Contains(t, reply, "run-1")
	assert.Contains(t, reply, "1.5s")
	assert.Contains(t, reply, "**guild**: 1,200 added")
	assert.Contains(t, reply, "**member**: 0 added, 3 updated, 0 skipped, 1 failed")
	assert.NotContains(t, reply, "**channel**")
}

func TestAllowed(t *testing.T) {
	auth := utils.NewAuth(models.CommandsConfig{Auth: models.AuthConfig{AdminsRoles: []string{"admin-role"}}})
	guest := &discordgo.Member{User: &discordgo.User{ID: "u1"}}
	admin := &discordgo.Member{User: &discordgo.User{ID: "u2"}, Roles: []string{"admin-role"}}

	assert.True(t, allowed(auth, guest, command.NamePing))
	assert.True(t, allowed(auth, guest, command.NamePoints))
	assert.False(t, allowed(auth, guest, command.NameDBSync))
	assert.True(t, allowed(auth, admin, command.NameDBSync))
	assert.True(t, allowed(auth, guest, "unknown"))
}

func TestEveryCommandHasPermissionLevel(t *testing.T) {
	for _, name := range command.Names() {
		_, ok := commandPermissions[name]
		assert.True(t, ok, "command %s has no permission level", name)
	}
}

func TestMemberJoined_LedgerOpensWhenMemberWriteFails(t *testing.T) {
	b := createTestBot(t)
	ctx := context.Background()
	require.NoError(t, upsertGuild(ctx, b, testGuild()))

	// Member rows go to a store that is already closed.
	closed, err := database.Open(models.DatabaseConfig{Driver: "sqlite3", DSN: filepath.Join(t.TempDir(), "closed.db")})
	require.NoError(t, err)
	require.NoError(t, closed.Close())
	b.Stores.Members = database.NewMemberDB(closed)

	m := &discordgo.Member{GuildID: "G1", User: &discordgo.User{ID: "M3", Username: "carol"}}
	err = memberJoined(ctx, b, m, nil)
	require.Error(t, err)

	points, err := b.Stores.Points.GetPoints(ctx, "G1", "M3")
	require.NoError(t, err)
	assert.Zero(t, points)
}

func TestMemberJoined_UnknownGuildReportsBothFailures(t *testing.T) {
	b := createTestBot(t)
	m := &discordgo.Member{GuildID: "missing", User: &discordgo.User{ID: "M4", Username: "dave"}}

	err := memberJoined(context.Background(), b, m, nil)
	require.Error(t, err)
	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok, "expected a joined error, got %T", err)
	assert.Len(t, joined.Unwrap(), 2)
}

func TestLockedGuildSnapshot_WaitsForStateWriter(t *testing.T) {
	s := &discordgo.Session{State: discordgo.NewState()}
	g := testGuild()

	s.State.Lock()
	done := make(chan models.GuildSnapshot, 1)
	go func() { done <- lockedGuildSnapshot(s, g) }()

	select {
	case <-done:
		t.Fatal("snapshot built while the state was write locked")
	case <-time.After(50 * time.Millisecond):
	}
	s.State.Unlock()

	select {
	case gs := <-done:
		assert.Equal(t, "G1", gs.Guild.ID)
		assert.Len(t, gs.Channels, 2)
		assert.Len(t, gs.Members, 1)
	case <-time.After(time.Second):
		t.Fatal("snapshot never built")
	}
}

func TestRoleDelete_RemovesRow(t *testing.T) {
	b := createTestBot(t)
	ctx := context.Background()
	require.NoError(t, syncGuild(ctx, b, nil, "B1", testGuild()))

	RoleDelete(b)(nil, &discordgo.GuildRoleDelete{GuildID: "G1", RoleID: "R1"})
	_, err := b.Stores.Roles.Get(ctx, "R1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
