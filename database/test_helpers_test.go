package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"guild-mirror/models"

	"github.com/stretchr/testify/require"
)

// createTestStores opens a migrated sqlite store under t.TempDir().
func createTestStores(t *testing.T) *Stores {
	t.Helper()
	sv, err := Open(models.DatabaseConfig{
		Driver:       "sqlite3",
		DSN:          filepath.Join(t.TempDir(), "test.db"),
		QueryTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { sv.Close() })
	require.NoError(t, sv.Migrate(context.Background()))
	return NewStores(sv)
}

var (
	syncTime  = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	createdAt = time.Date(2021, 6, 15, 8, 30, 0, 0, time.UTC)
)

func testGuild(id, name string, memberCount int) models.Guild {
	return models.Guild{
		ID:          id,
		Name:        name,
		Icon:        "icon-hash",
		MemberCount: memberCount,
		NSFWLevel:   0,
		Locale:      "en-US",
		CreatedAt:   createdAt,
	}
}

func testMember(guildID, id, name string) models.Member {
	return models.Member{
		GuildID:     guildID,
		ID:          id,
		Name:        name,
		DisplayName: name,
		JoinedAt:    createdAt.Add(24 * time.Hour),
		CreatedAt:   createdAt,
	}
}

// addGuild inserts a guild directly so child rows have a parent.
func addGuild(t *testing.T, st *Stores, id string) {
	t.Helper()
	require.NoError(t, st.Guilds.Add(context.Background(), testGuild(id, "guild "+id, 1), syncTime))
}
