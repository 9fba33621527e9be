package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"guild-mirror/utils"
)

// Table names of the mirror schema.
const (
	TableGuilds   = "guilds"
	TableChannels = "channels"
	TableRoles    = "roles"
	TableMembers  = "members"
	TableSettings = "bot_settings"
	TablePoints   = "points"
)

// migrations creates the schema. Every natural key is declared PRIMARY KEY so
// a racing insert surfaces as a duplicate-key error instead of a second row.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS guilds (
		guild_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		icon TEXT NOT NULL DEFAULT '',
		member_count INTEGER NOT NULL DEFAULT 0,
		nsfw_level INTEGER NOT NULL DEFAULT 0,
		locale TEXT NOT NULL DEFAULT '',
		is_premium BOOLEAN NOT NULL DEFAULT FALSE,
		is_test BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		last_sync TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS channels (
		channel_id TEXT PRIMARY KEY,
		guild_id TEXT NOT NULL REFERENCES guilds(guild_id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		mention TEXT NOT NULL DEFAULT '',
		jump_url TEXT NOT NULL DEFAULT '',
		permissions_synced BOOLEAN NOT NULL DEFAULT FALSE,
		overwrites TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		last_sync TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS roles (
		role_id TEXT PRIMARY KEY,
		guild_id TEXT NOT NULL REFERENCES guilds(guild_id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		color TEXT NOT NULL DEFAULT '#000000',
		hoisted BOOLEAN NOT NULL DEFAULT FALSE,
		mentionable BOOLEAN NOT NULL DEFAULT FALSE,
		managed BOOLEAN NOT NULL DEFAULT FALSE,
		permissions TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMP NOT NULL,
		last_sync TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		guild_id TEXT NOT NULL REFERENCES guilds(guild_id) ON DELETE CASCADE,
		member_id TEXT NOT NULL,
		name TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		nickname TEXT NOT NULL DEFAULT '',
		avatar TEXT NOT NULL DEFAULT '',
		top_role TEXT NOT NULL DEFAULT '',
		joined_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL,
		last_sync TIMESTAMP NOT NULL,
		PRIMARY KEY (guild_id, member_id)
	)`,
	`CREATE TABLE IF NOT EXISTS bot_settings (
		guild_id TEXT PRIMARY KEY REFERENCES guilds(guild_id) ON DELETE CASCADE,
		bot_id TEXT NOT NULL,
		admin BOOLEAN NOT NULL,
		logging BOOLEAN NOT NULL,
		moderation BOOLEAN NOT NULL,
		antispam BOOLEAN NOT NULL,
		fun BOOLEAN NOT NULL,
		last_sync TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS points (
		guild_id TEXT NOT NULL REFERENCES guilds(guild_id) ON DELETE CASCADE,
		member_id TEXT NOT NULL,
		points BIGINT NOT NULL DEFAULT 0,
		last_sync TIMESTAMP NOT NULL,
		PRIMARY KEY (guild_id, member_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_channels_guild ON channels(guild_id)`,
	`CREATE INDEX IF NOT EXISTS idx_roles_guild ON roles(guild_id)`,
}

// schemaColumns whitelists the identifiers Exists and Count may interpolate.
var schemaColumns = map[string]map[string]bool{
	TableGuilds:   {"guild_id": true, "name": true},
	TableChannels: {"channel_id": true, "guild_id": true},
	TableRoles:    {"role_id": true, "guild_id": true},
	TableMembers:  {"member_id": true, "guild_id": true},
	TableSettings: {"guild_id": true, "bot_id": true},
	TablePoints:   {"member_id": true, "guild_id": true},
}

// Migrate creates every table if it does not exist yet. It is idempotent.
func (s *Supervisor) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", classify("migrate", err))
		}
	}
	utils.L().Info("database schema is up to date", zap.String("driver", s.driver))
	return nil
}

// ListTables returns the user tables present in the store.
func (s *Supervisor) ListTables(ctx context.Context) ([]string, error) {
	query := "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	if s.driver == "postgres" {
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name"
	}

	var tables []string
	if err := s.selectAll(ctx, "list tables", &tables, query); err != nil {
		return nil, err
	}
	return tables, nil
}
