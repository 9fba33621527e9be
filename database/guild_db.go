package database

import (
	"context"
	"fmt"
	"time"

	"guild-mirror/models"
)

const guildColumns = `guild_id, name, icon, member_count, nsfw_level, locale, is_premium, is_test, created_at, last_sync`

// GuildDB reads and writes the guilds table.
type GuildDB struct {
	sv *Supervisor
}

// NewGuildDB creates a guild store on top of sv.
func NewGuildDB(sv *Supervisor) *GuildDB {
	return &GuildDB{sv: sv}
}

func (g *GuildDB) Kind() models.SyncKind { return models.KindGuild }
func (g *GuildDB) Table() string         { return TableGuilds }

func (g *GuildDB) Key(guild models.Guild) []Column {
	return []Column{{Name: "guild_id", Value: guild.ID}}
}

// Add inserts a guild seen for the first time.
func (g *GuildDB) Add(ctx context.Context, guild models.Guild, now time.Time) error {
	query := `INSERT INTO guilds (` + guildColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := g.sv.exec(ctx, "add guild", query,
		guild.ID,
		guild.Name,
		guild.Icon,
		guild.MemberCount,
		guild.NSFWLevel,
		guild.Locale,
		guild.IsPremium,
		guild.IsTest,
		guild.CreatedAt.UTC(),
		now.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to add guild %q (%s): %w", guild.Name, guild.ID, err)
	}
	return nil
}

// Update refreshes the platform-owned attributes of a known guild. The
// premium and test flags are managed by operators and are not overwritten.
func (g *GuildDB) Update(ctx context.Context, guild models.Guild, now time.Time) error {
	query := `UPDATE guilds SET
				name = ?,
				icon = ?,
				member_count = ?,
				nsfw_level = ?,
				locale = ?,
				created_at = ?,
				last_sync = ?
			  WHERE guild_id = ?`
	_, err := g.sv.exec(ctx, "update guild", query,
		guild.Name,
		guild.Icon,
		guild.MemberCount,
		guild.NSFWLevel,
		guild.Locale,
		guild.CreatedAt.UTC(),
		now.UTC(),
		guild.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update guild %q (%s): %w", guild.Name, guild.ID, err)
	}
	return nil
}

// Get loads one guild row.
func (g *GuildDB) Get(ctx context.Context, guildID string) (models.Guild, error) {
	var guild models.Guild
	err := g.sv.selectOne(ctx, "get guild", &guild,
		`SELECT `+guildColumns+` FROM guilds WHERE guild_id = ?`, guildID)
	if err != nil {
		return models.Guild{}, fmt.Errorf("failed to get guild %s: %w", guildID, err)
	}
	return guild, nil
}

// Delete removes a guild. Channels, roles, members, settings and points of
// the guild go with it.
func (g *GuildDB) Delete(ctx context.Context, guildID string) error {
	if _, err := g.sv.exec(ctx, "delete guild", `DELETE FROM guilds WHERE guild_id = ?`, guildID); err != nil {
		return fmt.Errorf("failed to delete guild %s: %w", guildID, err)
	}
	return nil
}
