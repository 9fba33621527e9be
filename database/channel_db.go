package database

import (
	"context"
	"fmt"
	"time"

	"guild-mirror/models"
)

const channelColumns = `channel_id, guild_id, name, category, position, mention, jump_url, permissions_synced, overwrites, created_at, last_sync`

// ChannelDB reads and writes the channels table.
type ChannelDB struct {
	sv *Supervisor
}

func NewChannelDB(sv *Supervisor) *ChannelDB {
	return &ChannelDB{sv: sv}
}

func (c *ChannelDB) Kind() models.SyncKind { return models.KindChannel }
func (c *ChannelDB) Table() string         { return TableChannels }

func (c *ChannelDB) Key(ch models.Channel) []Column {
	return []Column{{Name: "channel_id", Value: ch.ID}}
}

func (c *ChannelDB) Add(ctx context.Context, ch models.Channel, now time.Time) error {
	query := `INSERT INTO channels (` + channelColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := c.sv.exec(ctx, "add channel", query,
		ch.ID,
		ch.GuildID,
		ch.Name,
		categoryOrPlaceholder(ch.Category),
		ch.Position,
		ch.Mention,
		ch.JumpURL,
		ch.PermissionsSynced,
		ch.Overwrites,
		ch.CreatedAt.UTC(),
		now.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to add channel %q in guild %s: %w", ch.Name, ch.GuildID, err)
	}
	return nil
}

func (c *ChannelDB) Update(ctx context.Context, ch models.Channel, now time.Time) error {
	query := `UPDATE channels SET
				guild_id = ?,
				name = ?,
				category = ?,
				position = ?,
				mention = ?,
				jump_url = ?,
				permissions_synced = ?,
				overwrites = ?,
				created_at = ?,
				last_sync = ?
			  WHERE channel_id = ?`
	_, err := c.sv.exec(ctx, "update channel", query,
		ch.GuildID,
		ch.Name,
		categoryOrPlaceholder(ch.Category),
		ch.Position,
		ch.Mention,
		ch.JumpURL,
		ch.PermissionsSynced,
		ch.Overwrites,
		ch.CreatedAt.UTC(),
		now.UTC(),
		ch.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update channel %q in guild %s: %w", ch.Name, ch.GuildID, err)
	}
	return nil
}

func (c *ChannelDB) Get(ctx context.Context, channelID string) (models.Channel, error) {
	var ch models.Channel
	err := c.sv.selectOne(ctx, "get channel", &ch,
		`SELECT `+channelColumns+` FROM channels WHERE channel_id = ?`, channelID)
	if err != nil {
		return models.Channel{}, fmt.Errorf("failed to get channel %s: %w", channelID, err)
	}
	return ch, nil
}

func (c *ChannelDB) Delete(ctx context.Context, guildID, channelID string) error {
	_, err := c.sv.exec(ctx, "delete channel",
		`DELETE FROM channels WHERE channel_id = ? AND guild_id = ?`, channelID, guildID)
	if err != nil {
		return fmt.Errorf("failed to delete channel %s from guild %s: %w", channelID, guildID, err)
	}
	return nil
}

func categoryOrPlaceholder(category string) string {
	if category == "" {
		return models.NoCategory
	}
	return category
}
