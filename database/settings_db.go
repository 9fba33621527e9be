package database

import (
	"context"
	"fmt"
	"time"

	"guild-mirror/models"
)

const settingsColumns = `guild_id, bot_id, admin, logging, moderation, antispam, fun, last_sync`

// SettingsDB handles bot_settings. Rows are only ever created by the engine;
// after that they belong to the guild's admins, so there is no Update.
type SettingsDB struct {
	sv *Supervisor
}

func NewSettingsDB(sv *Supervisor) *SettingsDB {
	return &SettingsDB{sv: sv}
}

func (s *SettingsDB) Kind() models.SyncKind { return models.KindSettings }
func (s *SettingsDB) Table() string         { return TableSettings }

func (s *SettingsDB) Key(st models.Settings) []Column {
	return []Column{{Name: "guild_id", Value: st.GuildID}}
}

func (s *SettingsDB) Add(ctx context.Context, st models.Settings, now time.Time) error {
	query := `INSERT INTO bot_settings (` + settingsColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.sv.exec(ctx, "add settings", query,
		st.GuildID,
		st.BotID,
		st.Admin,
		st.Logging,
		st.Moderation,
		st.AntiSpam,
		st.Fun,
		now.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to add bot_settings for guild %s: %w", st.GuildID, err)
	}
	return nil
}

func (s *SettingsDB) Get(ctx context.Context, guildID string) (models.Settings, error) {
	var st models.Settings
	err := s.sv.selectOne(ctx, "get settings", &st,
		`SELECT `+settingsColumns+` FROM bot_settings WHERE guild_id = ?`, guildID)
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to get bot_settings for guild %s: %w", guildID, err)
	}
	return st, nil
}
