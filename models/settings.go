package models

import "time"

// Settings holds the per-guild feature toggles. A row is created once and is
// owned by guild admins afterwards.
type Settings struct {
	GuildID    string    `db:"guild_id"`
	BotID      string    `db:"bot_id"`
	Admin      bool      `db:"admin"`
	Logging    bool      `db:"logging"`
	Moderation bool      `db:"moderation"`
	AntiSpam   bool      `db:"antispam"`
	Fun        bool      `db:"fun"`
	LastSync   time.Time `db:"last_sync"`
}

// Points is a ledger row.
type Points struct {
	GuildID  string    `db:"guild_id"`
	MemberID string    `db:"member_id"`
	Points   int64     `db:"points"`
	LastSync time.Time `db:"last_sync"`
}
