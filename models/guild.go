package models

import "time"

// Guild mirrors one row of the guilds table.
type Guild struct {
	ID          string    `db:"guild_id"`
	Name        string    `db:"name"`
	Icon        string    `db:"icon"`
	MemberCount int       `db:"member_count"`
	NSFWLevel   int       `db:"nsfw_level"`
	Locale      string    `db:"locale"`
	IsPremium   bool      `db:"is_premium"`
	IsTest      bool      `db:"is_test"`
	CreatedAt   time.Time `db:"created_at"`
	LastSync    time.Time `db:"last_sync"`
}

// Channel mirrors one row of the channels table.
type Channel struct {
	ID                string    `db:"channel_id"`
	GuildID           string    `db:"guild_id"`
	Name              string    `db:"name"`
	Category          string    `db:"category"` // NoCategory when the channel has no parent
	Position          int       `db:"position"`
	Mention           string    `db:"mention"`
	JumpURL           string    `db:"jump_url"`
	PermissionsSynced bool      `db:"permissions_synced"`
	Overwrites        string    `db:"overwrites"` // JSON array of permission overwrites
	CreatedAt         time.Time `db:"created_at"`
	LastSync          time.Time `db:"last_sync"`
}

// NoCategory is recorded for channels that do not sit under a category.
const NoCategory = "Category"

// Role mirrors one row of the roles table.
type Role struct {
	ID          string    `db:"role_id"`
	GuildID     string    `db:"guild_id"`
	Name        string    `db:"name"`
	Position    int       `db:"position"`
	Color       string    `db:"color"`
	Hoisted     bool      `db:"hoisted"`
	Mentionable bool      `db:"mentionable"`
	Managed     bool      `db:"managed"`
	Permissions string    `db:"permissions"`
	CreatedAt   time.Time `db:"created_at"`
	LastSync    time.Time `db:"last_sync"`
}

// Member is guild scoped: the same user in two guilds is two rows.
type Member struct {
	GuildID     string    `db:"guild_id"`
	ID          string    `db:"member_id"`
	Name        string    `db:"name"`
	DisplayName string    `db:"display_name"`
	Nickname    string    `db:"nickname"`
	Avatar      string    `db:"avatar"`
	TopRole     string    `db:"top_role"`
	JoinedAt    time.Time `db:"joined_at"`
	CreatedAt   time.Time `db:"created_at"`
	LastSync    time.Time `db:"last_sync"`
}
