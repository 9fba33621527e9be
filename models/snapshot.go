package models

// GuildSnapshot is the live state of one guild at sync time.
type GuildSnapshot struct {
	Guild    Guild
	Channels []Channel
	Roles    []Role
	Members  []Member
}

// Snapshot is everything the platform reports at sync time.
type Snapshot struct {
	BotID  string
	Guilds []GuildSnapshot
}

// SyncKind names one reconciliation pass.
type SyncKind string

const (
	KindGuild    SyncKind = "guild"
	KindChannel  SyncKind = "channel"
	KindRole     SyncKind = "role"
	KindMember   SyncKind = "member"
	KindSettings SyncKind = "settings"
)

// SyncOrder is the fixed order passes run in. Guild rows go first because
// every other kind references them.
var SyncOrder = []SyncKind{KindGuild, KindChannel, KindRole, KindMember, KindSettings}
