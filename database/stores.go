package database

import (
	"context"
	"time"

	"guild-mirror/models"
)

// Stores bundles every table store over one Supervisor and one KeyLocker.
// Build it once at startup and hand it to the components that need it.
type Stores struct {
	Supervisor *Supervisor
	Locks      *KeyLocker

	Guilds   *GuildDB
	Channels *ChannelDB
	Roles    *RoleDB
	Members  *MemberDB
	Settings *SettingsDB
	Points   *PointsLedger
}

func NewStores(sv *Supervisor) *Stores {
	return &Stores{
		Supervisor: sv,
		Locks:      NewKeyLocker(),
		Guilds:     NewGuildDB(sv),
		Channels:   NewChannelDB(sv),
		Roles:      NewRoleDB(sv),
		Members:    NewMemberDB(sv),
		Settings:   NewSettingsDB(sv),
		Points:     NewPointsLedger(sv),
	}
}

func (s *Stores) UpsertGuild(ctx context.Context, g models.Guild, now time.Time) (Outcome, error) {
	return Upsert[models.Guild](ctx, s.Supervisor, s.Locks, s.Guilds, g, now)
}

func (s *Stores) UpsertChannel(ctx context.Context, c models.Channel, now time.Time) (Outcome, error) {
	return Upsert[models.Channel](ctx, s.Supervisor, s.Locks, s.Channels, c, now)
}

func (s *Stores) UpsertRole(ctx context.Context, r models.Role, now time.Time) (Outcome, error) {
	return Upsert[models.Role](ctx, s.Supervisor, s.Locks, s.Roles, r, now)
}

func (s *Stores) UpsertMember(ctx context.Context, m models.Member, now time.Time) (Outcome, error) {
	return Upsert[models.Member](ctx, s.Supervisor, s.Locks, s.Members, m, now)
}

// EnsureSettings creates the settings row of a guild if it has none.
func (s *Stores) EnsureSettings(ctx context.Context, st models.Settings, now time.Time) (Outcome, error) {
	return CreateIfMissing[models.Settings](ctx, s.Supervisor, s.Locks, s.Settings, st, now)
}

// DeleteGuild removes a guild under the same key lock Upsert takes, so a
// delete never lands between an upsert's existence check and its write.
func (s *Stores) DeleteGuild(ctx context.Context, guildID string) error {
	unlock := s.Locks.Lock(LockKey(TableGuilds, s.Guilds.Key(models.Guild{ID: guildID})))
	defer unlock()
	return s.Guilds.Delete(ctx, guildID)
}

func (s *Stores) DeleteChannel(ctx context.Context, guildID, channelID string) error {
	unlock := s.Locks.Lock(LockKey(TableChannels, s.Channels.Key(models.Channel{ID: channelID})))
	defer unlock()
	return s.Channels.Delete(ctx, guildID, channelID)
}

func (s *Stores) DeleteRole(ctx context.Context, guildID, roleID string) error {
	unlock := s.Locks.Lock(LockKey(TableRoles, s.Roles.Key(models.Role{ID: roleID})))
	defer unlock()
	return s.Roles.Delete(ctx, guildID, roleID)
}

func (s *Stores) DeleteMember(ctx context.Context, guildID, memberID string) error {
	unlock := s.Locks.Lock(LockKey(TableMembers, s.Members.Key(models.Member{GuildID: guildID, ID: memberID})))
	defer unlock()
	return s.Members.Delete(ctx, guildID, memberID)
}
