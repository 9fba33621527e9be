package database

import (
	"context"
	"fmt"
	"time"

	"guild-mirror/models"
)

const memberColumns = `guild_id, member_id, name, display_name, nickname, avatar, top_role, joined_at, created_at, last_sync`

// MemberDB reads and writes the members table. Rows are keyed by
// (guild_id, member_id): a user in two guilds has two rows.
type MemberDB struct {
	sv *Supervisor
}

func NewMemberDB(sv *Supervisor) *MemberDB {
	return &MemberDB{sv: sv}
}

func (m *MemberDB) Kind() models.SyncKind { return models.KindMember }
func (m *MemberDB) Table() string         { return TableMembers }

func (m *MemberDB) Key(member models.Member) []Column {
	return []Column{
		{Name: "guild_id", Value: member.GuildID},
		{Name: "member_id", Value: member.ID},
	}
}

func (m *MemberDB) Add(ctx context.Context, member models.Member, now time.Time) error {
	query := `INSERT INTO members (` + memberColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := m.sv.exec(ctx, "add member", query,
		member.GuildID,
		member.ID,
		member.Name,
		member.DisplayName,
		member.Nickname,
		member.Avatar,
		member.TopRole,
		member.JoinedAt.UTC(),
		member.CreatedAt.UTC(),
		now.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to add member %q (%s) in guild %s: %w", member.Name, member.ID, member.GuildID, err)
	}
	return nil
}

func (m *MemberDB) Update(ctx context.Context, member models.Member, now time.Time) error {
	query := `UPDATE members SET
				name = ?,
				display_name = ?,
				nickname = ?,
				avatar = ?,
				top_role = ?,
				joined_at = ?,
				created_at = ?,
				last_sync = ?
			  WHERE guild_id = ? AND member_id = ?`
	_, err := m.sv.exec(ctx, "update member", query,
		member.Name,
		member.DisplayName,
		member.Nickname,
		member.Avatar,
		member.TopRole,
		member.JoinedAt.UTC(),
		member.CreatedAt.UTC(),
		now.UTC(),
		member.GuildID,
		member.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member %q in guild %s: %w", member.Name, member.GuildID, err)
	}
	return nil
}

func (m *MemberDB) Get(ctx context.Context, guildID, memberID string) (models.Member, error) {
	var member models.Member
	err := m.sv.selectOne(ctx, "get member", &member,
		`SELECT `+memberColumns+` FROM members WHERE guild_id = ? AND member_id = ?`, guildID, memberID)
	if err != nil {
		return models.Member{}, fmt.Errorf("failed to get member %s in guild %s: %w", memberID, guildID, err)
	}
	return member, nil
}

func (m *MemberDB) Delete(ctx context.Context, guildID, memberID string) error {
	_, err := m.sv.exec(ctx, "delete member",
		`DELETE FROM members WHERE member_id = ? AND guild_id = ?`, memberID, guildID)
	if err != nil {
		return fmt.Errorf("failed to delete member %s from guild %s: %w", memberID, guildID, err)
	}
	return nil
}
