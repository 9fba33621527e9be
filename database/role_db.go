package database

import (
	"context"
	"fmt"
	"time"

	"guild-mirror/models"
)

const roleColumns = `role_id, guild_id, name, position, color, hoisted, mentionable, managed, permissions, created_at, last_sync`

// RoleDB reads and writes the roles table.
type RoleDB struct {
	sv *Supervisor
}

func NewRoleDB(sv *Supervisor) *RoleDB {
	return &RoleDB{sv: sv}
}

func (r *RoleDB) Kind() models.SyncKind { return models.KindRole }
func (r *RoleDB) Table() string         { return TableRoles }

func (r *RoleDB) Key(role models.Role) []Column {
	return []Column{{Name: "role_id", Value: role.ID}}
}

func (r *RoleDB) Add(ctx context.Context, role models.Role, now time.Time) error {
	query := `INSERT INTO roles (` + roleColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.sv.exec(ctx, "add role", query,
		role.ID,
		role.GuildID,
		role.Name,
		role.Position,
		role.Color,
		role.Hoisted,
		role.Mentionable,
		role.Managed,
		role.Permissions,
		role.CreatedAt.UTC(),
		now.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to add role %s from guild %s: %w", role.ID, role.GuildID, err)
	}
	return nil
}

func (r *RoleDB) Update(ctx context.Context, role models.Role, now time.Time) error {
	query := `UPDATE roles SET
				guild_id = ?,
				name = ?,
				position = ?,
				color = ?,
				hoisted = ?,
				mentionable = ?,
				managed = ?,
				permissions = ?,
				created_at = ?,
				last_sync = ?
			  WHERE role_id = ?`
	_, err := r.sv.exec(ctx, "update role", query,
		role.GuildID,
		role.Name,
		role.Position,
		role.Color,
		role.Hoisted,
		role.Mentionable,
		role.Managed,
		role.Permissions,
		role.CreatedAt.UTC(),
		now.UTC(),
		role.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update role %q in guild %s: %w", role.Name, role.GuildID, err)
	}
	return nil
}

func (r *RoleDB) Get(ctx context.Context, roleID string) (models.Role, error) {
	var role models.Role
	err := r.sv.selectOne(ctx, "get role", &role,
		`SELECT `+roleColumns+` FROM roles WHERE role_id = ?`, roleID)
	if err != nil {
		return models.Role{}, fmt.Errorf("failed to get role %s: %w", roleID, err)
	}
	return role, nil
}

func (r *RoleDB) Delete(ctx context.Context, guildID, roleID string) error {
	_, err := r.sv.exec(ctx, "delete role",
		`DELETE FROM roles WHERE role_id = ? AND guild_id = ?`, roleID, guildID)
	if err != nil {
		return fmt.Errorf("failed to delete role %s from guild %s: %w", roleID, guildID, err)
	}
	return nil
}
