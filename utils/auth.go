package utils

import (
	"guild-mirror/models"

	"github.com/bwmarrin/discordgo"
)

// Permission levels understood by CheckPermission.
const (
	LevelDeveloper = "developer"
	LevelAdmin     = "admin"
	LevelGuest     = "guest"
)

// Auth provides methods for authorization checks.
type Auth struct {
	config models.CommandsConfig
}

// NewAuth creates a new Auth instance from the commands configuration.
func NewAuth(cfg models.CommandsConfig) *Auth {
	return &Auth{config: cfg}
}

// IsDeveloper checks if a user is a developer.
func (a *Auth) IsDeveloper(userID string) bool {
	for _, devID := range a.config.Auth.Developers {
		if userID == devID {
			return true
		}
	}
	return false
}

// IsAdmin checks if a member holds a configured admin role or the
// administrator permission.
func (a *Auth) IsAdmin(member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	for _, adminRoleID := range a.config.Auth.AdminsRoles {
		for _, userRoleID := range member.Roles {
			if userRoleID == adminRoleID {
				return true
			}
		}
	}
	return false
}

// CheckPermission checks if the invoking member has the required level.
func (a *Auth) CheckPermission(member *discordgo.Member, requiredLevel string) bool {
	if requiredLevel == LevelGuest {
		return true
	}
	if member == nil || member.User == nil {
		return false
	}

	switch requiredLevel {
	case LevelDeveloper:
		return a.IsDeveloper(member.User.ID)
	case LevelAdmin:
		return a.IsDeveloper(member.User.ID) || a.IsAdmin(member)
	default:
		return false
	}
}
