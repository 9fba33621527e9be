package handlers

import (
	"context"
	"errors"
	"time"

	"guild-mirror/apperrors"
	"guild-mirror/bot"
	"guild-mirror/scanner"
	"guild-mirror/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// guildRoles 从会话缓存中取出服务器的身份组，用于计算成员的最高身份组
func guildRoles(s *discordgo.Session, guildID string) map[string]*discordgo.Role {
	if s == nil || s.State == nil {
		return nil
	}
	g, err := s.State.Guild(guildID)
	if err != nil {
		return nil
	}
	s.State.RLock()
	defer s.State.RUnlock()
	return scanner.RoleIndex(g.Roles)
}

// MemberAddHandler 处理成员加入服务器事件
// 写入成员信息，并为其开设积分账户
func MemberAddHandler(b *bot.Bot) func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	return func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		if m.Member == nil || m.User == nil {
			return
		}
		utils.L().Info("member joined", zap.String("guild", m.GuildID), zap.String("member", m.User.ID))
		if err := memberJoined(b.Context(), b, m.Member, guildRoles(s, m.GuildID)); err != nil {
			utils.L().Error("failed to record member join",
				zap.String("guild", m.GuildID),
				zap.String("member", m.User.ID),
				zap.Error(err))
		}
	}
}

func memberJoined(ctx context.Context, b *bot.Bot, m *discordgo.Member, roles map[string]*discordgo.Role) error {
	// 成员信息与积分账户互不依赖，任一失败都不影响另一个
	_, upsertErr := b.Stores.UpsertMember(ctx, scanner.Member(m.GuildID, m, roles), time.Now())

	// 重新加入的成员可能仍保留旧账户
	ledgerErr := b.Stores.Points.AddMemberToLedger(ctx, m.GuildID, m.User.ID)
	if errors.Is(ledgerErr, apperrors.ErrAlreadyExists) {
		ledgerErr = nil
	}
	return errors.Join(upsertErr, ledgerErr)
}

// MemberUpdateHandler 处理成员信息更新事件（昵称、头像、身份组）
func MemberUpdateHandler(b *bot.Bot) func(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	return func(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
		if m.Member == nil || m.User == nil {
			return
		}
		member := scanner.Member(m.GuildID, m.Member, guildRoles(s, m.GuildID))
		if _, err := b.Stores.UpsertMember(b.Context(), member, time.Now()); err != nil {
			utils.L().Error("failed to update member",
				zap.String("guild", m.GuildID),
				zap.String("member", m.User.ID),
				zap.Error(err))
		}
	}
}

// MemberRemoveHandler 处理成员离开服务器事件
// 删除成员信息以及积分账户
func MemberRemoveHandler(b *bot.Bot) func(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	return func(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
		if m.Member == nil || m.User == nil {
			return
		}
		utils.L().Info("member left", zap.String("guild", m.GuildID), zap.String("member", m.User.ID))
		if err := memberLeft(b.Context(), b, m.GuildID, m.User.ID); err != nil {
			utils.L().Error("failed to record member leave",
				zap.String("guild", m.GuildID),
				zap.String("member", m.User.ID),
				zap.Error(err))
		}
	}
}

func memberLeft(ctx context.Context, b *bot.Bot, guildID, memberID string) error {
	if err := b.Stores.DeleteMember(ctx, guildID, memberID); err != nil {
		return err
	}
	return b.Stores.Points.RemoveMemberFromLedger(ctx, guildID, memberID)
}
