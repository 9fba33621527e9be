package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"guild-mirror/apperrors"
)

// PointsLedger keeps one balance per (guild, member). Balance changes are
// single UPDATE statements, so concurrent increments cannot lose updates.
type PointsLedger struct {
	sv  *Supervisor
	now func() time.Time
}

func NewPointsLedger(sv *Supervisor) *PointsLedger {
	return &PointsLedger{sv: sv, now: time.Now}
}

// WordCount is the number of space separated fields in content. Consecutive
// spaces count as empty words and an empty message counts as one.
func WordCount(content string) int64 {
	return int64(len(strings.Split(content, " ")))
}

// GetPoints returns the balance. A member without a ledger row is NOT_FOUND.
func (p *PointsLedger) GetPoints(ctx context.Context, guildID, memberID string) (int64, error) {
	var points int64
	err := p.sv.selectOne(ctx, "get points", &points,
		`SELECT points FROM points WHERE guild_id = ? AND member_id = ?`, guildID, memberID)
	if err != nil {
		return 0, fmt.Errorf("failed to get points for member %s in guild %s: %w", memberID, guildID, err)
	}
	return points, nil
}

// AddPoints credits amount, which must not be negative.
func (p *PointsLedger) AddPoints(ctx context.Context, guildID, memberID string, amount int64) error {
	if amount < 0 {
		return apperrors.InvalidArg(fmt.Sprintf("amount must not be negative, got %d", amount))
	}
	return p.apply(ctx, "add points", guildID, memberID, amount)
}

// RemovePoints debits amount. The balance is allowed to go below zero.
func (p *PointsLedger) RemovePoints(ctx context.Context, guildID, memberID string, amount int64) error {
	if amount < 0 {
		return apperrors.InvalidArg(fmt.Sprintf("amount must not be negative, got %d", amount))
	}
	return p.apply(ctx, "remove points", guildID, memberID, -amount)
}

func (p *PointsLedger) apply(ctx context.Context, op, guildID, memberID string, delta int64) error {
	affected, err := p.sv.exec(ctx, op,
		`UPDATE points SET points = points + ?, last_sync = ? WHERE guild_id = ? AND member_id = ?`,
		delta, p.now().UTC(), guildID, memberID)
	if err != nil {
		return fmt.Errorf("failed to %s for member %s in guild %s: %w", op, memberID, guildID, err)
	}
	if affected == 0 {
		return apperrors.NotFound(fmt.Sprintf("no ledger row for member %s in guild %s", memberID, guildID))
	}
	return nil
}

// AddMemberToLedger opens a zero balance for a newly seen member.
func (p *PointsLedger) AddMemberToLedger(ctx context.Context, guildID, memberID string) error {
	_, err := p.sv.exec(ctx, "add member to ledger",
		`INSERT INTO points (guild_id, member_id, points, last_sync) VALUES (?, ?, 0, ?)`,
		guildID, memberID, p.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add member %s in guild %s to points table: %w", memberID, guildID, err)
	}
	return nil
}

// RemoveMemberFromLedger drops the balance of a departing member.
func (p *PointsLedger) RemoveMemberFromLedger(ctx context.Context, guildID, memberID string) error {
	_, err := p.sv.exec(ctx, "remove member from ledger",
		`DELETE FROM points WHERE guild_id = ? AND member_id = ?`, guildID, memberID)
	if err != nil {
		return fmt.Errorf("failed to remove member %s in guild %s from points table: %w", memberID, guildID, err)
	}
	return nil
}
