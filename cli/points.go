package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"guild-mirror/apperrors"
	"guild-mirror/database"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// PointsResult is what the points subcommands print.
type PointsResult struct {
	GuildID  string `json:"guild_id"`
	MemberID string `json:"member_id"`
	Points   int64  `json:"points"`
}

// NewPointsCommand creates the points command and its subcommands.
func NewPointsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "points",
		Short: "Inspect or adjust the points ledger",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <guild-id> <member-id>",
		Short: "Show a member's balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, rootOpts, func(ctx context.Context, l *database.PointsLedger) error {
				return pointsGet(ctx, l, cmd.OutOrStdout(), rootOpts.Format, args[0], args[1])
			})
		},
	})

	adjust := func(use, short string, remove bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <guild-id> <member-id> <amount>",
			Short: short,
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				amount, err := strconv.ParseInt(args[2], 10, 64)
				if err != nil {
					return WrapExitError(ExitCommandError, fmt.Sprintf("invalid amount %q", args[2]), err)
				}
				return withLedger(cmd, rootOpts, func(ctx context.Context, l *database.PointsLedger) error {
					return pointsAdjust(ctx, l, cmd.OutOrStdout(), rootOpts.Format, args[0], args[1], amount, remove)
				})
			},
		}
	}
	cmd.AddCommand(adjust("add", "Credit points to a member", false))
	cmd.AddCommand(adjust("remove", "Debit points from a member", true))

	return cmd
}

func withLedger(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, l *database.PointsLedger) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a.stores.Points)
}

func pointsGet(ctx context.Context, l *database.PointsLedger, w io.Writer, format, guildID, memberID string) error {
	points, err := l.GetPoints(ctx, guildID, memberID)
	if err != nil {
		return ledgerExit(err)
	}
	res := PointsResult{GuildID: guildID, MemberID: memberID, Points: points}
	return printResult(w, format, res, fmt.Sprintf("%s points", humanize.Comma(points)))
}

func pointsAdjust(ctx context.Context, l *database.PointsLedger, w io.Writer, format, guildID, memberID string, amount int64, remove bool) error {
	var err error
	if remove {
		err = l.RemovePoints(ctx, guildID, memberID, amount)
	} else {
		err = l.AddPoints(ctx, guildID, memberID, amount)
	}
	if err != nil {
		return ledgerExit(err)
	}
	return pointsGet(ctx, l, w, format, guildID, memberID)
}

func ledgerExit(err error) error {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return WrapExitError(ExitFailure, "member has no ledger row", err)
	case errors.Is(err, apperrors.ErrInvalidArgument):
		return WrapExitError(ExitCommandError, "invalid request", err)
	}
	return WrapExitError(ExitFailure, "ledger operation failed", err)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
