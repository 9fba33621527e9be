package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"guild-mirror/database"
	mirrorgrpc "guild-mirror/grpc"

	"github.com/spf13/cobra"
)

// HealthcheckOptions holds flags for the healthcheck command.
type HealthcheckOptions struct {
	*RootOptions
	GRPCAddr string
	Timeout  time.Duration
}

// HealthReport is what healthcheck prints.
type HealthReport struct {
	Healthy bool           `json:"healthy"`
	Driver  string         `json:"driver,omitempty"`
	Tables  map[string]int `json:"tables,omitempty"`
	Remote  string         `json:"remote,omitempty"`
}

// NewHealthcheckCommand creates the healthcheck command.
func NewHealthcheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HealthcheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check that the database is reachable and report its tables",
		Long: `Probe the configured database with the usual retry discipline, apply the
schema and print the row count of every table. With --grpc-addr the health
service of a running 'serve' process is queried instead.

Example:
  guild-mirror healthcheck
  guild-mirror healthcheck --grpc-addr localhost:50051`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var report HealthReport
			if opts.GRPCAddr != "" {
				healthy, err := remoteHealth(ctx, opts.GRPCAddr, opts.Timeout)
				if err != nil {
					return WrapExitError(ExitFailure, "health service unreachable", err)
				}
				report = HealthReport{Healthy: healthy, Remote: opts.GRPCAddr}
			} else {
				a, err := bootstrap(ctx, opts.RootOptions)
				if err != nil {
					return err
				}
				defer a.Close()
				report, err = localHealth(ctx, a.sv)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to inspect database", err)
				}
			}

			if err := printResult(cmd.OutOrStdout(), opts.Format, report, formatHealth(report)); err != nil {
				return err
			}
			if !report.Healthy {
				return NewExitError(ExitFailure, "store is not serving")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.GRPCAddr, "grpc-addr", "", "query the health service at this address")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Second, "timeout for the remote check")

	return cmd
}

func remoteHealth(ctx context.Context, addr string, timeout time.Duration) (bool, error) {
	client, err := mirrorgrpc.NewClient(addr, timeout)
	if err != nil {
		return false, err
	}
	defer client.Close()
	return client.Check(ctx)
}

// localHealth lists the tables of a store that already passed Healthcheck.
func localHealth(ctx context.Context, sv *database.Supervisor) (HealthReport, error) {
	tables, err := sv.ListTables(ctx)
	if err != nil {
		return HealthReport{}, err
	}
	report := HealthReport{Healthy: sv.Healthy(), Driver: sv.Driver(), Tables: make(map[string]int, len(tables))}
	for _, table := range tables {
		n, err := sv.Count(ctx, table)
		if err != nil {
			// Tables outside the mirror schema are listed without a count.
			report.Tables[table] = -1
			continue
		}
		report.Tables[table] = n
	}
	return report, nil
}

func formatHealth(r HealthReport) string {
	var sb strings.Builder
	state := "healthy"
	if !r.Healthy {
		state = "unhealthy"
	}
	if r.Remote != "" {
		fmt.Fprintf(&sb, "%s: %s", r.Remote, state)
		return sb.String()
	}
	fmt.Fprintf(&sb, "%s database is %s", r.Driver, state)
	for _, table := range sortedKeys(r.Tables) {
		if n := r.Tables[table]; n >= 0 {
			fmt.Fprintf(&sb, "\n  %-14s %d rows", table, n)
		} else {
			fmt.Fprintf(&sb, "\n  %-14s -", table)
		}
	}
	return sb.String()
}
