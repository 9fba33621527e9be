package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"guild-mirror/apperrors"
	"guild-mirror/models"
	"guild-mirror/utils"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	// DefaultHealthAttempts is how many probes Healthcheck makes before giving up.
	DefaultHealthAttempts = 5
	// DefaultHealthBackoff is the pause between failed probes.
	DefaultHealthBackoff = 10 * time.Second
	// DefaultQueryTimeout bounds every store round trip.
	DefaultQueryTimeout = 5 * time.Second
)

// Supervisor owns the store handle. Every operation runs on its own
// connection: idle connections are never kept, so each call dials, runs one
// statement in a transaction, commits and closes. SQLite in-memory stores are
// the exception and keep their single connection open until Close.
type Supervisor struct {
	db       *sqlx.DB
	driver   string
	timeout  time.Duration
	attempts int
	backoff  time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	probe    func(ctx context.Context) error
	healthy  atomic.Bool
}

// Option customises a Supervisor.
type Option func(*Supervisor)

// WithSleep replaces the wait between health probes.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Supervisor) { s.sleep = fn }
}

// WithProbe replaces the connectivity probe used by Healthcheck.
func WithProbe(fn func(ctx context.Context) error) Option {
	return func(s *Supervisor) { s.probe = fn }
}

// Open prepares the store handle. It does not dial: call Healthcheck and
// Migrate before serving traffic.
func Open(cfg models.DatabaseConfig, opts ...Option) (*Supervisor, error) {
	dsn := cfg.DSN
	memory := cfg.Driver == "sqlite3" && isMemoryDSN(dsn)
	if cfg.Driver == "sqlite3" {
		// Ensure the directory for the database file exists.
		if !strings.HasPrefix(dsn, "file:") && !memory {
			dir := filepath.Dir(dsn)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = sqliteDSN(dsn)
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// An in-memory database lives and dies with its connection, so the
		// supervisor pins exactly one and every operation queues for it.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		// No pooling: every operation gets a fresh connection.
		db.SetMaxIdleConns(0)
	}

	s := &Supervisor{
		db:       db,
		driver:   cfg.Driver,
		timeout:  cfg.QueryTimeout,
		attempts: cfg.HealthAttempts,
		backoff:  cfg.HealthBackoff,
		sleep:    sleepCtx,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultQueryTimeout
	}
	if s.attempts <= 0 {
		s.attempts = DefaultHealthAttempts
	}
	if s.backoff <= 0 {
		s.backoff = DefaultHealthBackoff
	}
	s.probe = s.ping
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// isMemoryDSN reports whether dsn names a SQLite in-memory database.
func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" ||
		strings.HasPrefix(dsn, "file::memory:") ||
		strings.Contains(dsn, "mode=memory")
}

// sqliteDSN turns on the per-connection pragmas the schema relies on.
func sqliteDSN(path string) string {
	params := "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}

// Close releases the store handle.
func (s *Supervisor) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Driver reports the configured driver name.
func (s *Supervisor) Driver() string {
	return s.driver
}

// Healthy reports the outcome of the most recent probe.
func (s *Supervisor) Healthy() bool {
	return s.healthy.Load()
}

// Healthcheck probes the store up to the configured number of attempts,
// waiting the backoff between failures. It returns true on the first
// successful probe and false once every attempt failed or ctx is done.
func (s *Supervisor) Healthcheck(ctx context.Context) bool {
	log := utils.L()
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err := s.probe(ctx)
		if err == nil {
			log.Info("database is online and ready to accept connections", zap.Int("attempt", attempt))
			s.healthy.Store(true)
			return true
		}

		log.Error("database is not available",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.attempts),
			zap.Error(err))

		if attempt == s.attempts {
			break
		}
		log.Warn("retrying database probe", zap.Duration("backoff", s.backoff))
		if err := s.sleep(ctx, s.backoff); err != nil {
			break
		}
	}
	s.healthy.Store(false)
	return false
}

// Probe runs one connectivity check and records the result.
func (s *Supervisor) Probe(ctx context.Context) error {
	err := s.probe(ctx)
	s.healthy.Store(err == nil)
	return err
}

func (s *Supervisor) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := s.db.Connx(ctx)
	if err != nil {
		return classify("ping", err)
	}
	defer conn.Close()
	return classify("ping", conn.PingContext(ctx))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// withTx runs fn on a dedicated connection inside a transaction bounded by
// the query timeout.
func (s *Supervisor) withTx(ctx context.Context, op string, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := s.db.Connx(ctx)
	if err != nil {
		return classify(op, err)
	}
	defer conn.Close()

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return classify(op, err)
	}
	if err := tx.Commit(); err != nil {
		return classify(op, err)
	}
	return nil
}

// selectOne scans the first row into dest. No row is NOT_FOUND.
func (s *Supervisor) selectOne(ctx context.Context, op string, dest any, query string, args ...any) error {
	return s.withTx(ctx, op, func(ctx context.Context, tx *sqlx.Tx) error {
		return tx.GetContext(ctx, dest, tx.Rebind(query), args...)
	})
}

// selectAll scans every row into dest, which must be a pointer to a slice.
func (s *Supervisor) selectAll(ctx context.Context, op string, dest any, query string, args ...any) error {
	return s.withTx(ctx, op, func(ctx context.Context, tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, dest, tx.Rebind(query), args...)
	})
}

// exec runs one write and returns the number of affected rows.
func (s *Supervisor) exec(ctx context.Context, op string, query string, args ...any) (int64, error) {
	var affected int64
	err := s.withTx(ctx, op, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

// Count returns the number of rows in one of the mirror tables.
func (s *Supervisor) Count(ctx context.Context, table string) (int, error) {
	if _, ok := schemaColumns[table]; !ok {
		return 0, apperrors.InvalidArg(fmt.Sprintf("unknown table %q", table))
	}
	var n int
	err := s.selectOne(ctx, "count "+table, &n, fmt.Sprintf("SELECT COUNT(*) FROM %s", table))
	return n, err
}
