package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"guild-mirror/apperrors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// classify maps driver errors onto application codes so callers can tell a
// missing row from a duplicate key from an unreachable store.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperrors.Wrap(apperrors.CodeNotFound, op+": no matching row", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.DeadlineExceeded(op+": store round trip timed out", err)
	case errors.Is(err, context.Canceled):
		return apperrors.Unavailable(op+": cancelled", err)
	case errors.Is(err, driver.ErrBadConn):
		return apperrors.Unavailable(op+": bad connection", err)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch {
		case liteErr.ExtendedCode == sqlite3.ErrConstraintUnique,
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return apperrors.AlreadyExists(op+": duplicate key", err)
		case liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey:
			return apperrors.FailedPrecondition(op+": referenced guild does not exist", err)
		case liteErr.ExtendedCode == sqlite3.ErrConstraintNotNull:
			return apperrors.Wrap(apperrors.CodeInvalidArgument, op+": missing required field", err)
		case liteErr.Code == sqlite3.ErrBusy,
			liteErr.Code == sqlite3.ErrLocked,
			liteErr.Code == sqlite3.ErrCantOpen:
			return apperrors.Unavailable(op+": store unavailable", err)
		}
		return apperrors.Internal(op+": write failed", err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return apperrors.AlreadyExists(op+": duplicate key", err)
		case pqErr.Code == "23503":
			return apperrors.FailedPrecondition(op+": referenced guild does not exist", err)
		case pqErr.Code == "23502":
			return apperrors.Wrap(apperrors.CodeInvalidArgument, op+": missing required field", err)
		case pqErr.Code.Class() == "08", pqErr.Code.Class() == "57":
			return apperrors.Unavailable(op+": store unavailable", err)
		}
		return apperrors.Internal(op+": write failed", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || strings.Contains(err.Error(), "connection refused") {
		return apperrors.Unavailable(op+": store unreachable", err)
	}
	return apperrors.Internal(op+" failed", err)
}
