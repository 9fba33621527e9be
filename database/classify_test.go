package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"guild-mirror/apperrors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.Code
	}{
		{"no rows", sql.ErrNoRows, apperrors.CodeNotFound},
		{"deadline", context.DeadlineExceeded, apperrors.CodeDeadlineExceeded},
		{"cancelled", context.Canceled, apperrors.CodeUnavailable},
		{"bad conn", driver.ErrBadConn, apperrors.CodeUnavailable},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, apperrors.CodeAlreadyExists},
		{"sqlite primary key", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}, apperrors.CodeAlreadyExists},
		{"sqlite foreign key", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}, apperrors.CodeFailedPrecondition},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, apperrors.CodeUnavailable},
		{"pq unique", &pq.Error{Code: "23505"}, apperrors.CodeAlreadyExists},
		{"pq foreign key", &pq.Error{Code: "23503"}, apperrors.CodeFailedPrecondition},
		{"pq not null", &pq.Error{Code: "23502"}, apperrors.CodeInvalidArgument},
		{"pq connection", &pq.Error{Code: "08006"}, apperrors.CodeUnavailable},
		{"refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), apperrors.CodeUnavailable},
		{"other", errors.New("boom"), apperrors.CodeInternal},
		{"wrapped", fmt.Errorf("outer: %w", sql.ErrNoRows), apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperrors.CodeOf(classify("op", tt.err)))
		})
	}
}

func TestClassify_KeepsAppErrors(t *testing.T) {
	in := apperrors.NotFound("already classified")
	assert.Same(t, in, classify("op", in))
	assert.Nil(t, classify("op", nil))
}
