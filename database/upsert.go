package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"guild-mirror/apperrors"
	"guild-mirror/models"
)

// Outcome says which branch a reconcile call took.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeAdded
	OutcomeUpdated
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdded:
		return "added"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Creator is a kind whose rows can be looked up and inserted.
type Creator[T any] interface {
	Kind() models.SyncKind
	Table() string
	Key(e T) []Column
	Add(ctx context.Context, e T, now time.Time) error
}

// Upserter is a Creator whose rows may also be refreshed in place.
type Upserter[T any] interface {
	Creator[T]
	Update(ctx context.Context, e T, now time.Time) error
}

// LockKey renders the natural key of e for KeyLocker.
func LockKey(table string, key []Column) string {
	var b strings.Builder
	b.WriteString(table)
	for _, c := range key {
		fmt.Fprintf(&b, "|%s=%v", c.Name, c.Value)
	}
	return b.String()
}

// Upsert updates e when a row with its key exists and inserts it otherwise.
// The check and the write run under the key's lock. An insert that loses a
// race against another process is retried once as an update.
func Upsert[T any](ctx context.Context, sv *Supervisor, locks *KeyLocker, st Upserter[T], e T, now time.Time) (Outcome, error) {
	key := st.Key(e)
	unlock := locks.Lock(LockKey(st.Table(), key))
	defer unlock()

	exists, err := sv.Exists(ctx, st.Table(), key...)
	if err != nil {
		return OutcomeFailed, err
	}
	if exists {
		if err := st.Update(ctx, e, now); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeUpdated, nil
	}

	err = st.Add(ctx, e, now)
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		if err := st.Update(ctx, e, now); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeUpdated, nil
	}
	if err != nil {
		return OutcomeFailed, err
	}
	return OutcomeAdded, nil
}

// CreateIfMissing inserts e only when no row with its key exists. Existing
// rows are left untouched.
func CreateIfMissing[T any](ctx context.Context, sv *Supervisor, locks *KeyLocker, st Creator[T], e T, now time.Time) (Outcome, error) {
	key := st.Key(e)
	unlock := locks.Lock(LockKey(st.Table(), key))
	defer unlock()

	exists, err := sv.Exists(ctx, st.Table(), key...)
	if err != nil {
		return OutcomeFailed, err
	}
	if exists {
		return OutcomeSkipped, nil
	}

	err = st.Add(ctx, e, now)
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeFailed, err
	}
	return OutcomeAdded, nil
}
