package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"guild-mirror/apperrors"
)

// Column is one equality condition of a lookup.
type Column struct {
	Name  string
	Value any
}

// Exists reports whether table holds a row matching every key column.
// Table and column names are checked against the schema before they are
// interpolated. The answer is advisory: a concurrent writer may insert right
// after it returns false.
func (s *Supervisor) Exists(ctx context.Context, table string, key ...Column) (bool, error) {
	cols, ok := schemaColumns[table]
	if !ok {
		return false, apperrors.InvalidArg(fmt.Sprintf("unknown table %q", table))
	}
	if len(key) == 0 {
		return false, apperrors.InvalidArg("existence check needs at least one key column")
	}

	conds := make([]string, 0, len(key))
	args := make([]any, 0, len(key))
	for _, c := range key {
		if !cols[c.Name] {
			return false, apperrors.InvalidArg(fmt.Sprintf("unknown column %q on %s", c.Name, table))
		}
		conds = append(conds, c.Name+" = ?")
		args = append(args, c.Value)
	}

	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s LIMIT 1", table, strings.Join(conds, " AND "))
	var one int
	err := s.selectOne(ctx, "exists "+table, &one, query, args...)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
