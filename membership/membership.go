// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package membership answers hive role questions. Membership itself is
// managed by another service; this package only reads it.
package membership

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/hive-decide/db"
	"github.com/danielhkuo/hive-decide/models"
)

// Checker reports whether a user administers a hive.
type Checker interface {
	IsAdmin(ctx context.Context, userID, hiveID string) (bool, error)
}

// SQLChecker reads roles from the hive_member table.
type SQLChecker struct {
	q db.Querier
}

func NewSQLChecker(q db.Querier) *SQLChecker {
	return &SQLChecker{q: q}
}

func (c *SQLChecker) IsAdmin(ctx context.Context, userID, hiveID string) (bool, error) {
	var role string
	err := c.q.QueryRowContext(ctx, `
		SELECT role FROM hive_member WHERE hive_id = $1 AND user_id = $2
	`, hiveID, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query hive role: %w", err)
	}
	return role == models.RoleAdmin, nil
}

// RequireAdmin returns models.ErrForbidden unless userID administers hiveID.
func RequireAdmin(ctx context.Context, c Checker, userID, hiveID string) error {
	ok, err := c.IsAdmin(ctx, userID, hiveID)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrForbidden
	}
	return nil
}
