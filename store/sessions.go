// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/hive-decide/db"
	"github.com/danielhkuo/hive-decide/models"
)

// InsertSession writes a new decision session.
func InsertSession(ctx context.Context, q db.Querier, s models.DecisionSession) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO decision_session (id, hive_id, source_conversation_id, title, consensus_threshold, visibility, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.HiveID, s.SourceConversationID, s.Title, s.ConsensusThreshold, string(s.Visibility), s.CreatedBy, Timestamp(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession loads a session by id.
func GetSession(ctx context.Context, q db.Querier, id string) (models.DecisionSession, error) {
	var s models.DecisionSession
	err := q.QueryRowContext(ctx, `
		SELECT id, hive_id, source_conversation_id, title, consensus_threshold, visibility, created_by, created_at
		FROM decision_session
		WHERE id = $1
	`, id).Scan(
		&s.ID, &s.HiveID, &s.SourceConversationID, &s.Title,
		&s.ConsensusThreshold, &s.Visibility, &s.CreatedBy, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, fmt.Errorf("query session: %w", err)
	}
	return s, nil
}
