// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package conversations reads the upstream conversations and analysed
// statements that decision sessions are built from. It never writes.
package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/hive-decide/db"
	"github.com/danielhkuo/hive-decide/models"
)

var (
	ErrNotFound         = errors.New("conversation not found")
	ErrUnknownStatement = errors.New("statement not in conversation")
)

// Source supplies conversations and their statements.
type Source interface {
	// Get returns ErrNotFound for an unknown id.
	Get(ctx context.Context, id string) (models.Conversation, error)
	// Statements returns the statements with the given ids in the order
	// requested. Any id outside the conversation fails with
	// ErrUnknownStatement.
	Statements(ctx context.Context, conversationID string, ids []string) ([]models.Statement, error)
}

// SQLSource reads the conversation and conversation_statement tables.
type SQLSource struct {
	q db.Querier
}

func NewSQLSource(q db.Querier) *SQLSource {
	return &SQLSource{q: q}
}

func (s *SQLSource) Get(ctx context.Context, id string) (models.Conversation, error) {
	var c models.Conversation
	err := s.q.QueryRowContext(ctx, `
		SELECT id, hive_id, type, analysis_status
		FROM conversation
		WHERE id = $1
	`, id).Scan(&c.ID, &c.HiveID, &c.Type, &c.AnalysisStatus)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("query conversation: %w", err)
	}
	return c, nil
}

func (s *SQLSource) Statements(ctx context.Context, conversationID string, ids []string) ([]models.Statement, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, conversation_id, cluster_index, statement_text, agree_percent
		FROM conversation_statement
		WHERE conversation_id = $1
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}
	defer rows.Close()

	byID := map[string]models.Statement{}
	for rows.Next() {
		var st models.Statement
		if err := rows.Scan(&st.ID, &st.ConversationID, &st.ClusterIndex, &st.Text, &st.AgreePercent); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		byID[st.ID] = st
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	statements := make([]models.Statement, 0, len(ids))
	for _, id := range ids {
		st, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStatement, id)
		}
		statements = append(statements, st)
	}
	return statements, nil
}

// Ready reports whether a conversation can seed a decision session in hiveID.
func Ready(c models.Conversation, hiveID string) bool {
	return c.HiveID == hiveID &&
		c.Type == models.ConversationTypeUnderstand &&
		c.AnalysisStatus == models.AnalysisStatusReady
}
