// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danielhkuo/hive-decide/db"
	"github.com/danielhkuo/hive-decide/models"
)

const roundColumns = `id, session_id, round_number, proposal_set, status, visibility, deadline, opened_at, closed_at`

func scanRound(row interface{ Scan(...any) error }) (models.DecisionRound, error) {
	var r models.DecisionRound
	err := row.Scan(
		&r.ID, &r.SessionID, &r.RoundNumber, &r.ProposalSet, &r.Status,
		&r.Visibility, &r.Deadline, &r.OpenedAt, &r.ClosedAt,
	)
	return r, err
}

func queryRounds(ctx context.Context, q db.Querier, query string, args ...any) ([]models.DecisionRound, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	rounds := []models.DecisionRound{}
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

func oneRound(row *sql.Row) (models.DecisionRound, error) {
	r, err := scanRound(row)
	if err == sql.ErrNoRows {
		return r, ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("query round: %w", err)
	}
	return r, nil
}

// InsertRound writes a new round. A second open round for the same session,
// or a reused round number, fails with a unique violation.
func InsertRound(ctx context.Context, q db.Querier, r models.DecisionRound) error {
	var deadline any
	if r.Deadline != nil {
		deadline = Timestamp(*r.Deadline)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO decision_round (id, session_id, round_number, proposal_set, status, visibility, deadline, opened_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.ID, r.SessionID, r.RoundNumber, r.ProposalSet, string(r.Status), string(r.Visibility), deadline, Timestamp(r.OpenedAt))
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

// GetRound loads a round by id.
func GetRound(ctx context.Context, q db.Querier, id string) (models.DecisionRound, error) {
	return oneRound(q.QueryRowContext(ctx, `
		SELECT `+roundColumns+`
		FROM decision_round
		WHERE id = $1
	`, id))
}

// LockRound loads a round and holds a share lock on it until the enclosing
// transaction ends, so a concurrent close cannot commit in between.
func LockRound(ctx context.Context, q db.Querier, dialect db.Dialect, id string) (models.DecisionRound, error) {
	return oneRound(q.QueryRowContext(ctx, `
		SELECT `+roundColumns+`
		FROM decision_round
		WHERE id = $1`+dialect.ShareLock(), id))
}

// CurrentRound returns the session's round with the highest number.
func CurrentRound(ctx context.Context, q db.Querier, sessionID string) (models.DecisionRound, error) {
	return oneRound(q.QueryRowContext(ctx, `
		SELECT `+roundColumns+`
		FROM decision_round
		WHERE session_id = $1
		ORDER BY round_number DESC
		LIMIT 1
	`, sessionID))
}

// RoundByNumber loads a session's round by its number.
func RoundByNumber(ctx context.Context, q db.Querier, sessionID string, number int) (models.DecisionRound, error) {
	return oneRound(q.QueryRowContext(ctx, `
		SELECT `+roundColumns+`
		FROM decision_round
		WHERE session_id = $1 AND round_number = $2
	`, sessionID, number))
}

// ListRounds returns all rounds of a session, oldest first.
func ListRounds(ctx context.Context, q db.Querier, sessionID string) ([]models.DecisionRound, error) {
	return queryRounds(ctx, q, `
		SELECT `+roundColumns+`
		FROM decision_round
		WHERE session_id = $1
		ORDER BY round_number
	`, sessionID)
}

// MarkClosed flips an open round to voting_closed. It reports false when the
// round was not open, meaning another caller already closed it.
func MarkClosed(ctx context.Context, q db.Querier, id string, closedAt time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE decision_round
		SET status = $1, closed_at = $2
		WHERE id = $3 AND status = $4
	`, string(models.StatusVotingClosed), Timestamp(closedAt), id, string(models.StatusVotingOpen))
	if err != nil {
		return false, fmt.Errorf("close round: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close round: %w", err)
	}
	return n == 1, nil
}

// OverdueRounds returns open rounds whose deadline is at or before now.
func OverdueRounds(ctx context.Context, q db.Querier, now time.Time) ([]models.DecisionRound, error) {
	rounds, err := queryRounds(ctx, q, `
		SELECT `+roundColumns+`
		FROM decision_round
		WHERE status = $1 AND deadline IS NOT NULL
		ORDER BY opened_at
	`, string(models.StatusVotingOpen))
	if err != nil {
		return nil, err
	}
	due := rounds[:0]
	for _, r := range rounds {
		if !r.Deadline.After(now) {
			due = append(due, r)
		}
	}
	return due, nil
}

// UnfinalizedRounds returns closed rounds with no snapshot whose close is at
// or before cutoff.
func UnfinalizedRounds(ctx context.Context, q db.Querier, cutoff time.Time) ([]models.DecisionRound, error) {
	rounds, err := queryRounds(ctx, q, `
		SELECT `+roundColumns+`
		FROM decision_round
		WHERE status = $1
		ORDER BY closed_at
	`, string(models.StatusVotingClosed))
	if err != nil {
		return nil, err
	}
	stale := rounds[:0]
	for _, r := range rounds {
		if r.ClosedAt == nil || !r.ClosedAt.After(cutoff) {
			stale = append(stale, r)
		}
	}
	return stale, nil
}
