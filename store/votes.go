// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/danielhkuo/hive-decide/db"
)

// UserVotes returns a user's non-zero allocations in a round keyed by
// proposal id.
func UserVotes(ctx context.Context, q db.Querier, roundID, userID string) (map[string]int, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT proposal_id, votes
		FROM vote
		WHERE round_id = $1 AND user_id = $2 AND votes > 0
	`, roundID, userID)
	if err != nil {
		return nil, fmt.Errorf("query votes: %w", err)
	}
	defer rows.Close()

	votes := map[string]int{}
	for rows.Next() {
		var proposalID string
		var n int
		if err := rows.Scan(&proposalID, &n); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		votes[proposalID] = n
	}
	return votes, rows.Err()
}

// UpsertVote sets a user's vote count for a proposal. Zero is stored as is.
func UpsertVote(ctx context.Context, q db.Querier, roundID, userID, proposalID string, votes int, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO vote (round_id, user_id, proposal_id, votes, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (round_id, user_id, proposal_id)
		DO UPDATE SET votes = excluded.votes, updated_at = excluded.updated_at
	`, roundID, userID, proposalID, votes, Timestamp(at))
	if err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}
	return nil
}

// Totals returns the summed votes per proposal in a round and the number of
// users holding at least one vote.
func Totals(ctx context.Context, q db.Querier, roundID string) (map[string]int, int, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT proposal_id, SUM(votes)
		FROM vote
		WHERE round_id = $1 AND votes > 0
		GROUP BY proposal_id
	`, roundID)
	if err != nil {
		return nil, 0, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()

	totals := map[string]int{}
	for rows.Next() {
		var proposalID string
		var n int64
		if err := rows.Scan(&proposalID, &n); err != nil {
			return nil, 0, fmt.Errorf("scan total: %w", err)
		}
		totals[proposalID] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	var voters int64
	err = q.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT user_id)
		FROM vote
		WHERE round_id = $1 AND votes > 0
	`, roundID).Scan(&voters)
	if err != nil {
		return nil, 0, fmt.Errorf("count voters: %w", err)
	}
	return totals, int(voters), nil
}

// VotesByUser returns every non-zero allocation in a round grouped by user.
func VotesByUser(ctx context.Context, q db.Querier, roundID string) (map[string]map[string]int, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT user_id, proposal_id, votes
		FROM vote
		WHERE round_id = $1 AND votes > 0
		ORDER BY user_id, proposal_id
	`, roundID)
	if err != nil {
		return nil, fmt.Errorf("query votes: %w", err)
	}
	defer rows.Close()

	byUser := map[string]map[string]int{}
	for rows.Next() {
		var userID, proposalID string
		var n int
		if err := rows.Scan(&userID, &proposalID, &n); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		if byUser[userID] == nil {
			byUser[userID] = map[string]int{}
		}
		byUser[userID][proposalID] = n
	}
	return byUser, rows.Err()
}
