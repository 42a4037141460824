// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/danielhkuo/hive-decide/db"
	"github.com/danielhkuo/hive-decide/models"
)

// resultPayload is the JSON stored in decision_result.payload.
type resultPayload struct {
	Rankings   []models.RankedProposal `json:"rankings"`
	TotalVotes int                     `json:"total_votes"`
	VoterCount int                     `json:"voter_count"`
}

// GetResult loads the snapshot of a round.
func GetResult(ctx context.Context, q db.Querier, roundID string) (models.DecisionResult, error) {
	var res models.DecisionResult
	var payloadJSON []byte
	err := q.QueryRowContext(ctx, `
		SELECT round_id, session_id, round_number, payload, analysis, generated_at
		FROM decision_result
		WHERE round_id = $1
	`, roundID).Scan(
		&res.RoundID, &res.SessionID, &res.RoundNumber,
		&payloadJSON, &res.Analysis, &res.GeneratedAt,
	)
	if err == sql.ErrNoRows {
		return res, ErrNotFound
	}
	if err != nil {
		return res, fmt.Errorf("query result: %w", err)
	}

	var payload resultPayload
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return res, fmt.Errorf("parse result payload: %w", err)
	}
	res.Rankings = payload.Rankings
	if res.Rankings == nil {
		res.Rankings = []models.RankedProposal{}
	}
	res.TotalVotes = payload.TotalVotes
	res.VoterCount = payload.VoterCount
	return res, nil
}

// SaveResult moves the round from voting_closed to results_generated and
// writes its snapshot. Both happen in q, which must be a transaction. It
// reports false, writing nothing, when the round was already finalized.
func SaveResult(ctx context.Context, q db.Querier, res models.DecisionResult) (bool, error) {
	upd, err := q.ExecContext(ctx, `
		UPDATE decision_round
		SET status = $1
		WHERE id = $2 AND status = $3
	`, string(models.StatusResultsGenerated), res.RoundID, string(models.StatusVotingClosed))
	if err != nil {
		return false, fmt.Errorf("finalize round: %w", err)
	}
	n, err := upd.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("finalize round: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	payload, err := json.Marshal(resultPayload{
		Rankings:   res.Rankings,
		TotalVotes: res.TotalVotes,
		VoterCount: res.VoterCount,
	})
	if err != nil {
		return false, fmt.Errorf("encode result payload: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO decision_result (round_id, session_id, round_number, payload, analysis, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, res.RoundID, res.SessionID, res.RoundNumber, string(payload), nullable(res.Analysis), Timestamp(res.GeneratedAt))
	if err != nil {
		return false, fmt.Errorf("insert result: %w", err)
	}
	return true, nil
}

// PreviousResult returns the snapshot of the round numbered one below, or
// ErrNotFound for the first round or a previous round without a snapshot.
func PreviousResult(ctx context.Context, q db.Querier, sessionID string, roundNumber int) (models.DecisionResult, error) {
	if roundNumber <= 1 {
		return models.DecisionResult{}, ErrNotFound
	}
	prev, err := RoundByNumber(ctx, q, sessionID, roundNumber-1)
	if err != nil {
		return models.DecisionResult{}, err
	}
	return GetResult(ctx, q, prev.ID)
}
