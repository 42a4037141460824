// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/hive-decide/db"
	"github.com/danielhkuo/hive-decide/metrics"
	"github.com/danielhkuo/hive-decide/models"
	"github.com/danielhkuo/hive-decide/store"
)

type Aggregator struct {
	conn     *sql.DB
	narrator Narrator
	retries  uint
	logger   *slog.Logger
}

// NewAggregator returns an Aggregator. A nil narrator disables analysis.
func NewAggregator(conn *sql.DB, narrator Narrator, retries uint, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{conn: conn, narrator: narrator, retries: retries, logger: logger}
}

// Compute builds the result of a round from the current ledger without
// persisting it.
func (a *Aggregator) Compute(ctx context.Context, round models.DecisionRound) (models.DecisionResult, error) {
	proposals, err := store.ProposalsBySet(ctx, a.conn, round.SessionID, round.ProposalSet)
	if err != nil {
		return models.DecisionResult{}, err
	}
	totals, voters, err := store.Totals(ctx, a.conn, round.ID)
	if err != nil {
		return models.DecisionResult{}, err
	}

	var previous []models.RankedProposal
	prev, err := store.PreviousResult(ctx, a.conn, round.SessionID, round.RoundNumber)
	switch {
	case err == nil:
		previous = prev.Rankings
	case !errors.Is(err, store.ErrNotFound):
		return models.DecisionResult{}, err
	}

	rankings := Rank(proposals, totals, previous)
	return models.DecisionResult{
		RoundID:     round.ID,
		SessionID:   round.SessionID,
		RoundNumber: round.RoundNumber,
		Rankings:    rankings,
		TotalVotes:  Sum(rankings),
		VoterCount:  voters,
		GeneratedAt: store.Now(),
	}, nil
}

// Aggregate computes and persists the snapshot of a closed round and returns
// the stored snapshot. When another caller already persisted one, that
// snapshot is returned unchanged.
func (a *Aggregator) Aggregate(ctx context.Context, round models.DecisionRound) (models.DecisionResult, error) {
	start := time.Now()
	defer func() {
		metrics.AggregationDuration.Observe(time.Since(start).Seconds())
	}()

	result, err := a.Compute(ctx, round)
	if err != nil {
		return models.DecisionResult{}, fmt.Errorf("compute result: %w", err)
	}
	a.narrate(ctx, round, &result)

	var saved bool
	err = db.InTx(ctx, a.conn, nil, a.retries, func(tx *sql.Tx) error {
		var err error
		saved, err = store.SaveResult(ctx, tx, result)
		if err != nil || saved {
			return err
		}
		result, err = store.GetResult(ctx, tx, round.ID)
		if errors.Is(err, store.ErrNotFound) {
			return models.ErrRoundNotClosed
		}
		return err
	})
	if err != nil {
		return models.DecisionResult{}, err
	}

	if saved {
		a.logger.Info("results generated",
			"round_id", round.ID,
			"session_id", round.SessionID,
			"round_number", round.RoundNumber,
			"total_votes", result.TotalVotes,
			"voters", result.VoterCount,
		)
	}
	return result, nil
}

func (a *Aggregator) narrate(ctx context.Context, round models.DecisionRound, result *models.DecisionResult) {
	if a.narrator == nil {
		return
	}
	session, err := store.GetSession(ctx, a.conn, round.SessionID)
	if err != nil {
		a.logger.Warn("analysis skipped", "round_id", round.ID, "error", err)
		return
	}
	text, err := a.narrator.Narrate(ctx, session, *result)
	if err != nil {
		a.logger.Warn("analysis failed", "round_id", round.ID, "error", err)
		return
	}
	if text != "" {
		result.Analysis = &text
	}
}
