// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package sweeper finalizes rounds nobody closed by hand: open rounds past
// their deadline, and closed rounds whose result was never written.
package sweeper

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/danielhkuo/hive-decide/metrics"
	"github.com/danielhkuo/hive-decide/models"
	"github.com/danielhkuo/hive-decide/store"
)

// Finalizer closes a round and produces its result. rounds.Machine
// implements it.
type Finalizer interface {
	Finalize(ctx context.Context, roundID string) (models.DecisionResult, error)
}

type Sweeper struct {
	conn       *sql.DB
	finalizer  Finalizer
	interval   time.Duration
	resultWait time.Duration
	logger     *slog.Logger
}

// New returns a Sweeper. Closed rounds count as unfinished once they have
// gone resultWait without a result.
func New(conn *sql.DB, finalizer Finalizer, interval, resultWait time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		conn:       conn,
		finalizer:  finalizer,
		interval:   interval,
		resultWait: resultWait,
		logger:     logger,
	}
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("deadline sweeper disabled")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("sweep failed", "error", err)
			}
		}
	}
}

// Sweep runs one pass and returns how many rounds it finalized. A failure
// on one round is logged and does not stop the pass.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := time.Now()
	overdue, err := store.OverdueRounds(ctx, s.conn, now)
	if err != nil {
		return 0, err
	}
	unfinished, err := store.UnfinalizedRounds(ctx, s.conn, now.Add(-s.resultWait))
	if err != nil {
		return 0, err
	}

	done := 0
	for _, round := range append(overdue, unfinished...) {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		if _, err := s.finalizer.Finalize(ctx, round.ID); err != nil {
			s.logger.Error("failed to finalize round", "round_id", round.ID, "status", round.Status, "error", err)
			continue
		}
		s.logger.Info("round finalized by sweeper", "round_id", round.ID, "previous_status", round.Status)
		metrics.RoundsSwept.Inc()
		done++
	}
	return done, nil
}
