// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package ledger records per-user vote counts for a round. Every mutation
// re-reads the user's allocation and validates it against the credit budget
// inside one transaction, so concurrent votes from the same user can never
// overspend.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/danielhkuo/hive-decide/budget"
	"github.com/danielhkuo/hive-decide/db"
	"github.com/danielhkuo/hive-decide/metrics"
	"github.com/danielhkuo/hive-decide/models"
	"github.com/danielhkuo/hive-decide/store"
)

type Ledger struct {
	conn       *sql.DB
	dialect    db.Dialect
	accountant budget.Accountant
	retries    uint
	logger     *slog.Logger
}

func New(conn *sql.DB, dialect db.Dialect, accountant budget.Accountant, retries uint, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		conn:       conn,
		dialect:    dialect,
		accountant: accountant,
		retries:    retries,
		logger:     logger,
	}
}

// Credits returns the per-user budget the ledger enforces.
func (l *Ledger) Credits() int {
	return l.accountant.Credits
}

// GetUserVotes returns a user's allocation in a round. It works in every
// round state.
func (l *Ledger) GetUserVotes(ctx context.Context, roundID, userID string) (models.UserVotes, error) {
	if _, err := store.GetRound(ctx, l.conn, roundID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.UserVotes{}, models.ErrRoundNotFound
		}
		return models.UserVotes{}, err
	}

	votes, err := store.UserVotes(ctx, l.conn, roundID, userID)
	if err != nil {
		return models.UserVotes{}, err
	}

	spent := budget.Spent(votes)
	return models.UserVotes{
		RoundID:           roundID,
		Votes:             votes,
		TotalCreditsSpent: spent,
		RemainingCredits:  l.accountant.Credits - spent,
		CreditBudget:      l.accountant.Credits,
	}, nil
}

// CastVote applies delta to the user's count for proposalID. On a coded
// failure the returned VoteResult carries the code alongside the error and
// nothing is written.
func (l *Ledger) CastVote(ctx context.Context, roundID, userID, proposalID string, delta int) (models.VoteResult, error) {
	result, err := l.castVote(ctx, roundID, userID, proposalID, delta)
	if err != nil {
		code := models.CodeOf(err)
		metrics.VotesCast.WithLabelValues(string(code)).Inc()
		var coded *models.Error
		if errors.As(err, &coded) {
			return models.VoteResult{Success: false, ErrorCode: code, Message: coded.Message}, err
		}
		return models.VoteResult{}, err
	}

	metrics.VotesCast.WithLabelValues("ok").Inc()
	l.logger.Debug("vote cast",
		"round_id", roundID,
		"proposal_id", proposalID,
		"delta", delta,
		"new_votes", result.NewVotes,
		"remaining", result.RemainingCredits,
	)
	return result, nil
}

func (l *Ledger) castVote(ctx context.Context, roundID, userID, proposalID string, delta int) (models.VoteResult, error) {
	if delta == 0 {
		return models.VoteResult{}, models.ErrValidation.WithMessage("delta must be non-zero")
	}

	var alloc budget.Allocation
	err := db.InTx(ctx, l.conn, l.dialect.TxOptions(), l.retries, func(tx *sql.Tx) error {
		round, err := store.LockRound(ctx, tx, l.dialect, roundID)
		if errors.Is(err, store.ErrNotFound) {
			return models.ErrRoundNotFound
		}
		if err != nil {
			return err
		}
		if !round.Status.CanAcceptVotes() {
			return models.ErrRoundNotOpen
		}
		// Voting ends at the deadline even before the sweeper closes the round.
		if round.Deadline != nil && !round.Deadline.After(store.Now()) {
			return models.ErrRoundNotOpen.WithMessage("round deadline has passed")
		}

		proposal, err := store.GetProposal(ctx, tx, proposalID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && proposal.SessionID != round.SessionID) {
			return models.ErrResponseNotFound
		}
		if err != nil {
			return err
		}
		if proposal.ProposalSet != round.ProposalSet {
			return models.ErrNotAProposal
		}

		current, err := store.UserVotes(ctx, tx, roundID, userID)
		if err != nil {
			return err
		}
		alloc, err = l.accountant.Check(current, proposalID, delta)
		if err != nil {
			return err
		}

		return store.UpsertVote(ctx, tx, roundID, userID, proposalID, alloc.NewVotes, store.Now())
	})
	if err != nil {
		return models.VoteResult{}, err
	}

	return models.VoteResult{
		Success:          true,
		NewVotes:         alloc.NewVotes,
		RemainingCredits: alloc.RemainingCredits,
	}, nil
}
