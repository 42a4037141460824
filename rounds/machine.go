// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rounds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/singleflight"

	"github.com/danielhkuo/hive-decide/auth"
	"github.com/danielhkuo/hive-decide/conversations"
	"github.com/danielhkuo/hive-decide/db"
	"github.com/danielhkuo/hive-decide/membership"
	"github.com/danielhkuo/hive-decide/metrics"
	"github.com/danielhkuo/hive-decide/models"
	"github.com/danielhkuo/hive-decide/store"
)

// DefaultResultWait bounds how long a close waits on another close.
const DefaultResultWait = 2 * time.Second

// Aggregator produces and persists the snapshot of a closed round. It must
// return the stored snapshot when one already exists.
type Aggregator interface {
	Aggregate(ctx context.Context, round models.DecisionRound) (models.DecisionResult, error)
}

type Config struct {
	ResultWait time.Duration
	TxRetries  uint
	Logger     *slog.Logger
}

type Machine struct {
	conn       *sql.DB
	dialect    db.Dialect
	members    membership.Checker
	source     conversations.Source
	aggregator Aggregator
	resultWait time.Duration
	retries    uint
	logger     *slog.Logger
	flights    singleflight.Group
}

func NewMachine(conn *sql.DB, dialect db.Dialect, members membership.Checker, source conversations.Source, aggregator Aggregator, cfg Config) *Machine {
	if cfg.ResultWait <= 0 {
		cfg.ResultWait = DefaultResultWait
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Machine{
		conn:       conn,
		dialect:    dialect,
		members:    members,
		source:     source,
		aggregator: aggregator,
		resultWait: cfg.ResultWait,
		retries:    cfg.TxRetries,
		logger:     cfg.Logger,
	}
}

// Close ends voting on a round on behalf of a hive admin and returns the
// round's result. An unknown round id is FORBIDDEN, the same as a round the
// caller may not close.
func (m *Machine) Close(ctx context.Context, roundID, userID string) (models.DecisionResult, error) {
	round, err := store.GetRound(ctx, m.conn, roundID)
	if errors.Is(err, store.ErrNotFound) {
		return models.DecisionResult{}, models.ErrForbidden
	}
	if err != nil {
		return models.DecisionResult{}, err
	}
	session, err := store.GetSession(ctx, m.conn, round.SessionID)
	if err != nil {
		return models.DecisionResult{}, fmt.Errorf("load session: %w", err)
	}
	if err := membership.RequireAdmin(ctx, m.members, userID, session.HiveID); err != nil {
		return models.DecisionResult{}, err
	}
	return m.Finalize(ctx, roundID)
}

// Finalize closes a round if it is open and returns its snapshot, generating
// it if needed. It performs no authorization.
//
// Callers for the same round share one flight. The flight runs detached from
// any single caller's cancellation; each caller stops waiting on its own ctx.
func (m *Machine) Finalize(ctx context.Context, roundID string) (models.DecisionResult, error) {
	ch := m.flights.DoChan(roundID, func() (any, error) {
		return m.finalize(context.WithoutCancel(ctx), roundID)
	})
	select {
	case <-ctx.Done():
		return models.DecisionResult{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return models.DecisionResult{}, res.Err
		}
		return res.Val.(models.DecisionResult), nil
	}
}

func (m *Machine) finalize(ctx context.Context, roundID string) (models.DecisionResult, error) {
	round, err := store.GetRound(ctx, m.conn, roundID)
	if errors.Is(err, store.ErrNotFound) {
		return models.DecisionResult{}, models.ErrRoundNotFound
	}
	if err != nil {
		return models.DecisionResult{}, err
	}

	if round.Status.CanClose() {
		closedAt := store.Now()
		won, err := store.MarkClosed(ctx, m.conn, roundID, closedAt)
		if err != nil {
			return models.DecisionResult{}, err
		}
		if won {
			round.Status = models.StatusVotingClosed
			round.ClosedAt = &closedAt
			m.logger.Info("round closed", "round_id", roundID, "session_id", round.SessionID, "round_number", round.RoundNumber)

			result, err := m.aggregator.Aggregate(ctx, round)
			if err != nil {
				m.logger.Error("failed to generate results", "round_id", roundID, "error", err)
				return models.DecisionResult{}, err
			}
			metrics.RoundsClosed.WithLabelValues(metrics.ClosePathWinner).Inc()
			return result, nil
		}

		// Someone else closed it between our read and our update.
		if round, err = store.GetRound(ctx, m.conn, roundID); err != nil {
			return models.DecisionResult{}, err
		}
	}

	return m.awaitResult(ctx, round)
}

var errResultPending = errors.New("result pending")

// awaitResult polls for the snapshot of a closed round. Once the round has
// been closed for longer than resultWait without a snapshot it aggregates
// the round itself.
func (m *Machine) awaitResult(ctx context.Context, round models.DecisionRound) (models.DecisionResult, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond

	path := metrics.ClosePathReplay
	result, err := backoff.Retry(ctx, func() (models.DecisionResult, error) {
		res, err := store.GetResult(ctx, m.conn, round.ID)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return res, backoff.Permanent(err)
		}
		if !m.stale(round) {
			return res, errResultPending
		}

		m.logger.Warn("recovering round without results", "round_id", round.ID, "closed_at", round.ClosedAt)
		path = metrics.ClosePathRecovered
		res, err = m.aggregator.Aggregate(ctx, round)
		if err != nil {
			return res, backoff.Permanent(err)
		}
		return res, nil
	}, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(2*m.resultWait+time.Second))

	if errors.Is(err, errResultPending) {
		return models.DecisionResult{}, models.ErrTransient.WithMessage("results are still being generated")
	}
	if err != nil {
		return models.DecisionResult{}, err
	}
	metrics.RoundsClosed.WithLabelValues(path).Inc()
	return result, nil
}

func (m *Machine) stale(round models.DecisionRound) bool {
	return round.ClosedAt == nil || time.Since(*round.ClosedAt) >= m.resultWait
}

// StartNewRound opens the next round of a session for a hive admin.
func (m *Machine) StartNewRound(ctx context.Context, session models.DecisionSession, userID string, req models.StartRoundRequest) (models.StartRoundResponse, error) {
	if err := models.Validate(req); err != nil {
		return models.StartRoundResponse{}, err
	}
	if !req.KeepProposals && len(req.SelectedStatements) == 0 {
		return models.StartRoundResponse{}, models.ErrValidation.WithMessage("selected_statements required when keep_proposals is false")
	}
	if err := membership.RequireAdmin(ctx, m.members, userID, session.HiveID); err != nil {
		return models.StartRoundResponse{}, err
	}

	current, err := store.CurrentRound(ctx, m.conn, session.ID)
	if err != nil {
		return models.StartRoundResponse{}, fmt.Errorf("load current round: %w", err)
	}
	if !current.Status.IsFinal() {
		return models.StartRoundResponse{}, models.ErrRoundNotClosedOrFinalized
	}

	var statements []models.Statement
	if !req.KeepProposals {
		statements, err = m.source.Statements(ctx, session.SourceConversationID, req.SelectedStatements)
		if errors.Is(err, conversations.ErrUnknownStatement) {
			return models.StartRoundResponse{}, models.ErrValidation.WithMessage(err.Error())
		}
		if err != nil {
			return models.StartRoundResponse{}, err
		}
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = current.Visibility
	}
	now := store.Now()
	next := models.DecisionRound{
		ID:          auth.NewID(),
		SessionID:   session.ID,
		RoundNumber: current.RoundNumber + 1,
		ProposalSet: current.ProposalSet,
		Status:      models.StatusVotingOpen,
		Visibility:  visibility,
		Deadline:    req.Deadline,
		OpenedAt:    now,
	}

	err = db.InTx(ctx, m.conn, m.dialect.TxOptions(), m.retries, func(tx *sql.Tx) error {
		latest, err := store.CurrentRound(ctx, tx, session.ID)
		if err != nil {
			return err
		}
		if latest.ID != current.ID || !latest.Status.IsFinal() {
			return models.ErrRoundNotClosedOrFinalized
		}

		if !req.KeepProposals {
			set, err := store.MaxProposalSet(ctx, tx, session.ID)
			if err != nil {
				return err
			}
			next.ProposalSet = set + 1
			if err := store.InsertProposals(ctx, tx, ProposalsFromStatements(session.ID, next.ProposalSet, statements, now)); err != nil {
				return err
			}
		}
		return store.InsertRound(ctx, tx, next)
	})
	if db.IsUniqueViolation(err) {
		return models.StartRoundResponse{}, models.ErrRoundNotClosedOrFinalized
	}
	if err != nil {
		return models.StartRoundResponse{}, err
	}

	m.logger.Info("round started",
		"round_id", next.ID,
		"session_id", session.ID,
		"round_number", next.RoundNumber,
		"proposal_set", next.ProposalSet,
		"kept_proposals", req.KeepProposals,
	)
	return models.StartRoundResponse{RoundID: next.ID, RoundNumber: next.RoundNumber}, nil
}

// ProposalsFromStatements builds one proposal per statement, in order.
func ProposalsFromStatements(sessionID string, set int, statements []models.Statement, createdAt time.Time) []models.Proposal {
	proposals := make([]models.Proposal, len(statements))
	for i, st := range statements {
		proposals[i] = models.Proposal{
			ID:                 auth.NewID(),
			SessionID:          sessionID,
			ProposalSet:        set,
			SourceClusterIndex: st.ClusterIndex,
			StatementText:      st.Text,
			DisplayOrder:       i,
			AgreePercent:       st.AgreePercent,
			CreatedAt:          createdAt,
		}
	}
	return proposals
}
