// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package decision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/hive-decide/auth"
	"github.com/danielhkuo/hive-decide/conversations"
	"github.com/danielhkuo/hive-decide/db"
	"github.com/danielhkuo/hive-decide/ledger"
	"github.com/danielhkuo/hive-decide/membership"
	"github.com/danielhkuo/hive-decide/models"
	"github.com/danielhkuo/hive-decide/rounds"
	"github.com/danielhkuo/hive-decide/store"
)

type Config struct {
	TxRetries uint
	Logger    *slog.Logger
}

type Service struct {
	conn    *sql.DB
	dialect db.Dialect
	ledger  *ledger.Ledger
	machine *rounds.Machine
	members membership.Checker
	source  conversations.Source
	retries uint
	logger  *slog.Logger
}

func NewService(conn *sql.DB, dialect db.Dialect, l *ledger.Ledger, machine *rounds.Machine, members membership.Checker, source conversations.Source, cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		conn:    conn,
		dialect: dialect,
		ledger:  l,
		machine: machine,
		members: members,
		source:  source,
		retries: cfg.TxRetries,
		logger:  cfg.Logger,
	}
}

func requireUser(userID string) error {
	if userID == "" {
		return models.ErrUnauthorized
	}
	return nil
}

// CreateDecisionSession creates a session, its first proposal set and round
// 1 as one unit.
func (s *Service) CreateDecisionSession(ctx context.Context, userID string, req models.CreateSessionRequest) (models.CreateSessionResponse, error) {
	if err := requireUser(userID); err != nil {
		return models.CreateSessionResponse{}, err
	}
	if err := models.Validate(req); err != nil {
		return models.CreateSessionResponse{}, err
	}
	if err := membership.RequireAdmin(ctx, s.members, userID, req.HiveID); err != nil {
		return models.CreateSessionResponse{}, err
	}

	conv, err := s.source.Get(ctx, req.SourceConversationID)
	if errors.Is(err, conversations.ErrNotFound) || (err == nil && !conversations.Ready(conv, req.HiveID)) {
		return models.CreateSessionResponse{}, models.ErrSourceConversationNotFound
	}
	if err != nil {
		return models.CreateSessionResponse{}, err
	}
	statements, err := s.source.Statements(ctx, conv.ID, req.SelectedStatements)
	if errors.Is(err, conversations.ErrUnknownStatement) {
		return models.CreateSessionResponse{}, models.ErrValidation.WithMessage(err.Error())
	}
	if err != nil {
		return models.CreateSessionResponse{}, err
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityHidden
	}
	now := store.Now()
	session := models.DecisionSession{
		ID:                   auth.NewID(),
		HiveID:               req.HiveID,
		SourceConversationID: conv.ID,
		Title:                req.Title,
		ConsensusThreshold:   req.ConsensusThreshold,
		Visibility:           visibility,
		CreatedBy:            userID,
		CreatedAt:            now,
	}
	round := models.DecisionRound{
		ID:          auth.NewID(),
		SessionID:   session.ID,
		RoundNumber: 1,
		ProposalSet: 1,
		Status:      models.StatusVotingOpen,
		Visibility:  visibility,
		Deadline:    req.Deadline,
		OpenedAt:    now,
	}
	proposals := rounds.ProposalsFromStatements(session.ID, 1, statements, now)

	err = db.InTx(ctx, s.conn, s.dialect.TxOptions(), s.retries, func(tx *sql.Tx) error {
		if err := store.InsertSession(ctx, tx, session); err != nil {
			return err
		}
		if err := store.InsertProposals(ctx, tx, proposals); err != nil {
			return err
		}
		return store.InsertRound(ctx, tx, round)
	})
	if err != nil {
		return models.CreateSessionResponse{}, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("decision session created",
		"session_id", session.ID,
		"hive_id", session.HiveID,
		"proposals", len(proposals),
		"visibility", visibility,
	)
	return models.CreateSessionResponse{SessionID: session.ID, RoundID: round.ID}, nil
}

// resolveSession maps a session id to its session, distinguishing plain
// conversations from unknown ids.
func (s *Service) resolveSession(ctx context.Context, sessionID string) (models.DecisionSession, error) {
	session, err := store.GetSession(ctx, s.conn, sessionID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return session, err
	}

	_, err = s.source.Get(ctx, sessionID)
	switch {
	case err == nil:
		return session, models.ErrNotDecisionSession
	case errors.Is(err, conversations.ErrNotFound):
		return session, models.ErrConversationNotFound
	}
	return session, err
}

func (s *Service) currentRound(ctx context.Context, sessionID string) (models.DecisionSession, models.DecisionRound, error) {
	session, err := s.resolveSession(ctx, sessionID)
	if err != nil {
		return session, models.DecisionRound{}, err
	}
	round, err := store.CurrentRound(ctx, s.conn, session.ID)
	if errors.Is(err, store.ErrNotFound) {
		return session, round, models.ErrRoundNotFound
	}
	return session, round, err
}

// GetSession returns a session with all its rounds and the proposals of the
// current round.
func (s *Service) GetSession(ctx context.Context, sessionID, userID string) (models.SessionDetail, error) {
	if err := requireUser(userID); err != nil {
		return models.SessionDetail{}, err
	}
	session, current, err := s.currentRound(ctx, sessionID)
	if err != nil {
		return models.SessionDetail{}, err
	}
	all, err := store.ListRounds(ctx, s.conn, session.ID)
	if err != nil {
		return models.SessionDetail{}, err
	}
	proposals, err := store.ProposalsBySet(ctx, s.conn, session.ID, current.ProposalSet)
	if err != nil {
		return models.SessionDetail{}, err
	}
	return models.SessionDetail{
		Session:      session,
		CurrentRound: current,
		Rounds:       all,
		Proposals:    proposals,
	}, nil
}

// GetUserVotes returns the caller's allocation in the current round.
func (s *Service) GetUserVotes(ctx context.Context, sessionID, userID string) (models.UserVotes, error) {
	if err := requireUser(userID); err != nil {
		return models.UserVotes{}, err
	}
	_, round, err := s.currentRound(ctx, sessionID)
	if err != nil {
		return models.UserVotes{}, err
	}
	return s.ledger.GetUserVotes(ctx, round.ID, userID)
}

// CastVote applies delta to the caller's votes for a proposal in the current
// round.
func (s *Service) CastVote(ctx context.Context, sessionID, proposalID, userID string, delta int) (models.VoteResult, error) {
	if err := requireUser(userID); err != nil {
		return models.VoteResult{Success: false, ErrorCode: models.CodeUnauthorized}, err
	}
	_, round, err := s.currentRound(ctx, sessionID)
	if err != nil {
		return models.VoteResult{Success: false, ErrorCode: models.CodeOf(err)}, err
	}
	return s.ledger.CastVote(ctx, round.ID, userID, proposalID, delta)
}

// CloseRound closes a round for a hive admin and returns its result.
func (s *Service) CloseRound(ctx context.Context, roundID, userID string) (models.DecisionResult, error) {
	if err := requireUser(userID); err != nil {
		return models.DecisionResult{}, err
	}
	return s.machine.Close(ctx, roundID, userID)
}

// StartNewRound opens the next round of a session for a hive admin.
func (s *Service) StartNewRound(ctx context.Context, sessionID, userID string, req models.StartRoundRequest) (models.StartRoundResponse, error) {
	if err := requireUser(userID); err != nil {
		return models.StartRoundResponse{}, err
	}
	session, err := s.resolveSession(ctx, sessionID)
	if err != nil {
		return models.StartRoundResponse{}, err
	}
	return s.machine.StartNewRound(ctx, session, userID, req)
}

// GetResults returns the snapshot of a round. Results of a round still open
// are sealed.
func (s *Service) GetResults(ctx context.Context, sessionID string, roundNumber int, userID string) (models.DecisionResult, error) {
	if err := requireUser(userID); err != nil {
		return models.DecisionResult{}, err
	}
	session, err := s.resolveSession(ctx, sessionID)
	if err != nil {
		return models.DecisionResult{}, err
	}
	round, err := store.RoundByNumber(ctx, s.conn, session.ID, roundNumber)
	if errors.Is(err, store.ErrNotFound) {
		return models.DecisionResult{}, models.ErrRoundNotFound
	}
	if err != nil {
		return models.DecisionResult{}, err
	}
	if !round.Status.IsClosed() {
		return models.DecisionResult{}, models.ErrRoundNotClosed
	}

	result, err := store.GetResult(ctx, s.conn, round.ID)
	if errors.Is(err, store.ErrNotFound) {
		return models.DecisionResult{}, models.ErrTransient.WithMessage("results are being generated")
	}
	return result, err
}

// GetLiveTally returns the current round's totals. While the round is open
// the totals are only visible in aggregate or transparent mode, and per-voter
// allocations only in transparent mode.
func (s *Service) GetLiveTally(ctx context.Context, sessionID, userID string) (models.LiveTally, error) {
	if err := requireUser(userID); err != nil {
		return models.LiveTally{}, err
	}
	_, round, err := s.currentRound(ctx, sessionID)
	if err != nil {
		return models.LiveTally{}, err
	}
	if round.Status.CanAcceptVotes() && round.Visibility == models.VisibilityHidden {
		return models.LiveTally{}, models.ErrResultsHidden
	}

	totals, voters, err := store.Totals(ctx, s.conn, round.ID)
	if err != nil {
		return models.LiveTally{}, err
	}
	tally := models.LiveTally{
		RoundID:    round.ID,
		Visibility: round.Visibility,
		Totals:     totals,
		VoterCount: voters,
	}
	if round.Visibility == models.VisibilityTransparent {
		if tally.PerVoter, err = store.VotesByUser(ctx, s.conn, round.ID); err != nil {
			return models.LiveTally{}, err
		}
	}
	return tally, nil
}
