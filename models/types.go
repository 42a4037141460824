// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// RoundStatus is the lifecycle state of a decision round.
type RoundStatus string

// Round status constants
const (
	StatusVotingOpen       RoundStatus = "voting_open"
	StatusVotingClosed     RoundStatus = "voting_closed"
	StatusResultsGenerated RoundStatus = "results_generated"
)

// CanAcceptVotes reports whether votes may be cast in this state.
func (s RoundStatus) CanAcceptVotes() bool {
	return s == StatusVotingOpen
}

// CanClose reports whether a close request will flip the status.
func (s RoundStatus) CanClose() bool {
	return s == StatusVotingOpen
}

// IsClosed reports whether the round has left voting_open.
func (s RoundStatus) IsClosed() bool {
	return s == StatusVotingClosed || s == StatusResultsGenerated
}

// IsFinal reports whether the round has its result snapshot.
func (s RoundStatus) IsFinal() bool {
	return s == StatusResultsGenerated
}

// Visibility controls what voters see while a round is open.
type Visibility string

// Visibility constants
const (
	VisibilityHidden      Visibility = "hidden"
	VisibilityAggregate   Visibility = "aggregate"
	VisibilityTransparent Visibility = "transparent"
)

// Valid reports whether v is a known visibility mode.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityHidden, VisibilityAggregate, VisibilityTransparent:
		return true
	}
	return false
}

// Upstream conversation types and analysis states
const (
	ConversationTypeUnderstand = "understand"
	ConversationTypeDecide     = "decide"
	AnalysisStatusReady        = "ready"
)

// RoleAdmin is the hive membership role allowed to manage sessions.
const RoleAdmin = "admin"

// Request types

type CreateSessionRequest struct {
	HiveID               string     `json:"hive_id" validate:"required,max=128"`
	SourceConversationID string     `json:"source_conversation_id" validate:"required,max=128"`
	Title                string     `json:"title" validate:"required,max=200"`
	SelectedStatements   []string   `json:"selected_statements" validate:"required,min=1,max=50,unique,dive,required"`
	ConsensusThreshold   float64    `json:"consensus_threshold" validate:"gte=0,lte=100"`
	Visibility           Visibility `json:"visibility" validate:"omitempty,oneof=hidden aggregate transparent"`
	Deadline             *time.Time `json:"deadline,omitempty"`
}

type CastVoteRequest struct {
	ProposalID string `json:"proposal_id" validate:"required"`
	Delta      int    `json:"delta" validate:"required"`
}

type StartRoundRequest struct {
	KeepProposals      bool       `json:"keep_proposals"`
	SelectedStatements []string   `json:"selected_statements,omitempty" validate:"omitempty,max=50,unique,dive,required"`
	Visibility         Visibility `json:"visibility,omitempty" validate:"omitempty,oneof=hidden aggregate transparent"`
	Deadline           *time.Time `json:"deadline,omitempty"`
}

// Response types

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	RoundID   string `json:"round_id"`
}

type StartRoundResponse struct {
	RoundID     string `json:"round_id"`
	RoundNumber int    `json:"round_number"`
}

type CloseRoundResponse struct {
	Result DecisionResult `json:"result"`
}

// UserVotes is one user's allocation in a round.
type UserVotes struct {
	RoundID           string         `json:"round_id"`
	Votes             map[string]int `json:"votes"`
	TotalCreditsSpent int            `json:"total_credits_spent"`
	RemainingCredits  int            `json:"remaining_credits"`
	CreditBudget      int            `json:"credit_budget"`
}

// VoteResult is the outcome of a single vote mutation.
type VoteResult struct {
	Success          bool   `json:"success"`
	NewVotes         int    `json:"new_votes"`
	RemainingCredits int    `json:"remaining_credits"`
	ErrorCode        Code   `json:"error_code,omitempty"`
	Message          string `json:"message,omitempty"`
}

type SessionDetail struct {
	Session      DecisionSession `json:"session"`
	CurrentRound DecisionRound   `json:"current_round"`
	Rounds       []DecisionRound `json:"rounds"`
	Proposals    []Proposal      `json:"proposals"`
}

// LiveTally is the in-progress view of an open round.
type LiveTally struct {
	RoundID    string                    `json:"round_id"`
	Visibility Visibility                `json:"visibility"`
	Totals     map[string]int            `json:"totals"`
	VoterCount int                       `json:"voter_count"`
	PerVoter   map[string]map[string]int `json:"per_voter,omitempty"`
}

// Domain types

type DecisionSession struct {
	ID                   string     `json:"id"`
	HiveID               string     `json:"hive_id"`
	SourceConversationID string     `json:"source_conversation_id"`
	Title                string     `json:"title"`
	ConsensusThreshold   float64    `json:"consensus_threshold"`
	Visibility           Visibility `json:"visibility"`
	CreatedBy            string     `json:"created_by"`
	CreatedAt            time.Time  `json:"created_at"`
}

type Proposal struct {
	ID                 string    `json:"id"`
	SessionID          string    `json:"session_id"`
	ProposalSet        int       `json:"proposal_set"`
	SourceClusterIndex *int      `json:"source_cluster_index,omitempty"`
	StatementText      string    `json:"statement_text"`
	DisplayOrder       int       `json:"display_order"`
	AgreePercent       *float64  `json:"agree_percent,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

type DecisionRound struct {
	ID          string      `json:"id"`
	SessionID   string      `json:"session_id"`
	RoundNumber int         `json:"round_number"`
	ProposalSet int         `json:"proposal_set"`
	Status      RoundStatus `json:"status"`
	Visibility  Visibility  `json:"visibility"`
	Deadline    *time.Time  `json:"deadline,omitempty"`
	OpenedAt    time.Time   `json:"opened_at"`
	ClosedAt    *time.Time  `json:"closed_at,omitempty"`
}

type Vote struct {
	RoundID    string    `json:"round_id"`
	UserID     string    `json:"-"`
	ProposalID string    `json:"proposal_id"`
	Votes      int       `json:"votes"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RankedProposal is one entry of a result snapshot.
type RankedProposal struct {
	ProposalID         string  `json:"proposal_id"`
	StatementText      string  `json:"statement_text"`
	TotalVotes         int     `json:"total_votes"`
	VotePercent        float64 `json:"vote_percent"`
	Rank               int     `json:"rank"` // 1-indexed ranking
	ChangeFromPrevious *int    `json:"change_from_previous"`
}

// DecisionResult is the immutable snapshot written once per round.
type DecisionResult struct {
	RoundID     string           `json:"round_id"`
	SessionID   string           `json:"session_id"`
	RoundNumber int              `json:"round_number"`
	Rankings    []RankedProposal `json:"rankings"`
	Analysis    *string          `json:"analysis,omitempty"`
	TotalVotes  int              `json:"total_votes"`
	VoterCount  int              `json:"voter_count"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Conversation is the upstream view of a Listen/Understand conversation.
type Conversation struct {
	ID             string `json:"id"`
	HiveID         string `json:"hive_id"`
	Type           string `json:"type"`
	AnalysisStatus string `json:"analysis_status"`
}

// Statement is an analysis-ready statement offered for proposal selection.
type Statement struct {
	ID             string   `json:"id"`
	ConversationID string   `json:"conversation_id"`
	ClusterIndex   *int     `json:"cluster_index,omitempty"`
	Text           string   `json:"statement_text"`
	AgreePercent   *float64 `json:"agree_percent,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    Code   `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
