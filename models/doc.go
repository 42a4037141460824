// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, domain and error types for the API.

# Request Types

Types for parsing incoming JSON, checked with Validate:

  - CreateSessionRequest: hive_id, source_conversation_id, title, selected_statements
  - CastVoteRequest: proposal_id, delta
  - StartRoundRequest: keep_proposals or selected_statements

# Response Types

  - CreateSessionResponse: session_id, round_id
  - StartRoundResponse: round_id, round_number
  - CloseRoundResponse: result
  - VoteResult: success, new_votes, remaining_credits, error_code
  - UserVotes, SessionDetail, LiveTally
  - ErrorResponse: error, code, message

# Domain Types

  - DecisionSession: a decision phase tied to a source conversation
  - Proposal: a statement offered for voting, grouped into numbered sets
  - DecisionRound: one voting round over a proposal set
  - Vote: one user's votes for one proposal in a round
  - DecisionResult: immutable ranked snapshot of a closed round
  - Conversation, Statement: read-only upstream views

# Round States

	StatusVotingOpen       = "voting_open"
	StatusVotingClosed     = "voting_closed"
	StatusResultsGenerated = "results_generated"

Transitions only move forward; see CanAcceptVotes, CanClose, IsFinal.

# Errors

Error carries a stable Code. Sentinels such as ErrBudgetExceeded match any
copy made with WithMessage under errors.Is, and CodeOf extracts the code
through wrapping:

	if models.CodeOf(err) == models.CodeBudgetExceeded { ... }
*/
package models
