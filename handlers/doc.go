// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the decision API.

# Handler Types

Each handler is a thin struct over *decision.Service:

  - SessionHandler: session creation and detail
  - VotingHandler: casting votes and reading your own allocation
  - RoundHandler: closing rounds and starting the next one
  - ResultsHandler: result snapshots and the live tally

	svc, machine := decision.Wire(conn, dialect, cfg, logger)
	votingHandler := handlers.NewVotingHandler(svc)

Handlers expect the caller identity placed in the context by
middleware.Authenticate.

# Round Lifecycle

Rounds progress through three states: voting_open → voting_closed →
results_generated.

	POST /sessions              → CreateSession (round 1 opens)
	POST /rounds/{id}/close     → CloseRound (admin, idempotent)
	POST /sessions/{id}/rounds  → StartRound (admin, after results)

An empty StartRound body keeps the previous proposal set.

# Voting

	POST /sessions/{id}/votes    → CastVote {proposal_id, delta}
	GET  /sessions/{id}/votes/me → GetMyVotes

A vote costs votes² credits out of the round budget. Rejected votes answer
with success=false and an error_code alongside the usual error fields.

# Results

	GET /sessions/{id}/rounds/{number}/results → GetResults
	GET /sessions/{id}/tally                   → GetTally

Results are sealed until the round closes. The live tally of an open round
follows the round's visibility: hidden refuses it, aggregate shows totals,
transparent adds per-voter allocations.

# Errors

Every error body is {"error", "code", "message"}. StatusFor maps codes:
not found → 404, FORBIDDEN → 403, UNAUTHORIZED → 401, state conflicts →
409, VALIDATION_ERROR → 400, TRANSIENT → 503, anything else → 500.
*/
package handlers
