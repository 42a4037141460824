// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package decision is the entry point for every decision session operation.

Service resolves session ids, checks the caller and delegates to the
ledger for votes and to the round machine for the lifecycle:

	svc := decision.NewService(conn, dialect, ledger, machine, members, source, decision.Config{})
	resp, err := svc.CreateDecisionSession(ctx, userID, req)
	result, err := svc.CastVote(ctx, resp.SessionID, proposalID, userID, +1)

# Session Ids

A session id that is unknown but names a plain conversation fails with
NOT_DECISION_SESSION; anything else unknown is CONVERSATION_NOT_FOUND. The
current round is always the one with the highest round number.

# Errors

Every failure that callers can act on is a *models.Error; use
models.CodeOf to get its code. An empty user id is UNAUTHORIZED.
*/
package decision
