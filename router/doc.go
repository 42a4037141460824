// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the decision API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	svc, _ := decision.Wire(conn, dialect, cfg, logger)
	mux := router.NewRouter(conn, svc, cfg)

# Endpoints

Operational (no token):

	GET /health  - Database ping
	GET /metrics - Prometheus metrics

Sessions (require X-User-Token):

	POST /sessions      - Create session (hive admin)
	GET  /sessions/{id} - Session, rounds and current proposals

Voting:

	POST /sessions/{id}/votes    - Cast a vote delta
	GET  /sessions/{id}/votes/me - Own allocation and credits left

Rounds (hive admin):

	POST /sessions/{id}/rounds - Start the next round
	POST /rounds/{id}/close    - Close and publish results

Results:

	GET /sessions/{id}/rounds/{number}/results - Sealed until close
	GET /sessions/{id}/tally                   - Live tally per visibility

Every session route is wrapped in middleware.WithLogging and
middleware.Authenticate.
*/
package router
