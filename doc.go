// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the hive-decide API server.

hive-decide runs the decision phase of a hive: admins turn statements from
an analysed conversation into proposals, members spend a per-round credit
budget on quadratic votes (n votes cost n² credits), and closing a round
publishes a ranked, immutable result. Further rounds can keep the proposals
or draw a new set, and results show how each proposal moved.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... USER_TOKEN_SECRET=... go run . serve

Or with flags:

	go run . serve -p 3318 -d "file:decide.db"

# Commands

  - serve: HTTP API plus the deadline sweeper
  - migrate: create the schema and exit
  - finalize <round-id>: close a round and print its result
  - sweep: finalize overdue and stuck rounds once

# Configuration

Flags win over environment variables, which win over the .env file.

Required settings:

  - DATABASE_URL (-d): PostgreSQL URL or SQLite path
  - USER_TOKEN_SECRET (--user-secret): HMAC secret for X-User-Token (serve only)

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres, inferred from the URL
  - CREDIT_BUDGET (--credits): credits per user per round (default: 100)
  - RESULT_WAIT (--result-wait): how long a losing close waits for results (default: 2s)
  - SWEEP_INTERVAL (--sweep-interval): sweeper period, 0 disables (default: 30s)
  - TX_RETRIES (--tx-retries): retries on serialization conflicts (default: 5)
  - LOG_LEVEL (--log-level): debug, info, warn or error

# Architecture

  - handlers, router, middleware: HTTP transport and identity
  - decision: service facade over the components below
  - ledger, budget: vote casting and quadratic credit accounting
  - rounds: round state machine, close and new-round logic
  - results: ranking, narrative summary and snapshot persistence
  - sweeper: deadline and recovery finalization
  - store, db: SQL access, schema and transactions
  - membership, conversations: adapters over hive-owned tables
  - metrics: Prometheus collectors
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
