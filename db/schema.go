// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, conn *sql.DB, dialect Dialect) error {
	for _, stmt := range Statements(dialect) {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Statements returns the schema for a dialect, one statement per entry.
func Statements(dialect Dialect) []string {
	r := strings.NewReplacer(
		"{{ts}}", dialect.timestampType(),
		"{{float}}", dialect.floatType(),
		"{{json}}", dialect.jsonType(),
	)
	var stmts []string
	for _, stmt := range strings.Split(r.Replace(schema), ";\n") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func (d Dialect) timestampType() string {
	if d == Postgres {
		return "TIMESTAMPTZ"
	}
	return "TIMESTAMP"
}

func (d Dialect) floatType() string {
	if d == Postgres {
		return "DOUBLE PRECISION"
	}
	return "REAL"
}

func (d Dialect) jsonType() string {
	if d == Postgres {
		return "JSONB"
	}
	return "TEXT"
}

const schema = `
-- Decision sessions
CREATE TABLE IF NOT EXISTS decision_session (
    id TEXT PRIMARY KEY,
    hive_id TEXT NOT NULL,
    source_conversation_id TEXT NOT NULL,
    title TEXT NOT NULL,
    consensus_threshold {{float}} NOT NULL DEFAULT 0,
    visibility TEXT NOT NULL DEFAULT 'hidden' CHECK (visibility IN ('hidden', 'aggregate', 'transparent')),
    created_by TEXT NOT NULL,
    created_at {{ts}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decision_session_hive_id ON decision_session(hive_id);

-- Proposals, grouped into numbered sets per session
CREATE TABLE IF NOT EXISTS proposal (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES decision_session(id) ON DELETE CASCADE,
    proposal_set INTEGER NOT NULL CHECK (proposal_set >= 1),
    source_cluster_index INTEGER,
    statement_text TEXT NOT NULL,
    display_order INTEGER NOT NULL,
    agree_percent {{float}},
    created_at {{ts}} NOT NULL,
    UNIQUE (session_id, proposal_set, display_order)
);

CREATE INDEX IF NOT EXISTS idx_proposal_session_set ON proposal(session_id, proposal_set);

-- Rounds
CREATE TABLE IF NOT EXISTS decision_round (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES decision_session(id) ON DELETE CASCADE,
    round_number INTEGER NOT NULL CHECK (round_number >= 1),
    proposal_set INTEGER NOT NULL CHECK (proposal_set >= 1),
    status TEXT NOT NULL DEFAULT 'voting_open' CHECK (status IN ('voting_open', 'voting_closed', 'results_generated')),
    visibility TEXT NOT NULL DEFAULT 'hidden' CHECK (visibility IN ('hidden', 'aggregate', 'transparent')),
    deadline {{ts}},
    opened_at {{ts}} NOT NULL,
    closed_at {{ts}},
    UNIQUE (session_id, round_number)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_decision_round_single_open ON decision_round(session_id) WHERE status = 'voting_open';
CREATE INDEX IF NOT EXISTS idx_decision_round_status_deadline ON decision_round(status, deadline);

-- Vote ledger
CREATE TABLE IF NOT EXISTS vote (
    round_id TEXT NOT NULL REFERENCES decision_round(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    proposal_id TEXT NOT NULL REFERENCES proposal(id) ON DELETE CASCADE,
    votes INTEGER NOT NULL CHECK (votes >= 0),
    updated_at {{ts}} NOT NULL,
    PRIMARY KEY (round_id, user_id, proposal_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_round_proposal ON vote(round_id, proposal_id);

-- Result snapshots, at most one per round
CREATE TABLE IF NOT EXISTS decision_result (
    round_id TEXT PRIMARY KEY REFERENCES decision_round(id) ON DELETE CASCADE,
    session_id TEXT NOT NULL REFERENCES decision_session(id) ON DELETE CASCADE,
    round_number INTEGER NOT NULL,
    payload {{json}} NOT NULL,
    analysis TEXT,
    generated_at {{ts}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decision_result_session ON decision_result(session_id, round_number);

-- Read-only views owned by the hive and conversation services
CREATE TABLE IF NOT EXISTS hive_member (
    hive_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'member',
    PRIMARY KEY (hive_id, user_id)
);

CREATE TABLE IF NOT EXISTS conversation (
    id TEXT PRIMARY KEY,
    hive_id TEXT NOT NULL,
    type TEXT NOT NULL,
    analysis_status TEXT NOT NULL DEFAULT 'pending'
);

CREATE TABLE IF NOT EXISTS conversation_statement (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL REFERENCES conversation(id) ON DELETE CASCADE,
    cluster_index INTEGER,
    statement_text TEXT NOT NULL,
    agree_percent {{float}}
);

CREATE INDEX IF NOT EXISTS idx_conversation_statement_conversation ON conversation_statement(conversation_id);
`
