// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens connections, creates the schema and runs transactions.

# Connections

Two backends are supported. The dialect comes from DATABASE_TYPE or is
inferred from the URL:

	dialect, err := db.ParseDialect(cfg.DatabaseType, cfg.DatabaseURL)
	conn, err := db.Open(dialect, cfg.DatabaseURL)

PostgreSQL (lib/pq) is the production backend. SQLite (modernc.org/sqlite)
serves embedded use and tests; its pool holds a single connection and every
transaction takes the write lock at BEGIN.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(ctx, conn, dialect); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - decision_session: session metadata, one per decision
  - proposal: immutable proposals grouped in numbered sets
  - decision_round: rounds, at most one voting_open per session
  - vote: per-user counts, CHECK votes >= 0
  - decision_result: one JSON snapshot per round
  - hive_member, conversation, conversation_statement: read-only views of
    data owned by other services

# Transactions

InTx runs a function in a transaction and re-runs it on serialization
failures (Postgres 40001/40P01) and lock timeouts (SQLITE_BUSY), with
exponential backoff:

	err := db.InTx(ctx, conn, dialect.TxOptions(), cfg.TxRetries, func(tx *sql.Tx) error {
		...
	})

Once retries run out the error is models.ErrTransient. Inside fn, use only
tx: with a single SQLite connection, touching the pool would block forever.
*/
package db
