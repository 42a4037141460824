// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the typed SQL layer for decision sessions.

Every function takes a db.Querier, so the same call works against the pool
or inside a transaction opened by db.InTx:

	err := db.InTx(ctx, conn, dialect.TxOptions(), retries, func(tx *sql.Tx) error {
		round, err := store.LockRound(ctx, tx, dialect, roundID)
		...
	})

Rows come back as models types with nullable columns mapped to pointers and
the result payload decoded into rankings. Missing rows return ErrNotFound;
callers translate that into the coded error that fits their operation.

# Tables

	decision_session   one row per session
	proposal           numbered proposal sets per session
	decision_round     rounds with status and visibility
	vote               (round, user, proposal) -> votes
	decision_result    one snapshot per round

Zero-vote rows are equivalent to absent rows: reads skip them.
*/
package store
