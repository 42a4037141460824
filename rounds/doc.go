// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package rounds drives the decision round lifecycle.

# States

	voting_open ──close──▶ voting_closed ──snapshot──▶ results_generated

Votes are accepted only while voting_open. A round never moves backwards;
a new round is a new row.

# Closing

Close checks the caller is a hive admin and calls Finalize. Finalize is
idempotent and safe under concurrency:

  - the status flip is a compare-and-swap UPDATE; exactly one caller wins it
    and runs aggregation
  - every other caller waits for the snapshot, polling with backoff
  - a round closed longer than ResultWait ago with no snapshot (the winner
    crashed or failed) is aggregated again by whoever asks next
  - the snapshot write is itself conditional on voting_closed, so at most
    one result row exists per round

Concurrent calls in one process share a single Finalize through
singleflight.

# Starting a Round

StartNewRound requires the current round to be results_generated. It opens
round N+1 either on the same proposal set or on a new set built from
selected statements of the source conversation, in one transaction.
*/
package rounds
