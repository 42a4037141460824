// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package results tallies a closed round and writes its snapshot.

# Ranking

Rank is pure. Every proposal of the round's set appears, including those
with zero votes:

	rankings := results.Rank(proposals, totals, previous)

Ordering:
 1. total votes, descending
 2. display order, ascending
 3. proposal id, ascending

VotePercent is the proposal's share of all votes in the round, in [0, 1],
and 0 when nobody voted. ChangeFromPrevious is previousRank - rank (positive
means the proposal rose) and nil for round 1 or for proposals missing from
the previous ranking.

# Aggregation

Aggregator.Aggregate loads the round's proposals, totals and the previous
round's snapshot, ranks them, attaches the narrative and persists the
snapshot. Persisting is conditional on the round still being voting_closed,
so a second aggregation of the same round returns the stored snapshot
instead of writing another.

# Narrative

A Narrator turns a result into readable analysis. SummaryNarrator is the
built-in one: leader, biggest mover and proposals at or above the session's
consensus threshold. A narrator error leaves Analysis nil; the close still
succeeds.
*/
package results
