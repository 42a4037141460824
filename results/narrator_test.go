// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/hive-decide/models"
)

func TestSummaryNarrator_Leader(t *testing.T) {
	ps := proposals("P1", "P2", "P3")
	previous := Rank(ps, map[string]int{"P1": 9, "P2": 5, "P3": 1}, nil)
	rankings := Rank(ps, map[string]int{"P1": 2, "P2": 3, "P3": 15}, previous)
	result := models.DecisionResult{RoundNumber: 2, Rankings: rankings, TotalVotes: 20, VoterCount: 4}

	text, err := SummaryNarrator{}.Narrate(context.Background(), models.DecisionSession{ConsensusThreshold: 50}, result)
	require.NoError(t, err)

	assert.Contains(t, text, "Round 2 closed with 20 votes from 4 voters.")
	assert.Contains(t, text, `"Statement P3" leads with 15 votes (75%).`)
	assert.Contains(t, text, `Biggest move: "Statement P3" rose 2 places to 1st.`)
	assert.Contains(t, text, `1 proposal reached the 50% consensus threshold: "Statement P3".`)
}

func TestSummaryNarrator_TieAndNoConsensus(t *testing.T) {
	rankings := Rank(proposals("P1", "P2", "P3"), map[string]int{"P1": 3, "P2": 3, "P3": 1}, nil)
	result := models.DecisionResult{RoundNumber: 1, Rankings: rankings, TotalVotes: 7, VoterCount: 1}

	text, err := SummaryNarrator{}.Narrate(context.Background(), models.DecisionSession{ConsensusThreshold: 60}, result)
	require.NoError(t, err)

	assert.Contains(t, text, "7 votes from 1 voter.")
	assert.Contains(t, text, `"Statement P1" and "Statement P2" are tied for first with 3 votes each.`)
	assert.NotContains(t, text, "Biggest move")
	assert.Contains(t, text, "No proposal reached the 60% consensus threshold.")
}

func TestSummaryNarrator_NoVotes(t *testing.T) {
	result := models.DecisionResult{RoundNumber: 1, Rankings: Rank(proposals("P1"), nil, nil)}

	text, err := SummaryNarrator{}.Narrate(context.Background(), models.DecisionSession{}, result)
	require.NoError(t, err)
	assert.Equal(t, "Round 1 closed with 0 votes from 0 voters. No proposal received votes.", text)
}
