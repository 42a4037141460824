// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/hive-decide/models"
)

func proposals(labels ...string) []models.Proposal {
	ps := make([]models.Proposal, len(labels))
	for i, l := range labels {
		ps[i] = models.Proposal{ID: l, StatementText: "Statement " + l, DisplayOrder: i}
	}
	return ps
}

func ranksOf(rankings []models.RankedProposal) map[string]int {
	m := map[string]int{}
	for _, r := range rankings {
		m[r.ProposalID] = r.Rank
	}
	return m
}

func TestRank_ScenarioC_TieBrokenByDisplayOrder(t *testing.T) {
	rankings := Rank(proposals("P1", "P2", "P3"), map[string]int{"P1": 30, "P2": 30, "P3": 10}, nil)

	require.Len(t, rankings, 3)
	assert.Equal(t, "P1", rankings[0].ProposalID)
	assert.Equal(t, "P2", rankings[1].ProposalID)
	assert.Equal(t, "P3", rankings[2].ProposalID)
	for i, r := range rankings {
		assert.Equal(t, i+1, r.Rank)
		assert.Nil(t, r.ChangeFromPrevious, "round 1 has no previous ranking")
	}
	assert.InDelta(t, 30.0/70.0, rankings[0].VotePercent, 1e-12)
	assert.InDelta(t, 30.0/70.0, rankings[1].VotePercent, 1e-12)
	assert.InDelta(t, 10.0/70.0, rankings[2].VotePercent, 1e-12)
	assert.Equal(t, 70, Sum(rankings))
}

func TestRank_ScenarioD_ChangeFromPrevious(t *testing.T) {
	ps := proposals("P1", "P2", "P3")
	round1 := Rank(ps, map[string]int{"P1": 30, "P2": 20, "P3": 10}, nil)
	require.Equal(t, 3, ranksOf(round1)["P3"])

	round2 := Rank(ps, map[string]int{"P1": 5, "P2": 10, "P3": 40}, round1)
	require.Equal(t, "P3", round2[0].ProposalID)
	require.NotNil(t, round2[0].ChangeFromPrevious)
	assert.Equal(t, 2, *round2[0].ChangeFromPrevious)

	changes := map[string]int{}
	for _, r := range round2 {
		require.NotNil(t, r.ChangeFromPrevious)
		changes[r.ProposalID] = *r.ChangeFromPrevious
	}
	assert.Equal(t, map[string]int{"P1": -2, "P2": 0, "P3": 2}, changes)
}

func TestRank_NewProposalHasNoChange(t *testing.T) {
	previous := Rank(proposals("P1", "P2"), map[string]int{"P1": 1}, nil)
	rankings := Rank(proposals("P1", "P9"), map[string]int{"P9": 3}, previous)

	for _, r := range rankings {
		if r.ProposalID == "P9" {
			assert.Nil(t, r.ChangeFromPrevious)
		} else {
			require.NotNil(t, r.ChangeFromPrevious)
			assert.Equal(t, -1, *r.ChangeFromPrevious)
		}
	}
}

func TestRank_NoVotes(t *testing.T) {
	rankings := Rank(proposals("P1", "P2"), map[string]int{}, nil)

	require.Len(t, rankings, 2)
	for _, r := range rankings {
		assert.Zero(t, r.TotalVotes)
		assert.Zero(t, r.VotePercent, "no division by zero")
	}
	assert.Equal(t, "P1", rankings[0].ProposalID, "display order decides when all totals are zero")
}

func TestRank_Deterministic(t *testing.T) {
	ps := []models.Proposal{
		{ID: "b", DisplayOrder: 1},
		{ID: "a", DisplayOrder: 1},
		{ID: "c", DisplayOrder: 0},
		{ID: "d", DisplayOrder: 2},
	}
	totals := map[string]int{"a": 4, "b": 4, "c": 4, "d": 9}

	want := []string{"d", "c", "a", "b"}
	reversed := []models.Proposal{ps[3], ps[2], ps[1], ps[0]}
	for _, input := range [][]models.Proposal{ps, reversed} {
		rankings := Rank(input, totals, nil)
		got := make([]string, len(rankings))
		for i, r := range rankings {
			got[i] = r.ProposalID
		}
		assert.Equal(t, want, got)
	}

	assert.Equal(t, "b", ps[0].ID, "input is not reordered")
}
