// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"sort"

	"github.com/danielhkuo/hive-decide/models"
)

// Rank orders proposals by vote total. previous is the prior round's
// ranking, or nil.
func Rank(proposals []models.Proposal, totals map[string]int, previous []models.RankedProposal) []models.RankedProposal {
	sorted := make([]models.Proposal, len(proposals))
	copy(sorted, proposals)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := totals[sorted[i].ID], totals[sorted[j].ID]
		if ti != tj {
			return ti > tj
		}
		if sorted[i].DisplayOrder != sorted[j].DisplayOrder {
			return sorted[i].DisplayOrder < sorted[j].DisplayOrder
		}
		return sorted[i].ID < sorted[j].ID
	})

	sum := 0
	for _, p := range proposals {
		sum += totals[p.ID]
	}

	prevRank := make(map[string]int, len(previous))
	for _, r := range previous {
		prevRank[r.ProposalID] = r.Rank
	}

	rankings := make([]models.RankedProposal, 0, len(sorted))
	for i, p := range sorted {
		rank := i + 1
		r := models.RankedProposal{
			ProposalID:    p.ID,
			StatementText: p.StatementText,
			TotalVotes:    totals[p.ID],
			Rank:          rank,
		}
		if sum > 0 {
			r.VotePercent = float64(r.TotalVotes) / float64(sum)
		}
		if prev, ok := prevRank[p.ID]; ok {
			change := prev - rank
			r.ChangeFromPrevious = &change
		}
		rankings = append(rankings, r)
	}
	return rankings
}

// Sum returns the total votes across a ranking.
func Sum(rankings []models.RankedProposal) int {
	sum := 0
	for _, r := range rankings {
		sum += r.TotalVotes
	}
	return sum
}
