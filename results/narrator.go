// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/danielhkuo/hive-decide/models"
)

// Narrator writes the analysis attached to a result.
type Narrator interface {
	Narrate(ctx context.Context, session models.DecisionSession, result models.DecisionResult) (string, error)
}

// SummaryNarrator produces a short deterministic summary of a result.
type SummaryNarrator struct{}

func (SummaryNarrator) Narrate(_ context.Context, session models.DecisionSession, result models.DecisionResult) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Round %d closed with %s from %s.",
		result.RoundNumber,
		english.Plural(result.TotalVotes, "vote", ""),
		english.Plural(result.VoterCount, "voter", ""),
	)
	if result.TotalVotes == 0 || len(result.Rankings) == 0 {
		b.WriteString(" No proposal received votes.")
		return b.String(), nil
	}

	leader := result.Rankings[0]
	tied := []string{quote(leader.StatementText)}
	for _, r := range result.Rankings[1:] {
		if r.TotalVotes != leader.TotalVotes {
			break
		}
		tied = append(tied, quote(r.StatementText))
	}
	if len(tied) > 1 {
		fmt.Fprintf(&b, " %s are tied for first with %s each.",
			english.OxfordWordSeries(tied, "and"),
			english.Plural(leader.TotalVotes, "vote", ""))
	} else {
		fmt.Fprintf(&b, " %s leads with %s (%s).",
			tied[0],
			english.Plural(leader.TotalVotes, "vote", ""),
			percent(leader.VotePercent))
	}

	if mover, ok := biggestMover(result.Rankings); ok {
		change := *mover.ChangeFromPrevious
		direction := "rose"
		if change < 0 {
			direction = "fell"
			change = -change
		}
		fmt.Fprintf(&b, " Biggest move: %s %s %s to %s.",
			quote(mover.StatementText), direction,
			english.Plural(change, "place", ""),
			humanize.Ordinal(mover.Rank))
	}

	var consensus []string
	for _, r := range result.Rankings {
		if r.TotalVotes > 0 && r.VotePercent*100 >= session.ConsensusThreshold {
			consensus = append(consensus, quote(r.StatementText))
		}
	}
	if session.ConsensusThreshold > 0 {
		threshold := humanize.FtoaWithDigits(session.ConsensusThreshold, 1) + "%"
		if len(consensus) == 0 {
			fmt.Fprintf(&b, " No proposal reached the %s consensus threshold.", threshold)
		} else {
			fmt.Fprintf(&b, " %s reached the %s consensus threshold: %s.",
				english.Plural(len(consensus), "proposal", ""), threshold,
				english.OxfordWordSeries(consensus, "and"))
		}
	}

	return b.String(), nil
}

// biggestMover returns the ranking with the largest absolute rank change,
// preferring the better-ranked one on ties.
func biggestMover(rankings []models.RankedProposal) (models.RankedProposal, bool) {
	var best models.RankedProposal
	bestAbs := 0
	for _, r := range rankings {
		if r.ChangeFromPrevious == nil {
			continue
		}
		abs := *r.ChangeFromPrevious
		if abs < 0 {
			abs = -abs
		}
		if abs > bestAbs {
			best, bestAbs = r, abs
		}
	}
	return best, bestAbs > 0
}

func quote(s string) string {
	return `"` + s + `"`
}

func percent(share float64) string {
	return humanize.FtoaWithDigits(share*100, 1) + "%"
}
