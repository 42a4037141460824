// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package budget implements quadratic credit accounting for a single user's
// allocation in one round. It performs no I/O; callers pass the full vote map
// read from the ledger and the accountant recomputes cost from scratch.
package budget

import "github.com/danielhkuo/hive-decide/models"

// DefaultCredits is the per-user, per-round credit budget.
const DefaultCredits = 100

// Accountant validates vote mutations against a fixed credit budget.
type Accountant struct {
	Credits int
}

// New returns an Accountant for the given budget, falling back to
// DefaultCredits when credits is not positive.
func New(credits int) Accountant {
	if credits <= 0 {
		credits = DefaultCredits
	}
	return Accountant{Credits: credits}
}

// Allocation is the state after an accepted mutation.
type Allocation struct {
	NewVotes         int
	CostAfter        int
	RemainingCredits int
}

// Cost returns the quadratic cost of n votes.
func Cost(n int) int {
	return n * n
}

// Spent returns the total quadratic cost of a vote map.
func Spent(votes map[string]int) int {
	total := 0
	for _, v := range votes {
		total += Cost(v)
	}
	return total
}

// Remaining returns the credits left after the given allocation.
func (a Accountant) Remaining(votes map[string]int) int {
	return a.Credits - Spent(votes)
}

// Check validates applying delta to proposalID on top of current.
// current is not modified.
func (a Accountant) Check(current map[string]int, proposalID string, delta int) (Allocation, error) {
	before := current[proposalID]
	// Bounds are checked on delta so before+delta cannot overflow.
	if delta < -before {
		return Allocation{}, models.ErrNegativeVotes
	}
	// Any count above the budget already costs more than the budget.
	if delta > a.Credits-before {
		return Allocation{}, models.ErrBudgetExceeded
	}
	newVotes := before + delta

	costAfter := Spent(current) - Cost(before) + Cost(newVotes)
	if costAfter > a.Credits {
		return Allocation{}, models.ErrBudgetExceeded
	}

	return Allocation{
		NewVotes:         newVotes,
		CostAfter:        costAfter,
		RemainingCredits: a.Credits - costAfter,
	}, nil
}
