// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package budget

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/hive-decide/models"
)

func TestNew_DefaultsNonPositiveBudget(t *testing.T) {
	assert.Equal(t, DefaultCredits, New(0).Credits)
	assert.Equal(t, DefaultCredits, New(-5).Credits)
	assert.Equal(t, 49, New(49).Credits)
}

func TestSpent(t *testing.T) {
	assert.Equal(t, 0, Spent(nil))
	assert.Equal(t, 0, Spent(map[string]int{"p1": 0}))
	assert.Equal(t, 9+16, Spent(map[string]int{"p1": 3, "p2": 4}))
}

// Nine votes cost 81, the tenth brings the user to exactly 100, the
// eleventh is rejected.
func TestCheck_SpendsDownToZero(t *testing.T) {
	acct := New(100)
	votes := map[string]int{}

	for i := 1; i <= 10; i++ {
		alloc, err := acct.Check(votes, "p1", 1)
		require.NoError(t, err, "vote %d", i)
		votes["p1"] = alloc.NewVotes
		assert.Equal(t, 100-i*i, alloc.RemainingCredits)
	}
	assert.Equal(t, 0, acct.Remaining(votes))

	_, err := acct.Check(votes, "p1", 1)
	assert.ErrorIs(t, err, models.ErrBudgetExceeded)
	assert.Equal(t, 10, votes["p1"], "rejected check must not mutate input")
}

func TestCheck_NegativeVotes(t *testing.T) {
	acct := New(100)

	_, err := acct.Check(map[string]int{}, "p1", -1)
	assert.ErrorIs(t, err, models.ErrNegativeVotes)

	_, err = acct.Check(map[string]int{"p1": 2}, "p1", -3)
	assert.ErrorIs(t, err, models.ErrNegativeVotes)
}

func TestCheck_ZeroEntryEqualsAbsent(t *testing.T) {
	acct := New(100)
	withZero, err := acct.Check(map[string]int{"p1": 0, "p2": 3}, "p1", 1)
	require.NoError(t, err)
	absent, err := acct.Check(map[string]int{"p2": 3}, "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, absent, withZero)
}

func TestCheck_BudgetSpansAllProposals(t *testing.T) {
	acct := New(100)
	current := map[string]int{"p1": 7, "p2": 7} // 98 spent

	alloc, err := acct.Check(current, "p3", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, alloc.RemainingCredits)

	// 8*8 + 7*7 = 113
	_, err = acct.Check(current, "p1", 1)
	assert.ErrorIs(t, err, models.ErrBudgetExceeded)

	current = map[string]int{"p1": 7, "p2": 6} // 85 spent
	alloc, err = acct.Check(current, "p3", 3)
	require.NoError(t, err)
	assert.Equal(t, 94, alloc.CostAfter)
	assert.Equal(t, 6, alloc.RemainingCredits)
}

func TestCheck_Decrement(t *testing.T) {
	acct := New(100)
	alloc, err := acct.Check(map[string]int{"p1": 10}, "p1", -1)
	require.NoError(t, err)
	assert.Equal(t, 9, alloc.NewVotes)
	assert.Equal(t, 19, alloc.RemainingCredits)
}

func TestCheck_LargeDeltaDoesNotOverflow(t *testing.T) {
	acct := New(100)
	testCases := []struct {
		name    string
		current map[string]int
		delta   int
		want    error
	}{
		{"large from empty", map[string]int{}, 1 << 40, models.ErrBudgetExceeded},
		{"max int from empty", map[string]int{}, math.MaxInt, models.ErrBudgetExceeded},
		{"max int on existing votes", map[string]int{"p1": 3}, math.MaxInt, models.ErrBudgetExceeded},
		{"min int on existing votes", map[string]int{"p1": 3}, math.MinInt, models.ErrNegativeVotes},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := acct.Check(tc.current, "p1", tc.delta)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
