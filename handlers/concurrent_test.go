// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/hive-decide/models"
	"github.com/danielhkuo/hive-decide/testutil"
)

// TestConcurrentVotesSameUser verifies that simultaneous increments from one
// user never overspend the budget: exactly as many succeed as fit.
func TestConcurrentVotesSameUser(t *testing.T) {
	conn, h := setupHandlers(t)
	ts := testutil.CreateTestSession(t, conn, "hive-1", "admin", models.VisibilityHidden, "A", "B", "C", "D")
	sid := ts.Session.ID
	ids := ts.ProposalIDs()

	// Six increments on each of four proposals would cost 144 credits.
	const attempts = 24
	var successCount, rejectedCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			req := as("alice", "POST", "/sessions/"+sid+"/votes",
				models.CastVoteRequest{ProposalID: ids[idx%len(ids)], Delta: 1}, "id", sid)
			w := serve(h.voting.CastVote, req)

			switch w.Code {
			case http.StatusOK:
				successCount.Add(1)
			case http.StatusConflict:
				rejectedCount.Add(1)
			default:
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}(i)
	}

	wg.Wait()

	w := serve(h.voting.GetMyVotes, as("alice", "GET", "/sessions/"+sid+"/votes/me", nil, "id", sid))
	testutil.AssertStatus(t, w, http.StatusOK)
	var votes models.UserVotes
	testutil.AssertJSON(t, w, &votes)

	if votes.TotalCreditsSpent > 100 {
		t.Errorf("Budget overspent: %d credits", votes.TotalCreditsSpent)
	}
	total := 0
	for _, n := range votes.Votes {
		total += n
	}
	if int(successCount.Load()) != total {
		t.Errorf("Expected %d stored votes to match successes, got %d", successCount.Load(), total)
	}
	if int(successCount.Load()+rejectedCount.Load()) != attempts {
		t.Errorf("Expected %d responses, got %d", attempts, successCount.Load()+rejectedCount.Load())
	}
}

// TestConcurrentRoundClose verifies that simultaneous close requests all get
// the same result and aggregation happens once.
func TestConcurrentRoundClose(t *testing.T) {
	conn, h := setupHandlers(t)
	ts := testutil.CreateTestSession(t, conn, "hive-1", "admin", models.VisibilityHidden, "A", "B")
	testutil.SetTestVotes(t, conn, ts.Round.ID, "u1", map[string]int{ts.Proposals[0].ID: 2})

	const numClosers = 8
	results := make([]models.DecisionResult, numClosers)
	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numClosers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			req := as("admin", "POST", "/rounds/"+ts.Round.ID+"/close", nil, "id", ts.Round.ID)
			w := serve(h.rounds.CloseRound, req)
			if w.Code != http.StatusOK {
				t.Errorf("Close %d failed: %d %s", idx, w.Code, w.Body.String())
				return
			}

			var resp models.CloseRoundResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Errorf("Close %d: failed to decode response: %v", idx, err)
				return
			}
			results[idx] = resp.Result
			successCount.Add(1)
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != numClosers {
		t.Fatalf("Expected %d successful closes, got %d", numClosers, successCount.Load())
	}
	for i, res := range results {
		if res.RoundID != ts.Round.ID || res.TotalVotes != 2 || len(res.Rankings) != 2 {
			t.Errorf("Close %d returned unexpected result: %+v", i, res)
		}
	}

	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM decision_result WHERE round_id = $1`, ts.Round.ID).Scan(&count); err != nil {
		t.Fatalf("Failed to count results: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly 1 result snapshot, got %d", count)
	}
}
