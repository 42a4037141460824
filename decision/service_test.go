// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package decision

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/hive-decide/budget"
	"github.com/danielhkuo/hive-decide/conversations"
	"github.com/danielhkuo/hive-decide/db"
	"github.com/danielhkuo/hive-decide/ledger"
	"github.com/danielhkuo/hive-decide/membership"
	"github.com/danielhkuo/hive-decide/models"
	"github.com/danielhkuo/hive-decide/results"
	"github.com/danielhkuo/hive-decide/rounds"
	"github.com/danielhkuo/hive-decide/store"
	"github.com/danielhkuo/hive-decide/testutil"
)

func newTestService(t *testing.T, conn *sql.DB) *Service {
	t.Helper()
	members := membership.NewSQLChecker(conn)
	source := conversations.NewSQLSource(conn)
	agg := results.NewAggregator(conn, results.SummaryNarrator{}, db.DefaultTxRetries, nil)
	machine := rounds.NewMachine(conn, db.SQLite, members, source, agg, rounds.Config{
		ResultWait: time.Second,
		TxRetries:  db.DefaultTxRetries,
	})
	l := ledger.New(conn, db.SQLite, budget.New(100), db.DefaultTxRetries, nil)
	return NewService(conn, db.SQLite, l, machine, members, source, Config{TxRetries: db.DefaultTxRetries})
}

// seedHive creates an admin, a member and an analysis-ready conversation.
func seedHive(t *testing.T, conn *sql.DB, texts ...string) (string, []string) {
	t.Helper()
	testutil.AddHiveMember(t, conn, "hive-1", "admin", models.RoleAdmin)
	testutil.AddHiveMember(t, conn, "hive-1", "member", "member")
	return testutil.CreateTestConversation(t, conn, "hive-1", models.ConversationTypeUnderstand, models.AnalysisStatusReady, texts...)
}

func createRequest(convID string, statementIDs []string) models.CreateSessionRequest {
	return models.CreateSessionRequest{
		HiveID:               "hive-1",
		SourceConversationID: convID,
		Title:                "Where should we meet?",
		SelectedStatements:   statementIDs,
		ConsensusThreshold:   40,
	}
}

func TestCreateDecisionSession(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	convID, ids := seedHive(t, conn, "Library", "Park", "Cafe")

	resp, err := svc.CreateDecisionSession(ctx, "admin", createRequest(convID, []string{ids[2], ids[0], ids[1]}))
	require.NoError(t, err)

	detail, err := svc.GetSession(ctx, resp.SessionID, "member")
	require.NoError(t, err)
	assert.Equal(t, "Where should we meet?", detail.Session.Title)
	assert.Equal(t, models.VisibilityHidden, detail.Session.Visibility, "default visibility")
	assert.Equal(t, "admin", detail.Session.CreatedBy)
	assert.Equal(t, resp.RoundID, detail.CurrentRound.ID)
	assert.Equal(t, 1, detail.CurrentRound.RoundNumber)
	assert.Equal(t, models.StatusVotingOpen, detail.CurrentRound.Status)
	require.Len(t, detail.Rounds, 1)

	require.Len(t, detail.Proposals, 3)
	for i, want := range []string{"Cafe", "Library", "Park"} {
		assert.Equal(t, want, detail.Proposals[i].StatementText, "input order is display order")
		assert.Equal(t, i, detail.Proposals[i].DisplayOrder)
		assert.NotNil(t, detail.Proposals[i].AgreePercent, "provenance is copied")
	}
}

func TestCreateDecisionSession_Rejections(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	convID, ids := seedHive(t, conn, "Library", "Park")
	pendingID, pendingIDs := testutil.CreateTestConversation(t, conn, "hive-1", models.ConversationTypeUnderstand, "pending", "x")
	decideID, decideIDs := testutil.CreateTestConversation(t, conn, "hive-1", models.ConversationTypeDecide, models.AnalysisStatusReady, "x")
	foreignID, foreignIDs := testutil.CreateTestConversation(t, conn, "hive-2", models.ConversationTypeUnderstand, models.AnalysisStatusReady, "x")

	tests := []struct {
		name   string
		userID string
		req    models.CreateSessionRequest
		want   error
	}{
		{"anonymous", "", createRequest(convID, ids), models.ErrUnauthorized},
		{"not admin", "member", createRequest(convID, ids), models.ErrForbidden},
		{"no statements", "admin", createRequest(convID, nil), models.ErrValidation},
		{"duplicate statements", "admin", createRequest(convID, []string{ids[0], ids[0]}), models.ErrValidation},
		{"unknown statement", "admin", createRequest(convID, []string{ids[0], "missing"}), models.ErrValidation},
		{"missing conversation", "admin", createRequest("missing", ids), models.ErrSourceConversationNotFound},
		{"analysis not ready", "admin", createRequest(pendingID, pendingIDs), models.ErrSourceConversationNotFound},
		{"not an understand conversation", "admin", createRequest(decideID, decideIDs), models.ErrSourceConversationNotFound},
		{"conversation of another hive", "admin", createRequest(foreignID, foreignIDs), models.ErrSourceConversationNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateDecisionSession(ctx, tt.userID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	bad := createRequest(convID, ids)
	bad.Title = ""
	bad.Visibility = "public"
	_, err := svc.CreateDecisionSession(ctx, "admin", bad)
	assert.ErrorIs(t, err, models.ErrValidation)

	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM decision_session`).Scan(&n))
	assert.Zero(t, n, "rejected requests create nothing")
}

func TestSessionResolution(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	convID, _ := seedHive(t, conn, "Library")

	_, err := svc.GetUserVotes(ctx, "missing", "member")
	assert.ErrorIs(t, err, models.ErrConversationNotFound)

	_, err = svc.GetUserVotes(ctx, convID, "member")
	assert.ErrorIs(t, err, models.ErrNotDecisionSession)

	res, err := svc.CastVote(ctx, convID, "p", "member", 1)
	assert.ErrorIs(t, err, models.ErrNotDecisionSession)
	assert.Equal(t, models.CodeNotDecisionSession, res.ErrorCode)

	_, err = svc.GetUserVotes(ctx, convID, "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestVotingThroughSession(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	convID, ids := seedHive(t, conn, "Library", "Park")
	resp, err := svc.CreateDecisionSession(ctx, "admin", createRequest(convID, ids))
	require.NoError(t, err)
	detail, err := svc.GetSession(ctx, resp.SessionID, "member")
	require.NoError(t, err)
	p1 := detail.Proposals[0].ID

	res, err := svc.CastVote(ctx, resp.SessionID, p1, "member", 6)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 64, res.RemainingCredits)

	votes, err := svc.GetUserVotes(ctx, resp.SessionID, "member")
	require.NoError(t, err)
	assert.Equal(t, resp.RoundID, votes.RoundID)
	assert.Equal(t, 36, votes.TotalCreditsSpent)

	_, err = svc.CloseRound(ctx, resp.RoundID, "member")
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = svc.CloseRound(ctx, resp.RoundID, "admin")
	require.NoError(t, err)

	res, err = svc.CastVote(ctx, resp.SessionID, p1, "member", 1)
	assert.ErrorIs(t, err, models.ErrRoundNotOpen)
	assert.False(t, res.Success)

	votes, err = svc.GetUserVotes(ctx, resp.SessionID, "member")
	require.NoError(t, err)
	assert.Equal(t, 6, votes.Votes[p1], "allocations stay readable after close")
}

func TestGetResults(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	convID, ids := seedHive(t, conn, "Library", "Park")
	resp, err := svc.CreateDecisionSession(ctx, "admin", createRequest(convID, ids))
	require.NoError(t, err)

	_, err = svc.GetResults(ctx, resp.SessionID, 1, "member")
	assert.ErrorIs(t, err, models.ErrRoundNotClosed, "results are sealed while voting")

	_, err = svc.GetResults(ctx, resp.SessionID, 9, "member")
	assert.ErrorIs(t, err, models.ErrRoundNotFound)

	closed, err := svc.CloseRound(ctx, resp.RoundID, "admin")
	require.NoError(t, err)

	got, err := svc.GetResults(ctx, resp.SessionID, 1, "member")
	require.NoError(t, err)
	assert.Equal(t, closed.Rankings, got.Rankings)
	require.NotNil(t, got.Analysis)
}

// Scenario D end to end: a proposal climbing from third to first.
func TestRankChangeAcrossRounds(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	convID, ids := seedHive(t, conn, "P1", "P2", "P3")
	resp, err := svc.CreateDecisionSession(ctx, "admin", createRequest(convID, ids))
	require.NoError(t, err)
	detail, err := svc.GetSession(ctx, resp.SessionID, "admin")
	require.NoError(t, err)
	p1, p2, p3 := detail.Proposals[0].ID, detail.Proposals[1].ID, detail.Proposals[2].ID

	vote := func(user, proposal string, delta int) {
		t.Helper()
		_, err := svc.CastVote(ctx, resp.SessionID, proposal, user, delta)
		require.NoError(t, err)
	}
	vote("u1", p1, 5)
	vote("u1", p2, 3)
	vote("u2", p3, 1)

	first, err := svc.CloseRound(ctx, resp.RoundID, "admin")
	require.NoError(t, err)
	require.Equal(t, p3, first.Rankings[2].ProposalID)

	next, err := svc.StartNewRound(ctx, resp.SessionID, "admin", models.StartRoundRequest{KeepProposals: true})
	require.NoError(t, err)
	assert.Equal(t, 2, next.RoundNumber)

	vote("u1", p3, 9)
	vote("u2", p1, 1)

	second, err := svc.CloseRound(ctx, next.RoundID, "admin")
	require.NoError(t, err)
	require.Equal(t, p3, second.Rankings[0].ProposalID)
	require.NotNil(t, second.Rankings[0].ChangeFromPrevious)
	assert.Equal(t, 2, *second.Rankings[0].ChangeFromPrevious)
}

func TestGetLiveTally_Visibility(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	tests := []struct {
		visibility   models.Visibility
		wantHidden   bool
		wantPerVoter bool
	}{
		{models.VisibilityHidden, true, false},
		{models.VisibilityAggregate, false, false},
		{models.VisibilityTransparent, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.visibility), func(t *testing.T) {
			ts := testutil.CreateTestSession(t, conn, "hive-1", "admin", tt.visibility, "P1", "P2")
			testutil.SetTestVotes(t, conn, ts.Round.ID, "u1", map[string]int{ts.Proposals[0].ID: 2})
			testutil.SetTestVotes(t, conn, ts.Round.ID, "u2", map[string]int{ts.Proposals[0].ID: 1, ts.Proposals[1].ID: 4})

			tally, err := svc.GetLiveTally(ctx, ts.Session.ID, "u1")
			if tt.wantHidden {
				assert.ErrorIs(t, err, models.ErrResultsHidden)
			} else {
				require.NoError(t, err)
				assert.Equal(t, map[string]int{ts.Proposals[0].ID: 3, ts.Proposals[1].ID: 4}, tally.Totals)
				assert.Equal(t, 2, tally.VoterCount)
				if tt.wantPerVoter {
					assert.Equal(t, 2, tally.PerVoter["u1"][ts.Proposals[0].ID])
				} else {
					assert.Nil(t, tally.PerVoter)
				}
			}

			_, err = store.MarkClosed(ctx, conn, ts.Round.ID, time.Now())
			require.NoError(t, err)
			tally, err = svc.GetLiveTally(ctx, ts.Session.ID, "u1")
			require.NoError(t, err, "closed rounds are no longer sealed")
			assert.Equal(t, 2, tally.VoterCount)
		})
	}
}
