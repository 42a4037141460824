// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package testutil provides database fixtures and HTTP helpers for tests.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/hive-decide/auth"
	"github.com/danielhkuo/hive-decide/cliparse"
	"github.com/danielhkuo/hive-decide/db"
	"github.com/danielhkuo/hive-decide/models"
	"github.com/danielhkuo/hive-decide/store"
)

// TestSecret signs X-User-Token headers in tests.
const TestSecret = "test-user-secret"

// SetupTestDB creates a fresh SQLite database with the full schema in the
// test's temp dir. It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.SQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(context.Background(), conn, db.SQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseURL:     "file:test.db",
		DatabaseType:    string(db.SQLite),
		UserTokenSecret: TestSecret,
		CreditBudget:    cliparse.DefaultCreditBudget,
		ResultWait:      500 * time.Millisecond,
		TxRetries:       cliparse.DefaultTxRetries,
		LogLevel:        "error",
	}
}

// AddHiveMember records a user's role in a hive.
func AddHiveMember(t *testing.T, conn *sql.DB, hiveID, userID, role string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO hive_member (hive_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (hive_id, user_id) DO UPDATE SET role = excluded.role
	`, hiveID, userID, role)
	if err != nil {
		t.Fatalf("Failed to add hive member: %v", err)
	}
}

// CreateTestConversation creates an upstream conversation with one statement
// per text and returns the conversation id and statement ids in order.
// Statement i gets cluster index i and agree percent 50+i.
func CreateTestConversation(t *testing.T, conn *sql.DB, hiveID, convType, analysisStatus string, texts ...string) (string, []string) {
	t.Helper()

	convID := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO conversation (id, hive_id, type, analysis_status)
		VALUES ($1, $2, $3, $4)
	`, convID, hiveID, convType, analysisStatus)
	if err != nil {
		t.Fatalf("Failed to create test conversation: %v", err)
	}

	ids := make([]string, 0, len(texts))
	for i, text := range texts {
		id := auth.NewID()
		_, err := conn.Exec(`
			INSERT INTO conversation_statement (id, conversation_id, cluster_index, statement_text, agree_percent)
			VALUES ($1, $2, $3, $4, $5)
		`, id, convID, i, text, 50.0+float64(i))
		if err != nil {
			t.Fatalf("Failed to create test statement: %v", err)
		}
		ids = append(ids, id)
	}

	return convID, ids
}

// TestSession is a session seeded directly through the store.
type TestSession struct {
	Session   models.DecisionSession
	Round     models.DecisionRound
	Proposals []models.Proposal
}

// ProposalIDs returns the proposal ids in display order.
func (s TestSession) ProposalIDs() []string {
	ids := make([]string, len(s.Proposals))
	for i, p := range s.Proposals {
		ids[i] = p.ID
	}
	return ids
}

// CreateTestSession seeds a session in hiveID with one open round and a
// proposal per label. adminID is recorded as a hive admin and creator.
func CreateTestSession(t *testing.T, conn *sql.DB, hiveID, adminID string, visibility models.Visibility, labels ...string) TestSession {
	t.Helper()
	ctx := context.Background()
	now := store.Now()

	AddHiveMember(t, conn, hiveID, adminID, models.RoleAdmin)

	ts := TestSession{
		Session: models.DecisionSession{
			ID:                   auth.NewID(),
			HiveID:               hiveID,
			SourceConversationID: auth.NewID(),
			Title:                "Test Session",
			ConsensusThreshold:   50,
			Visibility:           visibility,
			CreatedBy:            adminID,
			CreatedAt:            now,
		},
	}
	if err := store.InsertSession(ctx, conn, ts.Session); err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	for i, label := range labels {
		ts.Proposals = append(ts.Proposals, models.Proposal{
			ID:            auth.NewID(),
			SessionID:     ts.Session.ID,
			ProposalSet:   1,
			StatementText: label,
			DisplayOrder:  i,
			CreatedAt:     now,
		})
	}
	if err := store.InsertProposals(ctx, conn, ts.Proposals); err != nil {
		t.Fatalf("Failed to create test proposals: %v", err)
	}

	ts.Round = models.DecisionRound{
		ID:          auth.NewID(),
		SessionID:   ts.Session.ID,
		RoundNumber: 1,
		ProposalSet: 1,
		Status:      models.StatusVotingOpen,
		Visibility:  visibility,
		OpenedAt:    now,
	}
	if err := store.InsertRound(ctx, conn, ts.Round); err != nil {
		t.Fatalf("Failed to create test round: %v", err)
	}

	return ts
}

// SetTestVotes writes a user's allocation directly, bypassing the budget.
func SetTestVotes(t *testing.T, conn *sql.DB, roundID, userID string, votes map[string]int) {
	t.Helper()

	for proposalID, n := range votes {
		if err := store.UpsertVote(context.Background(), conn, roundID, userID, proposalID, n, store.Now()); err != nil {
			t.Fatalf("Failed to set test votes: %v", err)
		}
	}
}

// UserHeaders returns the identity header for userID.
func UserHeaders(userID string) map[string]string {
	return map[string]string{"X-User-Token": auth.SignUserToken(userID, TestSecret)}
}

// UserID returns a distinct user id for index i.
func UserID(i int) string {
	return fmt.Sprintf("user-%03d", i)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
