// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/hive-decide/db"
	"github.com/danielhkuo/hive-decide/decision"
	"github.com/danielhkuo/hive-decide/middleware"
	"github.com/danielhkuo/hive-decide/testutil"
)

type testHandlers struct {
	sessions *SessionHandler
	voting   *VotingHandler
	rounds   *RoundHandler
	results  *ResultsHandler
}

func setupHandlers(t *testing.T) (*sql.DB, testHandlers) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	svc, _ := decision.Wire(conn, db.SQLite, testutil.GetTestConfig(), nil)
	return conn, testHandlers{
		sessions: NewSessionHandler(svc),
		voting:   NewVotingHandler(svc),
		rounds:   NewRoundHandler(svc),
		results:  NewResultsHandler(svc),
	}
}

// serve runs handler behind Authenticate, as the router mounts it.
func serve(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	middleware.Authenticate(testutil.TestSecret, handler)(w, req)
	return w
}

// as builds a request from userID with the given path values set.
func as(userID, method, path string, body interface{}, pathValues ...string) *http.Request {
	req := testutil.MakeRequest(method, path, body, testutil.UserHeaders(userID))
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	return req
}
