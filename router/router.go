// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/hive-decide/cliparse"
	"github.com/danielhkuo/hive-decide/decision"
	"github.com/danielhkuo/hive-decide/handlers"
	"github.com/danielhkuo/hive-decide/middleware"
)

func NewRouter(conn *sql.DB, svc *decision.Service, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(svc)
	votingHandler := handlers.NewVotingHandler(svc)
	roundHandler := handlers.NewRoundHandler(svc)
	resultsHandler := handlers.NewResultsHandler(svc)

	// authed wraps a handler with logging and X-User-Token verification
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.Authenticate(cfg.UserTokenSecret, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := conn.PingContext(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Sessions
	mux.HandleFunc("POST /sessions", authed(sessionHandler.CreateSession))
	mux.HandleFunc("GET /sessions/{id}", authed(sessionHandler.GetSession))

	// Voting
	mux.HandleFunc("POST /sessions/{id}/votes", authed(votingHandler.CastVote))
	mux.HandleFunc("GET /sessions/{id}/votes/me", authed(votingHandler.GetMyVotes))

	// Round lifecycle (hive admins)
	mux.HandleFunc("POST /sessions/{id}/rounds", authed(roundHandler.StartRound))
	mux.HandleFunc("POST /rounds/{id}/close", authed(roundHandler.CloseRound))

	// Results
	mux.HandleFunc("GET /sessions/{id}/rounds/{number}/results", authed(resultsHandler.GetResults))
	mux.HandleFunc("GET /sessions/{id}/tally", authed(resultsHandler.GetTally))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hive-decide API v1"))
	})

	return mux
}
