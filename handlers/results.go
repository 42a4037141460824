// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/danielhkuo/hive-decide/decision"
	"github.com/danielhkuo/hive-decide/middleware"
	"github.com/danielhkuo/hive-decide/models"
)

type ResultsHandler struct {
	svc *decision.Service
}

func NewResultsHandler(svc *decision.Service) *ResultsHandler {
	return &ResultsHandler{svc: svc}
}

// GetResults handles GET /sessions/{id}/rounds/{number}/results
// Results are sealed until the round is closed.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	roundNumber, err := strconv.Atoi(r.PathValue("number"))
	if sessionID == "" || err != nil || roundNumber < 1 {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, models.CodeValidation, "session id and a positive round number are required")
		return
	}

	result, err := h.svc.GetResults(r.Context(), sessionID, roundNumber, middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, r, "get results", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, result)
}

// GetTally handles GET /sessions/{id}/tally
func (h *ResultsHandler) GetTally(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, models.CodeValidation, "session id is required")
		return
	}

	tally, err := h.svc.GetLiveTally(r.Context(), sessionID, middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, r, "get tally", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, tally)
}
