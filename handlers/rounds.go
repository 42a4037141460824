// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/danielhkuo/hive-decide/decision"
	"github.com/danielhkuo/hive-decide/middleware"
	"github.com/danielhkuo/hive-decide/models"
)

type RoundHandler struct {
	svc *decision.Service
}

func NewRoundHandler(svc *decision.Service) *RoundHandler {
	return &RoundHandler{svc: svc}
}

// StartRound handles POST /sessions/{id}/rounds
// An empty body keeps the previous proposals with default settings.
func (h *RoundHandler) StartRound(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, models.CodeValidation, "session id is required")
		return
	}

	var req models.StartRoundRequest
	if err := middleware.ParseJSONBody(r, &req); errors.Is(err, io.EOF) {
		req.KeepProposals = true
	} else if err != nil {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, models.CodeValidation, "Invalid JSON")
		return
	}

	resp, err := h.svc.StartNewRound(r.Context(), sessionID, middleware.UserID(r.Context()), req)
	if err != nil {
		writeError(w, r, "start round", err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// CloseRound handles POST /rounds/{id}/close
// Concurrent and repeated closes all receive the same result.
func (h *RoundHandler) CloseRound(w http.ResponseWriter, r *http.Request) {
	roundID := r.PathValue("id")
	if roundID == "" {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, models.CodeValidation, "round id is required")
		return
	}

	result, err := h.svc.CloseRound(r.Context(), roundID, middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, r, "close round", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CloseRoundResponse{Result: result})
}
