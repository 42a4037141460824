// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/hive-decide/decision"
	"github.com/danielhkuo/hive-decide/middleware"
	"github.com/danielhkuo/hive-decide/models"
)

type SessionHandler struct {
	svc *decision.Service
}

func NewSessionHandler(svc *decision.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// CreateSession handles POST /sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, models.CodeValidation, "Invalid JSON")
		return
	}

	resp, err := h.svc.CreateDecisionSession(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		writeError(w, r, "create session", err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// GetSession handles GET /sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, models.CodeValidation, "session id is required")
		return
	}

	detail, err := h.svc.GetSession(r.Context(), sessionID, middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, r, "get session", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, detail)
}
