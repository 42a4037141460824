// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/hive-decide/decision"
	"github.com/danielhkuo/hive-decide/middleware"
	"github.com/danielhkuo/hive-decide/models"
)

type VotingHandler struct {
	svc *decision.Service
}

func NewVotingHandler(svc *decision.Service) *VotingHandler {
	return &VotingHandler{svc: svc}
}

// voteFailure is the body of a rejected vote: the vote result with
// success=false alongside the standard error fields.
type voteFailure struct {
	models.VoteResult
	Error string      `json:"error"`
	Code  models.Code `json:"code"`
}

// CastVote handles POST /sessions/{id}/votes
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, models.CodeValidation, "session id is required")
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		h.reject(w, r, models.ErrValidation.WithMessage("Invalid JSON"))
		return
	}
	if err := models.Validate(req); err != nil {
		h.reject(w, r, err)
		return
	}

	result, err := h.svc.CastVote(r.Context(), sessionID, req.ProposalID, middleware.UserID(r.Context()), req.Delta)
	if err != nil {
		h.reject(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, result)
}

func (h *VotingHandler) reject(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := errorDetail(r, "cast vote", err)
	middleware.JSONResponse(w, status, voteFailure{
		VoteResult: models.VoteResult{
			Success:   false,
			ErrorCode: code,
			Message:   msg,
		},
		Error: http.StatusText(status),
		Code:  code,
	})
}

// GetMyVotes handles GET /sessions/{id}/votes/me
func (h *VotingHandler) GetMyVotes(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, models.CodeValidation, "session id is required")
		return
	}

	votes, err := h.svc.GetUserVotes(r.Context(), sessionID, middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, r, "get votes", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, votes)
}
