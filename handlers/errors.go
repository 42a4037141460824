// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/hive-decide/middleware"
	"github.com/danielhkuo/hive-decide/models"
)

// StatusFor maps an error code to its HTTP status.
func StatusFor(code models.Code) int {
	switch code {
	case models.CodeConversationNotFound,
		models.CodeNotDecisionSession,
		models.CodeResponseNotFound,
		models.CodeRoundNotFound,
		models.CodeSourceConversationNotFound:
		return http.StatusNotFound
	case models.CodeForbidden:
		return http.StatusForbidden
	case models.CodeUnauthorized:
		return http.StatusUnauthorized
	case models.CodeRoundNotOpen,
		models.CodeRoundNotClosed,
		models.CodeRoundNotClosedOrFinalized,
		models.CodeResultsHidden,
		models.CodeBudgetExceeded,
		models.CodeNegativeVotes,
		models.CodeNotAProposal:
		return http.StatusConflict
	case models.CodeValidation:
		return http.StatusBadRequest
	case models.CodeTransient:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// errorDetail returns the status, code and client-safe message for err.
// Uncoded errors are logged and reported as INTERNAL.
func errorDetail(r *http.Request, op string, err error) (int, models.Code, string) {
	code := models.CodeOf(err)
	status := StatusFor(code)
	if code == models.CodeInternal {
		slog.Error(op+" failed", "path", r.URL.Path, "error", err)
		return status, code, "internal error"
	}

	msg := err.Error()
	var e *models.Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	slog.Debug(op+" rejected", "path", r.URL.Path, "code", code)
	return status, code, msg
}

// writeError writes a coded error response for err.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code, msg := errorDetail(r, op, err)
	middleware.CodedErrorResponse(w, status, code, msg)
}
