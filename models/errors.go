// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "errors"

// Code is a stable machine-readable error code.
type Code string

// Error codes
const (
	CodeConversationNotFound       Code = "CONVERSATION_NOT_FOUND"
	CodeNotDecisionSession         Code = "NOT_DECISION_SESSION"
	CodeResponseNotFound           Code = "RESPONSE_NOT_FOUND"
	CodeNotAProposal               Code = "NOT_A_PROPOSAL"
	CodeNegativeVotes              Code = "NEGATIVE_VOTES"
	CodeBudgetExceeded             Code = "BUDGET_EXCEEDED"
	CodeRoundNotOpen               Code = "ROUND_NOT_OPEN"
	CodeRoundNotFound              Code = "ROUND_NOT_FOUND"
	CodeRoundNotClosed             Code = "ROUND_NOT_CLOSED"
	CodeRoundNotClosedOrFinalized  Code = "ROUND_NOT_CLOSED_OR_NOT_FINALIZED"
	CodeSourceConversationNotFound Code = "SOURCE_CONVERSATION_NOT_FOUND"
	CodeResultsHidden              Code = "RESULTS_HIDDEN"
	CodeForbidden                  Code = "FORBIDDEN"
	CodeUnauthorized               Code = "UNAUTHORIZED"
	CodeValidation                 Code = "VALIDATION_ERROR"
	CodeTransient                  Code = "TRANSIENT"
	CodeInternal                   Code = "INTERNAL"
)

// Error is a coded, user-facing failure.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Is matches any *Error carrying the same code, so a sentinel matches a
// detailed copy produced by WithMessage.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e with a more specific message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg}
}

var (
	ErrConversationNotFound       = &Error{CodeConversationNotFound, "conversation not found"}
	ErrNotDecisionSession         = &Error{CodeNotDecisionSession, "conversation is not a decision session"}
	ErrResponseNotFound           = &Error{CodeResponseNotFound, "proposal not found"}
	ErrNotAProposal               = &Error{CodeNotAProposal, "statement is not a proposal in the current round"}
	ErrNegativeVotes              = &Error{CodeNegativeVotes, "vote count cannot go below zero"}
	ErrBudgetExceeded             = &Error{CodeBudgetExceeded, "not enough credits remaining"}
	ErrRoundNotOpen               = &Error{CodeRoundNotOpen, "round is not open for voting"}
	ErrRoundNotFound              = &Error{CodeRoundNotFound, "round not found"}
	ErrRoundNotClosed             = &Error{CodeRoundNotClosed, "results are sealed until the round is closed"}
	ErrRoundNotClosedOrFinalized  = &Error{CodeRoundNotClosedOrFinalized, "current round has not been closed and finalized"}
	ErrSourceConversationNotFound = &Error{CodeSourceConversationNotFound, "source conversation not found or not analysis-ready"}
	ErrResultsHidden              = &Error{CodeResultsHidden, "live results are hidden for this round"}
	ErrForbidden                  = &Error{CodeForbidden, "hive admin role required"}
	ErrUnauthorized               = &Error{CodeUnauthorized, "authentication required"}
	ErrValidation                 = &Error{CodeValidation, "invalid request"}
	ErrTransient                  = &Error{CodeTransient, "temporarily unavailable, retry later"}
)

// CodeOf extracts the code of a coded error anywhere in err's chain.
// Uncoded errors report CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
