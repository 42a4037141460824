// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("missing user token")
	ErrInvalidToken = errors.New("invalid token format")
	ErrBadSignature = errors.New("invalid token signature")
)

// NewID returns a random identifier for sessions, rounds and proposals.
func NewID() string {
	return uuid.NewString()
}

// signature computes the HMAC of a user id.
// This is deterministic and verifiable
func signature(userID, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(userID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner tokens
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// SignUserToken builds the X-User-Token value for a user: "<userID>.<hmac>".
func SignUserToken(userID, secret string) string {
	return userID + "." + signature(userID, secret)
}

// VerifyUserToken checks a token produced by SignUserToken and returns the
// user id it carries. User ids may contain dots; the signature may not.
func VerifyUserToken(token, secret string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	i := strings.LastIndexByte(token, '.')
	if i <= 0 || i == len(token)-1 {
		return "", ErrInvalidToken
	}
	userID, sig := token[:i], token[i+1:]
	if !hmac.Equal([]byte(sig), []byte(signature(userID, secret))) {
		return "", ErrBadSignature
	}
	return userID, nil
}
