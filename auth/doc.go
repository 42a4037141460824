// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth verifies caller identity and generates identifiers.

# User Tokens

Authentication itself happens upstream. The upstream layer forwards the
resolved user as an HMAC-SHA256 signed token:

	X-User-Token: <userID>.<signature>

	token := auth.SignUserToken(userID, secret)
	userID, err := auth.VerifyUserToken(token, secret)

The signature is URL-safe base64 without padding. Since it's deterministic,
the same user and secret always produce the same token, so nothing is
stored. A missing token returns ErrMissingToken, a malformed one
ErrInvalidToken and a forged one ErrBadSignature.

# Identifiers

Sessions, rounds and proposals get random UUIDs:

	id := auth.NewID()
*/
package auth
