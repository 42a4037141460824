// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Now returns the current time as stored: UTC at microsecond precision,
// which both backends round-trip exactly.
func Now() time.Time {
	return Timestamp(time.Now())
}

// Timestamp normalizes t for storage.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// nullable turns an optional value into a query argument.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
