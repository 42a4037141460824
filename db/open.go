// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects SQL differences between the supported backends.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect resolves a configured database type. An empty type is
// inferred from the URL scheme.
func ParseDialect(dbType, url string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(dbType)) {
	case "postgres", "postgresql":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "":
		if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
			return Postgres, nil
		}
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported database type %q", dbType)
}

// Open connects to the database for the given dialect.
//
// SQLite connections take the write lock at BEGIN and wait on busy
// instead of failing, and the pool is limited to one connection so that
// writers never interleave.
func Open(dialect Dialect, url string) (*sql.DB, error) {
	switch dialect {
	case Postgres:
		return sql.Open("postgres", url)
	case SQLite:
		conn, err := sql.Open("sqlite", sqliteDSN(url))
		if err != nil {
			return nil, err
		}
		conn.SetMaxOpenConns(1)
		return conn, nil
	}
	return nil, fmt.Errorf("unsupported dialect %q", dialect)
}

func sqliteDSN(url string) string {
	url = strings.TrimPrefix(url, "sqlite://")
	params := "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_txlock=immediate"
	if strings.Contains(url, "?") {
		return url + "&" + params
	}
	return url + "?" + params
}

// TxOptions returns the options for ledger transactions.
func (d Dialect) TxOptions() *sql.TxOptions {
	if d == Postgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	// SQLite transactions are serializable; the driver rejects explicit levels.
	return nil
}

// ShareLock returns the row-lock clause used when reading a round that a
// transaction depends on.
func (d Dialect) ShareLock() string {
	if d == Postgres {
		return " FOR SHARE"
	}
	return ""
}
