// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package decision

import (
	"database/sql"
	"log/slog"

	"github.com/danielhkuo/hive-decide/budget"
	"github.com/danielhkuo/hive-decide/cliparse"
	"github.com/danielhkuo/hive-decide/conversations"
	"github.com/danielhkuo/hive-decide/db"
	"github.com/danielhkuo/hive-decide/ledger"
	"github.com/danielhkuo/hive-decide/membership"
	"github.com/danielhkuo/hive-decide/results"
	"github.com/danielhkuo/hive-decide/rounds"
)

// Wire builds the service and its round machine from configuration, using
// the SQL adapters for membership and conversations.
func Wire(conn *sql.DB, dialect db.Dialect, cfg cliparse.Config, logger *slog.Logger) (*Service, *rounds.Machine) {
	if logger == nil {
		logger = slog.Default()
	}
	members := membership.NewSQLChecker(conn)
	source := conversations.NewSQLSource(conn)

	agg := results.NewAggregator(conn, results.SummaryNarrator{}, cfg.TxRetries, logger)
	machine := rounds.NewMachine(conn, dialect, members, source, agg, rounds.Config{
		ResultWait: cfg.ResultWait,
		TxRetries:  cfg.TxRetries,
		Logger:     logger,
	})
	l := ledger.New(conn, dialect, budget.New(cfg.CreditBudget), cfg.TxRetries, logger)

	svc := NewService(conn, dialect, l, machine, members, source, Config{
		TxRetries: cfg.TxRetries,
		Logger:    logger,
	})
	return svc, machine
}
