// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

Flags are bound on a pflag.FlagSet, normally the persistent flags of the
cobra root command, and resolved after parsing:

	cfg := cliparse.BindFlags(root.PersistentFlags())
	// ... cobra parses
	resolved, err := cliparse.Resolve(root.PersistentFlags(), *cfg)

ParseFlags does both on a fresh flag set:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: PostgreSQL URL or SQLite path (required)
  - DatabaseType: postgres or sqlite, inferred from the URL when empty
  - UserTokenSecret: HMAC secret for X-User-Token (required to serve)
  - CreditBudget: Credits per user per round (default: 100)
  - ResultWait: How long a close waits on a concurrent close (default: 2s)
  - SweepInterval: Deadline sweeper period, 0 disables (default: 30s)
  - TxRetries: Retries for conflicting vote transactions (default: 5)
  - LogLevel: debug, info, warn or error (default: info)

# Precedence

	CLI flag  >  environment  >  .env file  >  default

Environment variables:

	PORT              → -p, --port
	DATABASE_URL      → -d, --database-url
	DATABASE_TYPE     → -t, --database-type
	USER_TOKEN_SECRET → --user-secret
	CREDIT_BUDGET     → --credits
	RESULT_WAIT       → --result-wait
	SWEEP_INTERVAL    → --sweep-interval
	TX_RETRIES        → --tx-retries
	LOG_LEVEL         → --log-level

The .env file is read with godotenv and never overrides variables already
set in the environment. A missing file is ignored.

# Validation

Resolve returns an error if:

  - DATABASE_URL is missing
  - a numeric or duration env variable does not parse
  - the credit budget or result wait is not positive
*/
package cliparse
