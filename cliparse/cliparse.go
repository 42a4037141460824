// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Defaults
const (
	DefaultPort          = 3318
	DefaultCreditBudget  = 100
	DefaultResultWait    = 2 * time.Second
	DefaultSweepInterval = 30 * time.Second
	DefaultTxRetries     = 5
	DefaultLogLevel      = "info"
)

type Config struct {
	Port            int
	DatabaseURL     string
	DatabaseType    string
	UserTokenSecret string
	CreditBudget    int
	ResultWait      time.Duration
	SweepInterval   time.Duration
	TxRetries       uint
	LogLevel        string
	EnvFile         string
}

// BindFlags registers every config flag on fs and returns the Config they
// write into. Call Resolve after fs is parsed.
func BindFlags(fs *pflag.FlagSet) *Config {
	cfg := &Config{}

	// Network and storage (can be CLI args or env)
	fs.IntVarP(&cfg.Port, "port", "p", DefaultPort, "Server port")
	fs.StringVarP(&cfg.DatabaseURL, "database-url", "d", "", "Database URL")
	fs.StringVarP(&cfg.DatabaseType, "database-type", "t", "", "Database type (sqlite or postgres, inferred from URL when empty)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.UserTokenSecret, "user-secret", "", "HMAC secret for X-User-Token (prefer env)")

	// Voting behavior
	fs.IntVar(&cfg.CreditBudget, "credits", DefaultCreditBudget, "Credit budget per user per round")
	fs.DurationVar(&cfg.ResultWait, "result-wait", DefaultResultWait, "How long a close waits for a concurrent close to publish results")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", DefaultSweepInterval, "Deadline sweeper period (0 disables)")
	fs.UintVar(&cfg.TxRetries, "tx-retries", DefaultTxRetries, "Retries for conflicting vote transactions")

	fs.StringVar(&cfg.LogLevel, "log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.EnvFile, "env-file", ".env", "Optional dotenv file")

	return cfg
}

// Resolve fills every flag the user did not set from the environment, with
// values from the env file below real environment variables, and validates
// the result. The user token secret is checked by RequireUserSecret since
// only the server needs it.
func Resolve(fs *pflag.FlagSet, cfg Config) (Config, error) {
	if cfg.EnvFile != "" {
		// godotenv never overrides variables already in the environment.
		if err := godotenv.Load(cfg.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", cfg.EnvFile, err)
		}
	}

	r := resolver{fs: fs}
	r.int("port", "PORT", &cfg.Port)
	r.string("database-url", "DATABASE_URL", &cfg.DatabaseURL)
	r.string("database-type", "DATABASE_TYPE", &cfg.DatabaseType)
	r.string("user-secret", "USER_TOKEN_SECRET", &cfg.UserTokenSecret)
	r.int("credits", "CREDIT_BUDGET", &cfg.CreditBudget)
	r.duration("result-wait", "RESULT_WAIT", &cfg.ResultWait)
	r.duration("sweep-interval", "SWEEP_INTERVAL", &cfg.SweepInterval)
	r.uint("tx-retries", "TX_RETRIES", &cfg.TxRetries)
	r.string("log-level", "LOG_LEVEL", &cfg.LogLevel)
	if r.err != nil {
		return Config{}, r.err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if cfg.CreditBudget <= 0 {
		return Config{}, errors.New("credit budget must be positive")
	}
	if cfg.ResultWait <= 0 {
		return Config{}, errors.New("result wait must be positive")
	}
	if cfg.SweepInterval < 0 {
		return Config{}, errors.New("sweep interval cannot be negative")
	}

	return cfg, nil
}

// RequireUserSecret reports an error when no token secret is configured.
func (c Config) RequireUserSecret() error {
	if c.UserTokenSecret == "" {
		return errors.New("USER_TOKEN_SECRET required")
	}
	return nil
}

// ParseFlags parses args on a fresh flag set and resolves the config.
func ParseFlags(args []string) (Config, error) {
	fs := pflag.NewFlagSet("hive-decide", pflag.ContinueOnError)
	cfg := BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return Resolve(fs, *cfg)
}

// resolver applies environment fallbacks to flags left unset, keeping the
// first parse error.
type resolver struct {
	fs  *pflag.FlagSet
	err error
}

func (r *resolver) lookup(flagName, env string) (string, bool) {
	if r.err != nil || r.fs.Changed(flagName) {
		return "", false
	}
	v := os.Getenv(env)
	return v, v != ""
}

func (r *resolver) string(flagName, env string, dst *string) {
	if v, ok := r.lookup(flagName, env); ok {
		*dst = v
	}
}

func (r *resolver) int(flagName, env string, dst *int) {
	if v, ok := r.lookup(flagName, env); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			r.err = fmt.Errorf("invalid %s env variable", env)
			return
		}
		*dst = n
	}
}

func (r *resolver) uint(flagName, env string, dst *uint) {
	if v, ok := r.lookup(flagName, env); ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			r.err = fmt.Errorf("invalid %s env variable", env)
			return
		}
		*dst = uint(n)
	}
}

func (r *resolver) duration(flagName, env string, dst *time.Duration) {
	if v, ok := r.lookup(flagName, env); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			r.err = fmt.Errorf("invalid %s env variable", env)
			return
		}
		*dst = d
	}
}
