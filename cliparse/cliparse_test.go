// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noEnvFile keeps a stray .env in the package directory out of the tests.
var noEnvFile = []string{"--env-file", ""}

func TestParseFlags_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")

	cfg, err := ParseFlags(noEnvFile)
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultCreditBudget, cfg.CreditBudget)
	assert.Equal(t, DefaultResultWait, cfg.ResultWait)
	assert.Equal(t, DefaultSweepInterval, cfg.SweepInterval)
	assert.Equal(t, uint(DefaultTxRetries), cfg.TxRetries)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseFlags_EnvVars(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("USER_TOKEN_SECRET", "s3cret")
	t.Setenv("CREDIT_BUDGET", "49")
	t.Setenv("RESULT_WAIT", "750ms")
	t.Setenv("TX_RETRIES", "2")

	cfg, err := ParseFlags(noEnvFile)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "postgres://test", cfg.DatabaseURL)
	assert.Equal(t, "s3cret", cfg.UserTokenSecret)
	assert.Equal(t, 49, cfg.CreditBudget)
	assert.Equal(t, 750*time.Millisecond, cfg.ResultWait)
	assert.Equal(t, uint(2), cfg.TxRetries)
	assert.NoError(t, cfg.RequireUserSecret())
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CREDIT_BUDGET", "49")

	cfg, err := ParseFlags(append([]string{"-p", "8080", "-d", "file:test.db", "--credits", "25"}, noEnvFile...))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port, "CLI should override env")
	assert.Equal(t, 25, cfg.CreditBudget, "CLI should override env")
}

func TestParseFlags_EnvFileBelowEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DATABASE_URL=file:from-dotenv.db\nSWEEP_INTERVAL=5s\nLOG_LEVEL=debug\n"), 0o600))

	t.Setenv("LOG_LEVEL", "warn")
	// godotenv sets variables for the process; make sure they are dropped afterwards.
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SWEEP_INTERVAL", "")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("SWEEP_INTERVAL")

	cfg, err := ParseFlags([]string{"--env-file", envFile})
	require.NoError(t, err)

	assert.Equal(t, "file:from-dotenv.db", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Second, cfg.SweepInterval)
	assert.Equal(t, "warn", cfg.LogLevel, "environment should win over the env file")
}

func TestParseFlags_MissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")

	_, err := ParseFlags([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")})
	assert.NoError(t, err)
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"missing database url", map[string]string{"DATABASE_URL": ""}, nil},
		{"invalid port env", map[string]string{"DATABASE_URL": "x", "PORT": "http"}, nil},
		{"invalid duration env", map[string]string{"DATABASE_URL": "x", "RESULT_WAIT": "soon"}, nil},
		{"non-positive budget", map[string]string{"DATABASE_URL": "x"}, []string{"--credits", "0"}},
		{"unknown flag", map[string]string{"DATABASE_URL": "x"}, []string{"--bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := ParseFlags(append(tt.args, noEnvFile...))
			assert.Error(t, err)
		})
	}
}

func TestRequireUserSecret(t *testing.T) {
	assert.Error(t, Config{}.RequireUserSecret())
	assert.NoError(t, Config{UserTokenSecret: "x"}.RequireUserSecret())
}
