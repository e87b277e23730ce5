package config

import (
	"os"
	"testing"
)

func TestParseAppliesDefaultsWithNoArgs(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	def := DefaultConfig()
	if cfg.HTTPPort != def.HTTPPort {
		t.Errorf("expected default port %d, got %d", def.HTTPPort, cfg.HTTPPort)
	}
	if cfg.MarketDataSource != "http" {
		t.Errorf("expected default marketdata source \"http\", got %q", cfg.MarketDataSource)
	}
}

func TestParseFlagsOverrideDefaults(t *testing.T) {
	cfg, err := Parse([]string{"-http-port", "9090", "-marketdata-source", "polygon"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTPPort != 9090 {
		t.Errorf("expected flag-overridden port 9090, got %d", cfg.HTTPPort)
	}
	if cfg.MarketDataSource != "polygon" {
		t.Errorf("expected flag-overridden marketdata source, got %q", cfg.MarketDataSource)
	}
}

func TestParseEnvOverridesFlagsAndDefaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "7000")
	t.Setenv("DATABASE_URL", "postgres://env-wins")

	cfg, err := Parse([]string{"-http-port", "9090", "-db-dsn", "postgres://flag-value"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTPPort != 7000 {
		t.Errorf("expected env to win over flag for port, got %d", cfg.HTTPPort)
	}
	if cfg.DatabaseDSN != "postgres://env-wins" {
		t.Errorf("expected env to win over flag for DSN, got %q", cfg.DatabaseDSN)
	}
}

func TestParseRejectsInvalidHTTPPortEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-number")
	if _, err := Parse(nil); err == nil {
		t.Fatal("expected an error for a non-numeric HTTP_PORT")
	}
}

func TestParseRejectsUnknownFlag(t *testing.T) {
	if _, err := Parse([]string{"-not-a-real-flag"}); err == nil {
		t.Fatal("expected an error for an unrecognized flag")
	}
}

func TestMain(m *testing.M) {
	// Guard against a developer's shell environment leaking into the
	// suite's "defaults with no args" expectations.
	for _, key := range []string{"DATABASE_URL", "REDIS_URL", "LOG_LEVEL", "MARKETDATA_SOURCE", "HTTP_PORT"} {
		os.Unsetenv(key)
	}
	os.Exit(m.Run())
}
