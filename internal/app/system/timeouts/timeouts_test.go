package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Long: 5 * time.Minute})
	if Long() != 5*time.Minute {
		t.Errorf("Long = %v", Long())
	}
	if Short() != DefaultShort {
		t.Errorf("Short = %v, want default", Short())
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Cleanup(Reset)
	t.Setenv("TIMEOUT_MINT", "90s")
	t.Setenv("TIMEOUT_PING", "nonsense")
	t.Setenv("TIMEOUT_SHORT", "-1s")

	if n := ConfigureFromEnv(); n != 1 {
		t.Errorf("configured = %d, want 1", n)
	}
	c := Current()
	if c.Mint != 90*time.Second {
		t.Errorf("Mint = %v", c.Mint)
	}
	if c.Ping != DefaultPing || c.Short != DefaultShort {
		t.Errorf("invalid values must be skipped: %+v", c)
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.New(core), "slow thing")
	<-ctx.Done()
	cancel()

	if logs.FilterMessage("operation timed out").Len() != 1 {
		t.Errorf("expected one timeout warning, got %d entries", logs.Len())
	}
}

func TestWithTimeout_NoLogOnCancel(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	_, cancel := WithTimeout(context.Background(), time.Minute, zap.New(core), "fast thing")
	cancel()
	if logs.Len() != 0 {
		t.Errorf("unexpected log entries: %d", logs.Len())
	}
}
