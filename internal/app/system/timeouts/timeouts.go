// Package timeouts holds the handler-level deadlines used with
// context.WithTimeout.
//
// Levels:
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: roster ranking and other multi-document reads
//   - Long: value generation (content fetch plus one LLM call)
//   - Mint: metadata pin plus one chain transaction
//
// Values can be overridden at startup with Configure or ConfigureFromEnv.
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 15 * time.Second
	DefaultLong   = 2 * time.Minute
	DefaultMint   = 3 * time.Minute
)

var (
	mu  sync.RWMutex
	cur = defaults()
)

// Config holds one duration per level. Zero values are ignored by Configure.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Mint   time.Duration
}

func defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Mint:   DefaultMint,
	}
}

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(cur)
}

func Ping() time.Duration   { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration  { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration   { return get(func(c Config) time.Duration { return c.Long }) }
func Mint() time.Duration   { return get(func(c Config) time.Duration { return c.Mint }) }

// fields pairs each level with its environment variable.
func (c *Config) fields() []struct {
	env string
	ptr *time.Duration
} {
	return []struct {
		env string
		ptr *time.Duration
	}{
		{"TIMEOUT_PING", &c.Ping},
		{"TIMEOUT_SHORT", &c.Short},
		{"TIMEOUT_MEDIUM", &c.Medium},
		{"TIMEOUT_LONG", &c.Long},
		{"TIMEOUT_MINT", &c.Mint},
	}
}

// Configure overrides the non-zero levels in cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	src := cfg.fields()
	for i, f := range cur.fields() {
		if d := *src[i].ptr; d > 0 {
			*f.ptr = d
		}
	}
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// ConfigureFromEnv reads TIMEOUT_PING, TIMEOUT_SHORT, TIMEOUT_MEDIUM,
// TIMEOUT_LONG and TIMEOUT_MINT (Go duration strings). Unset, invalid or
// non-positive values are skipped. Returns how many levels were applied.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for _, f := range cfg.fields() {
		v := os.Getenv(f.env)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*f.ptr = d
			n++
		}
	}
	Configure(cfg)
	return n
}

// Current returns a copy of the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// WithTimeout derives a context with the given timeout. The returned cancel
// logs a warning when the deadline was hit before cancel ran.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "generate user values")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
