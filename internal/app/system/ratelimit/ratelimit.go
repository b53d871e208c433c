// Package ratelimit throttles expensive endpoints per caller with a fixed
// window counter.
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/valuesdao/internal/app/system/apperr"
)

// Limiter counts requests per key in fixed windows. Safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New returns a limiter allowing limit requests per key every duration.
// Call Close to stop the background sweep.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.sweep(duration * 2)
	return l
}

// Allow records one request for key and reports whether it is within limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// RetryAfter returns how long key must wait before its window resets.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		return 0
	}
	if d := w.expiresAt.Sub(l.now()); d > 0 {
		return d
	}
	return 0
}

// Close stops the sweep goroutine.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

// Done is closed once Close has been called.
func (l *Limiter) Done() <-chan struct{} {
	return l.stop
}

// Group owns the limiters created through it so they can be stopped
// together at shutdown. The zero value is ready to use.
type Group struct {
	mu       sync.Mutex
	limiters []*Limiter
}

// New creates a limiter owned by g.
func (g *Group) New(limit int, duration time.Duration) *Limiter {
	l := New(limit, duration)
	g.mu.Lock()
	g.limiters = append(g.limiters, l)
	g.mu.Unlock()
	return l
}

// Close stops every limiter created through g.
func (g *Group) Close() {
	g.mu.Lock()
	ls := g.limiters
	g.limiters = nil
	g.mu.Unlock()
	for _, l := range ls {
		l.Close()
	}
}

func (l *Limiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(r *http.Request) string

// Middleware rejects requests over the limit with 429 and a Retry-After
// header. A nil key func counts per client IP.
func (l *Limiter) Middleware(key KeyFunc) func(http.Handler) http.Handler {
	if key == nil {
		key = ClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if !l.Allow(k) {
				secs := int(l.RetryAfter(k).Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				apperr.WriteJSON(w, apperr.New(apperr.TooManyRequests, "Too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the caller's address, preferring the first
// X-Forwarded-For hop, then X-Real-IP, then RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
