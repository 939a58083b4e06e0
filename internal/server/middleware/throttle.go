package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/errors"
	"golang.org/x/time/rate"

	"github.com/routelens/routelens/internal/metrics"
)

// Throttle admits relay clients through a token bucket per client key. The
// upstream quota is shared by all clients; the throttle keeps one noisy
// client from draining it.
type Throttle struct {
	mu      sync.Mutex
	clients map[string]*throttleEntry
	limit   rate.Limit
	burst   int
	header  string
	idleTTL time.Duration
	now     func() time.Time
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewThrottle returns a throttle allowing perSecond sustained requests and
// burst instantaneous ones per client. Clients are identified by header when
// present, otherwise by remote address. perSecond <= 0 admits everything.
func NewThrottle(perSecond float64, burst int, header string) *Throttle {
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		clients: make(map[string]*throttleEntry),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		header:  strings.TrimSpace(header),
		idleTTL: 15 * time.Minute,
		now:     time.Now,
	}
}

// Middleware wraps next with admission control.
func (t *Throttle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if t == nil || t.limit <= 0 {
			metrics.RecordRelayRequest(true)
			next.ServeHTTP(w, r)
			return
		}

		limiter := t.limiter(t.clientKey(r))
		reservation := limiter.ReserveN(t.now(), 1)
		if !reservation.OK() {
			t.reject(w, r, time.Second)
			return
		}
		if delay := reservation.DelayFrom(t.now()); delay > 0 {
			reservation.CancelAt(t.now())
			t.reject(w, r, delay)
			return
		}

		metrics.RecordRelayRequest(true)
		next.ServeHTTP(w, r)
	})
}

// Cleanup forgets clients idle for longer than the idle TTL.
func (t *Throttle) Cleanup() {
	cutoff := t.now().Add(-t.idleTTL)

	t.mu.Lock()
	defer t.mu.Unlock()

	for key, entry := range t.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(t.clients, key)
		}
	}
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (t *Throttle) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.Cleanup()
			}
		}
	}()
}

// Clients reports how many client buckets are tracked.
func (t *Throttle) Clients() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.clients)
}

func (t *Throttle) limiter(key string) *rate.Limiter {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, ok := t.clients[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(t.limit, t.burst)
	t.clients[key] = &throttleEntry{limiter: limiter, lastSeen: now}
	return limiter
}

func (t *Throttle) clientKey(r *http.Request) string {
	if t.header != "" {
		if value := strings.TrimSpace(r.Header.Get(t.header)); value != "" {
			return value
		}
	}

	// RealIP has already folded X-Forwarded-For into RemoteAddr.
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

func (t *Throttle) reject(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	metrics.RecordRelayRequest(false)

	seconds := int(retryAfter.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))

	envelope := errors.NewErrorEnvelope("RATE_LIMITED", "Too many requests from this client").
		WithCorrelationID(GetRequestID(r.Context()))
	envelope, _ = envelope.WithContext(map[string]interface{}{
		"retry_after_seconds": seconds,
	})
	writeErrorResponse(w, envelope, http.StatusTooManyRequests)
}
