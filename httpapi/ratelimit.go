package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	hireAuth "github.com/MrEthical07/hireAuth"
	"golang.org/x/time/rate"
)

var (
	errTooManyRequests     = errors.New("too many requests")
	errTooManyAuthAttempts = errors.New("too many authentication attempts")
)

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// ipLimiter keeps one token bucket per client IP. A bucket refills Max
// tokens per Window and holds at most Max.
type ipLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	reason  error
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func newIPLimiter(cfg RateLimit, reason error) *ipLimiter {
	ttl := cfg.Window
	if ttl < 5*time.Minute {
		ttl = 5 * time.Minute
	}
	l := &ipLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Every(cfg.Window / time.Duration(cfg.Max)),
		burst:   cfg.Max,
		ttl:     ttl,
		reason:  reason,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// allow takes one token for key, or reports how long until one is free.
func (l *ipLimiter) allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	l.mu.Unlock()

	res := b.lim.ReserveN(now, 1)
	if !res.OK() {
		return false, 0
	}
	if d := res.DelayFrom(now); d > 0 {
		res.CancelAt(now)
		return false, d
	}
	return true, 0
}

func (l *ipLimiter) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *ipLimiter) sweep() {
	cutoff := l.now().Add(-l.ttl)
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, k)
		}
	}
}

func (l *ipLimiter) close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// ipKey buckets requests by client IP.
func ipKey(r *http.Request) string {
	if ip := clientIPFromContext(r.Context()); ip != "" {
		return ip
	}
	return "unknown"
}

// ipEmailKey buckets auth requests by client IP and the email in the JSON
// body, so users sharing an address do not exhaust each other's budget. The
// body is restored for the handler.
func ipEmailKey(r *http.Request) string {
	key := ipKey(r)
	if r.Body == nil {
		return key
	}
	buf, err := io.ReadAll(r.Body)
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf), r.Body), r.Body}
	if err != nil {
		return key
	}

	var peek struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(buf, &peek) != nil {
		return key
	}
	if email := strings.ToLower(strings.TrimSpace(peek.Email)); email != "" {
		return key + ":" + email
	}
	return key
}

// rateLimit applies l to requests whose path starts with prefix; an empty
// prefix covers everything.
func (s *Server) rateLimit(l *ipLimiter, next http.Handler, prefix string, key func(*http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if prefix != "" && !strings.HasPrefix(r.URL.Path, prefix) {
			next.ServeHTTP(w, r)
			return
		}
		if ok, wait := l.allow(key(r)); !ok {
			s.respondError(w, r, &hireAuth.RateLimitError{Reason: l.reason, Wait: wait})
			return
		}
		next.ServeHTTP(w, r)
	})
}
