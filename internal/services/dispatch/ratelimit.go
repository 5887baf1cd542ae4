package dispatch

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a client submits too often
var ErrRateLimited = errors.New("too many submissions, please wait a minute and try again")

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client key
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
	idle    time.Duration
}

// NewRateLimiter allows perMinute submissions per client with the given burst.
// perMinute <= 0 disables limiting.
func NewRateLimiter(perMinute float64, burst int) *RateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   limit,
		burst:   burst,
		idle:    10 * time.Minute,
	}
}

// Allow consumes a token for key
func (l *RateLimiter) Allow(key string) bool {
	return l.allowAt(key, time.Now())
}

func (l *RateLimiter) allowAt(key string, now time.Time) bool {
	if l.limit == rate.Inf {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	client, ok := l.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = client
	}
	client.lastSeen = now

	if len(l.clients) > 1024 {
		l.pruneLocked(now)
	}

	return client.limiter.AllowN(now, 1)
}

// pruneLocked drops clients idle long enough for their bucket to be full again
func (l *RateLimiter) pruneLocked(now time.Time) {
	for key, client := range l.clients {
		if now.Sub(client.lastSeen) > l.idle {
			delete(l.clients, key)
		}
	}
}
