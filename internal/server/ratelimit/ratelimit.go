// Package ratelimit limits requests per client with token buckets.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long a client bucket is kept after its last request.
const DefaultIdleTTL = 10 * time.Minute

// Config controls the per-client budget. A zero PerMinute disables limiting.
type Config struct {
	PerMinute int `mapstructure:"requests-per-minute" json:"requests_per_minute"`
	Burst     int `mapstructure:"burst" json:"burst"`
}

// Store decides whether the client identified by key may make one more request.
type Store interface {
	Allow(key string) bool
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryStore keeps one limiter per client in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	lastGC  time.Time
	now     func() time.Time
}

// NewMemoryStore builds a store from cfg. A zero PerMinute allows everything.
func NewMemoryStore(cfg Config) *MemoryStore {
	limit := rate.Inf
	if cfg.PerMinute > 0 {
		limit = rate.Limit(float64(cfg.PerMinute) / 60)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(cfg.PerMinute, 1)
	}

	return &MemoryStore{
		clients: make(map[string]*client),
		limit:   limit,
		burst:   cfg.Burst,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
	}
}

func (s *MemoryStore) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.prune(now)

	c, ok := s.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.clients[key] = c
	}
	c.lastSeen = now

	return c.limiter.AllowN(now, 1)
}

// Len reports how many clients are tracked.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// prune drops idle clients at most once per idleTTL. Called with mu held.
func (s *MemoryStore) prune(now time.Time) {
	if now.Sub(s.lastGC) < s.idleTTL {
		return
	}
	for key, c := range s.clients {
		if now.Sub(c.lastSeen) >= s.idleTTL {
			delete(s.clients, key)
		}
	}
	s.lastGC = now
}

// ClientKey identifies the caller by the host part of RemoteAddr.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
