package hooks

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"webserver/pkg/mvc"
)

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

// Limiter is a per-client token bucket hook keyed by client IP.
type Limiter struct {
	mu            sync.Mutex
	m             map[string]*limiterEntry
	rps           float64
	burst         int
	denied        mvc.Result
	startCleanup  sync.Once
	stopOnce      sync.Once
	ttl           time.Duration
	cleanupPeriod time.Duration
	stopCh        chan struct{}
	now           func() time.Time
}

// RateLimit allows rps requests per second per client with the given
// burst. denied is returned once a client runs dry; nil means a JSON error.
func RateLimit(rps float64, burst int, denied mvc.Result) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		rps:           rps,
		burst:         burst,
		denied:        deny(denied, "rate limit exceeded"),
		ttl:           10 * time.Minute,
		cleanupPeriod: time.Minute,
		stopCh:        make(chan struct{}),
		now:           time.Now,
	}
}

// Handle implements mvc.Hook.
func (p *Limiter) Handle(r *mvc.Request) mvc.Result {
	if p.rps <= 0 {
		return nil
	}
	if p.get(ClientIP(r.RemoteAddr)).AllowN(p.now(), 1) {
		return nil
	}
	return p.denied
}

// get limiter for key, create if missing; start cleanup once
func (p *Limiter) get(key string) *rate.Limiter {
	p.startCleanup.Do(func() {
		go p.cleanupLoop()
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*limiterEntry)
	}
	if e, ok := p.m[key]; ok {
		e.lastSeen = p.now()
		return e.l
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[key] = &limiterEntry{l: l, lastSeen: p.now()}
	return l
}

// Len returns the number of tracked clients.
func (p *Limiter) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

// Shutdown stops the cleanup goroutine.
func (p *Limiter) Shutdown() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

func (p *Limiter) sweep() {
	cutoff := p.now().Add(-p.ttl)
	p.mu.Lock()
	for k, e := range p.m {
		if e.lastSeen.Before(cutoff) {
			delete(p.m, k)
		}
	}
	p.mu.Unlock()
}

// cleanupLoop removes limiters unused > TTL.
func (p *Limiter) cleanupLoop() {
	ticker := time.NewTicker(p.cleanupPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.sweep()
		case <-p.stopCh:
			return
		}
	}
}
