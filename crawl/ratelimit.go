package crawl

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/fwojciec/sitegraph"
	"golang.org/x/time/rate"
)

var _ sitegraph.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter provides per-domain rate limiting using token buckets,
// followed by an optional random pause so requests to one origin do not
// arrive at a fixed cadence.
//
// One DomainLimiter must be shared by all workers of a crawl.
type DomainLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	rps       float64
	minJitter time.Duration
	maxJitter time.Duration
}

// LimiterOption configures a DomainLimiter.
type LimiterOption func(*DomainLimiter)

// WithJitter adds a uniformly random pause in [min, max] after every
// token is granted.
func WithJitter(min, max time.Duration) LimiterOption {
	return func(d *DomainLimiter) {
		if max < min {
			min, max = max, min
		}
		d.minJitter = min
		d.maxJitter = max
	}
}

// NewDomainLimiter creates a new DomainLimiter with the specified requests per second limit.
// Each domain gets its own limiter with a burst of 1 (no bursting allowed).
func NewDomainLimiter(rps float64, opts ...LimiterOption) *DomainLimiter {
	d := &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Wait blocks until the rate limit allows a request to the domain and the
// jitter pause has elapsed.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	pause := d.jitter()
	if pause <= 0 {
		return nil
	}
	timer := time.NewTimer(pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (d *DomainLimiter) jitter() time.Duration {
	if d.maxJitter <= 0 {
		return 0
	}
	span := d.maxJitter - d.minJitter
	if span <= 0 {
		return d.minJitter
	}
	return d.minJitter + rand.N(span+1)
}
