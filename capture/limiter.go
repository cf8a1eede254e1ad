package capture

import (
	"context"
	"sync"

	"github.com/fwojciec/pagelens"
	"golang.org/x/time/rate"
)

// DefaultHostLimit is the number of tracked hosts above which idle
// limiters are evicted.
const DefaultHostLimit = 1024

var _ pagelens.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter throttles captures per target host using token buckets.
// Hosts are limited independently. Limiters whose bucket has refilled are
// indistinguishable from new ones and are evicted once the number of
// tracked hosts reaches the host limit.
type DomainLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	rps       float64
	burst     int
	hostLimit int
	sweepAt   int
}

// LimiterOption configures a DomainLimiter.
type LimiterOption func(*DomainLimiter)

// WithHostLimit sets how many hosts are tracked before idle limiters are
// evicted. Values below 1 keep DefaultHostLimit.
func WithHostLimit(n int) LimiterOption {
	return func(d *DomainLimiter) {
		if n > 0 {
			d.hostLimit = n
		}
	}
}

// NewDomainLimiter creates a DomainLimiter allowing rps captures per second
// to each host. burst values below 1 are treated as 1.
func NewDomainLimiter(rps float64, burst int, opts ...LimiterOption) *DomainLimiter {
	d := &DomainLimiter{
		limiters:  make(map[string]*rate.Limiter),
		rps:       rps,
		burst:     max(burst, 1),
		hostLimit: DefaultHostLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.sweepAt = d.hostLimit
	return d
}

// Wait blocks until the host's limiter grants a token.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		if len(d.limiters) >= d.sweepAt {
			d.evictIdle()
			// Hosts still throttled after a sweep raise the threshold so
			// sweeps stay amortized.
			d.sweepAt = max(2*len(d.limiters), d.hostLimit)
		}
		limiter = rate.NewLimiter(rate.Limit(d.rps), d.burst)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}

// Hosts returns the number of hosts currently tracked.
func (d *DomainLimiter) Hosts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.limiters)
}

// evictIdle drops limiters with a full bucket. Must be called with mu held.
func (d *DomainLimiter) evictIdle() {
	full := float64(d.burst)
	for host, l := range d.limiters {
		if l.Tokens() >= full {
			delete(d.limiters, host)
		}
	}
}
