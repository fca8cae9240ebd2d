package warehouse

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// breakerSet owns one circuit breaker per tenant id. Breakers are created
// lazily and removed on reset; a fresh breaker starts closed with zero counts.
type breakerSet struct {
	log      logrus.FieldLogger
	maxFails uint32
	blockFor time.Duration

	mu           sync.Mutex
	breakers     map[string]*gobreaker.CircuitBreaker[[]Row]
	blockedUntil map[string]time.Time
	// tripFails holds the consecutive failure count that opened each breaker.
	// gobreaker zeroes its counts on the open transition, so without this the
	// blocked state would report zero failures.
	tripFails map[string]uint32
}

func newBreakerSet(log logrus.FieldLogger, maxFails uint32, blockFor time.Duration) *breakerSet {
	return &breakerSet{
		log:          log,
		maxFails:     maxFails,
		blockFor:     blockFor,
		breakers:     make(map[string]*gobreaker.CircuitBreaker[[]Row]),
		blockedUntil: make(map[string]time.Time),
		tripFails:    make(map[string]uint32),
	}
}

func (b *breakerSet) get(tenantID string) *gobreaker.CircuitBreaker[[]Row] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.breakers[tenantID]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker[[]Row](gobreaker.Settings{
		Name:        tenantID,
		MaxRequests: 1,
		Timeout:     b.blockFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures < b.maxFails {
				return false
			}

			b.mu.Lock()
			b.tripFails[tenantID] = counts.ConsecutiveFailures
			b.mu.Unlock()

			return true
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.onStateChange(name, from, to)
		},
	})

	b.breakers[tenantID] = cb

	return cb
}

func (b *breakerSet) onStateChange(tenantID string, from, to gobreaker.State) {
	b.mu.Lock()

	if to == gobreaker.StateOpen {
		b.blockedUntil[tenantID] = time.Now().Add(b.blockFor)
	} else {
		delete(b.blockedUntil, tenantID)
	}

	if to == gobreaker.StateClosed {
		delete(b.tripFails, tenantID)
	}

	b.mu.Unlock()

	b.log.WithFields(logrus.Fields{
		"tenant": tenantID,
		"from":   from.String(),
		"to":     to.String(),
	}).Info("Tenant breaker state changed")
}

// state returns the current counts and, when blocked, the unblock time. A
// blocked tenant keeps reporting the failure count that tripped the breaker.
func (b *breakerSet) state(tenantID string) (failures uint32, blocked bool, until time.Time) {
	b.mu.Lock()
	cb, ok := b.breakers[tenantID]
	until = b.blockedUntil[tenantID]
	tripped := b.tripFails[tenantID]
	b.mu.Unlock()

	if !ok {
		return 0, false, time.Time{}
	}

	failures = cb.Counts().ConsecutiveFailures
	blocked = cb.State() == gobreaker.StateOpen

	if blocked && tripped > failures {
		failures = tripped
	}

	return failures, blocked, until
}

// reset drops breaker state for one tenant, or all when tenantID is empty
func (b *breakerSet) reset(tenantID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if tenantID == "" {
		b.breakers = make(map[string]*gobreaker.CircuitBreaker[[]Row])
		b.blockedUntil = make(map[string]time.Time)
		b.tripFails = make(map[string]uint32)

		return
	}

	delete(b.breakers, tenantID)
	delete(b.blockedUntil, tenantID)
	delete(b.tripFails, tenantID)
}
