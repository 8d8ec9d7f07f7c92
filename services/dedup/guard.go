// Package dedup suppresses re-entrant processing of the same inbound file
// within a short window, protecting the pipeline from transport retries
// and duplicate deliveries.
package dedup

import (
	"sync"
	"time"
)

// DefaultTTL is how long a file identity stays hot after being marked.
const DefaultTTL = 10 * time.Second

// compactionInterval drives the background sweep of expired identities.
// Correctness never depends on the sweep; staleness is checked lazily on
// every lookup. The sweep only bounds memory growth.
const compactionInterval = 1 * time.Minute

// Guard tracks recently seen file identities.
type Guard struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewGuard creates a guard with the given TTL (DefaultTTL when zero) and
// starts the background compaction goroutine.
func NewGuard(ttl time.Duration) *Guard {
	g := newGuard(ttl)
	go g.compactLoop()
	return g
}

func newGuard(ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
		stop: make(chan struct{}),
	}
}

// Stop ends the background compaction goroutine. Lookups keep working
// after Stop; only the memory sweep ceases. Safe to call more than once.
func (g *Guard) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// Seen reports whether the identity was marked within the TTL. A hit does
// not refresh the timestamp; an expired entry reads as unseen and the
// caller is expected to MarkSeen again.
func (g *Guard) Seen(identity string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	at, ok := g.seen[identity]
	if !ok {
		return false
	}
	return g.now().Sub(at) < g.ttl
}

// MarkSeen records the identity as just processed.
func (g *Guard) MarkSeen(identity string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen[identity] = g.now()
}

// Forget drops the identity immediately, regardless of age. Used when a
// pipeline run fails before doing any work, so a retry is not suppressed.
func (g *Guard) Forget(identity string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, identity)
}

// Count returns the number of tracked identities, expired ones included.
func (g *Guard) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

func (g *Guard) compactLoop() {
	ticker := time.NewTicker(compactionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			g.compact()
		case <-g.stop:
			return
		}
	}
}

func (g *Guard) compact() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for identity, at := range g.seen {
		if now.Sub(at) >= g.ttl {
			delete(g.seen, identity)
		}
	}
}
