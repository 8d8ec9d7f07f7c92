// Package aggregator infers when a media group has finished arriving and
// hands the finished batch to delivery exactly once. There is no end
// marker on the wire: a batch is complete when no new entries have
// arrived for a grace period.
package aggregator

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"renameflow/models"
)

const (
	// DefaultPollInterval is how often a batch's watcher re-checks for
	// quiescence.
	DefaultPollInterval = 1 * time.Second

	// DefaultGracePeriod is how long a batch must stay silent before it
	// is considered complete.
	DefaultGracePeriod = 2 * time.Second
)

// batch is the mutable per-key state. Owned by the service; every
// read-modify-write happens under the batch's own lock so unrelated
// keys never contend.
type batch struct {
	mu         sync.Mutex
	key        models.BatchKey
	chatID     string
	caption    string
	thumbPath  string
	entries    []models.Entry
	lastUpdate time.Time
	finalizing bool
}

// Config tunes quiescence detection.
type Config struct {
	PollInterval time.Duration
	GracePeriod  time.Duration
}

// Service is the batch table plus one quiescence watcher per open batch.
type Service struct {
	mu      sync.Mutex
	batches map[models.BatchKey]*batch

	delivery *SequencedDelivery
	cfg      Config
	now      func() time.Time

	// OnBatchDone runs after a batch's delivery attempt completes, with
	// the entries that were sequenced. Cleanup of held artifacts and
	// admission slots belongs to the caller. residual reports that late
	// entries survived under the same key and the batch is still open,
	// so batch-scoped resources must not be torn down yet.
	OnBatchDone func(key models.BatchKey, entries []models.Entry, residual bool)

	runMu   sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewService creates an aggregator delivering through the given
// sequenced delivery. Zero config fields fall back to defaults.
func NewService(delivery *SequencedDelivery, cfg Config) *Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	s := &Service{
		batches:  make(map[models.BatchKey]*batch),
		delivery: delivery,
		cfg:      cfg,
		now:      time.Now,
	}
	// The service context exists from construction so batches added
	// before Start still get working watchers.
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Start ties the service lifetime to the given parent context.
func (s *Service) Start(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go func() {
		select {
		case <-ctx.Done():
			s.cancel()
		case <-s.ctx.Done():
		}
	}()
	log.Println("[aggregator] started")
}

// Stop cancels all watchers and waits for in-flight deliveries, bounded
// by ctx.
func (s *Service) Stop(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if !s.running {
		return
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Println("[aggregator] stopped")
	case <-ctx.Done():
		log.Println("[aggregator] stopped (timeout)")
	}
	s.running = false
}

// Add records one entry for a batch, creating the batch and its watcher
// on first sight. Entries arriving while a finalize is in flight are
// still accepted; the freshness re-check keeps them from being lost.
func (s *Service) Add(key models.BatchKey, chatID string, entry models.Entry) {
	s.mu.Lock()
	b, exists := s.batches[key]
	if !exists {
		b = &batch{key: key, chatID: chatID}
		s.batches[key] = b
		s.wg.Add(1)
		go s.watch(key)
	}
	s.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry)
	b.lastUpdate = s.now()
	// First entry wins the batch-level caption and thumbnail.
	if b.caption == "" {
		b.caption = entry.Caption
	}
	if b.thumbPath == "" {
		b.thumbPath = entry.ThumbPath
	}
}

// OpenBatches reports the number of batches still collecting.
func (s *Service) OpenBatches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

// lookup returns the batch for key, or nil once it has been finalized
// and cleared.
func (s *Service) lookup(key models.BatchKey) *batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches[key]
}

func (s *Service) remove(key models.BatchKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.batches, key)
}

// watch polls one batch for quiescence and exits once the batch is gone.
func (s *Service) watch(key models.BatchKey) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			b := s.lookup(key)
			if b == nil {
				return
			}

			b.mu.Lock()
			quiet := s.now().Sub(b.lastUpdate) >= s.cfg.GracePeriod
			b.mu.Unlock()
			if !quiet {
				continue
			}

			if s.finalize(key) {
				return
			}
			// Finalize deferred: entries arrived in the trigger window,
			// or another trigger holds the latch. Keep watching.
		}
	}
}

// finalize runs the Quiescing -> Finalizing -> Done transition. Returns
// true once the batch has been removed from the table. The finalizing
// latch and the freshness re-check both live under the batch lock, so
// concurrent triggers serialize and a batch that is still receiving
// entries is never shipped partially.
func (s *Service) finalize(key models.BatchKey) bool {
	b := s.lookup(key)
	if b == nil {
		return true
	}

	b.mu.Lock()
	if b.finalizing {
		b.mu.Unlock()
		return false
	}
	if s.now().Sub(b.lastUpdate) < s.cfg.GracePeriod {
		// A late entry landed between trigger and execution; defer and
		// let the watcher retry.
		b.mu.Unlock()
		return false
	}
	b.finalizing = true
	snapshot := make([]models.Entry, len(b.entries))
	copy(snapshot, b.entries)
	chatID, caption, thumb := b.chatID, b.caption, b.thumbPath
	b.mu.Unlock()

	entries := sequenceEntries(snapshot)

	if len(entries) == 0 {
		s.remove(key)
		log.Printf("[aggregator] batch %s empty at finalize, dropped", key)
		return true
	}

	if caption == "" {
		caption = entries[0].TargetName
	}
	s.delivery.Deliver(s.ctx, chatID, caption, thumb, entries)

	// Entries that slipped in during delivery survive as a fresh batch
	// under the same key; nothing is silently dropped.
	b.mu.Lock()
	residual := b.entries[len(snapshot):]
	if len(residual) > 0 {
		b.entries = append([]models.Entry(nil), residual...)
		b.finalizing = false
		b.lastUpdate = s.now()
		b.mu.Unlock()
	} else {
		b.mu.Unlock()
		s.remove(key)
	}

	if s.OnBatchDone != nil {
		s.OnBatchDone(key, entries, len(residual) > 0)
	}
	return len(residual) == 0
}

// sequenceEntries deduplicates by held path, then orders by target
// filename, case-insensitively ascending.
func sequenceEntries(entries []models.Entry) []models.Entry {
	unique := make([]models.Entry, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.HeldPath]; dup {
			continue
		}
		seen[e.HeldPath] = struct{}{}
		unique = append(unique, e)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return strings.ToLower(unique[i].TargetName) < strings.ToLower(unique[j].TargetName)
	})
	return unique
}
