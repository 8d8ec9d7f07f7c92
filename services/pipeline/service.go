// Package pipeline orchestrates one inbound file's path from arrival
// event to held batch entry, and carries finished batches out through
// the transport.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"renameflow/internal/database"
	"renameflow/internal/holdfs"
	"renameflow/models"
	"renameflow/services/admission"
	"renameflow/services/aggregator"
	"renameflow/services/artifacts"
	"renameflow/services/dedup"
	"renameflow/services/extractor"
	"renameflow/services/naming"
	"renameflow/services/transport"
)

var (
	// ErrNoFormatTemplate means the owner never configured a rename
	// template; the event is rejected before any batch opens.
	ErrNoFormatTemplate = errors.New("no format template configured, set one first")

	// ErrInvalidEvent covers events missing required identity fields.
	ErrInvalidEvent = errors.New("event is missing owner, file id or filename")
)

// Config holds the pipeline's working directories and tuning.
type Config struct {
	WorkDir       string // scratch space for downloads and tagging
	UploadRetries uint   // attempts per entry on transient rate limits
}

// Service is the orchestrator. The core components never talk to the
// transport or the preference store directly; everything flows through
// here.
type Service struct {
	guard      *dedup.Guard
	admission  *admission.Controller
	aggregator *aggregator.Service
	hold       *holdfs.Store
	prefs      *database.PreferencesRepository
	client     transport.Client
	tagger     *artifacts.Tagger
	cfg        Config

	permitMu sync.Mutex
	permits  map[string]*admission.Permit // held path -> slot
}

// NewService wires the pipeline. The aggregator's delivery and
// completion hooks are bound here.
func NewService(
	guard *dedup.Guard,
	adm *admission.Controller,
	hold *holdfs.Store,
	prefs *database.PreferencesRepository,
	client transport.Client,
	tagger *artifacts.Tagger,
	cfg Config,
	aggCfg aggregator.Config,
) *Service {
	if cfg.UploadRetries == 0 {
		cfg.UploadRetries = 3
	}
	s := &Service{
		guard:     guard,
		admission: adm,
		hold:      hold,
		prefs:     prefs,
		client:    client,
		tagger:    tagger,
		cfg:       cfg,
		permits:   make(map[string]*admission.Permit),
	}
	s.aggregator = aggregator.NewService(aggregator.NewSequencedDelivery(s), aggCfg)
	s.aggregator.OnBatchDone = s.onBatchDone
	return s
}

// Aggregator exposes the batch table, mainly for tests and status.
func (s *Service) Aggregator() *aggregator.Service {
	return s.aggregator
}

// Start arms the aggregator.
func (s *Service) Start(ctx context.Context) {
	s.aggregator.Start(ctx)
	log.Println("[pipeline] started")
}

// Stop drains in-flight work, bounded by ctx.
func (s *Service) Stop(ctx context.Context) {
	s.aggregator.Stop(ctx)
	s.guard.Stop()
	log.Println("[pipeline] stopped")
}

// OnArrival processes one inbound file event: dedup check, precondition
// check, metadata extraction, admission, download, post-processing,
// hold, and enqueue into the aggregator. Working artifacts are removed
// on every exit path; the admission slot stays held until the entry
// reaches delivery or cleanup.
func (s *Service) OnArrival(ctx context.Context, event models.FileEvent) error {
	if event.OwnerID == "" || event.FileID == "" || event.FileName == "" {
		return ErrInvalidEvent
	}

	// Re-entrant processing of the same file within the window is
	// silently suppressed; retries from the transport are expected.
	if s.guard.Seen(event.FileID) {
		log.Printf("[pipeline] duplicate suppressed: %s", event.FileID)
		return nil
	}
	s.guard.MarkSeen(event.FileID)

	enqueued := false
	defer func() {
		if !enqueued {
			// The run ended before any durable work; let a retry in.
			s.guard.Forget(event.FileID)
		}
	}()

	prefs, err := s.prefs.Get(event.OwnerID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNoFormatTemplate
	}
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}
	if !prefs.HasTemplate() {
		return ErrNoFormatTemplate
	}

	meta := extractor.Extract(event.FileName)
	targetName := naming.Render(prefs.FormatTemplate, event.FileName, meta, event.MediaKind)

	permit, err := s.admission.TryAcquire(event.OwnerID)
	if err != nil {
		return err
	}
	released := false
	defer func() {
		if !released {
			permit.Release()
		}
	}()

	scratch := filepath.Join(s.cfg.WorkDir, "downloads", event.OwnerID)
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	downloadPath := filepath.Join(scratch, uuid.NewString()+"_"+targetName)
	defer func() { _ = os.Remove(downloadPath) }()

	localPath, err := s.client.DownloadToPath(ctx, event.FileID, downloadPath)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}

	kind := event.MediaKind
	if !kind.Valid() {
		kind = artifacts.DetectKind(localPath)
	}
	if prefs.SendAs.Valid() {
		kind = prefs.SendAs
	}

	localPath = s.tagContainer(ctx, localPath, *prefs, kind)
	defer func() { _ = os.Remove(localPath) }()

	thumbPath := s.prepareThumbnail(ctx, event, *prefs, kind)

	groupID := event.GroupID
	if groupID == "" {
		// A single message is still a batch, of size one.
		groupID = event.MessageID
	}
	if groupID == "" {
		groupID = uuid.NewString()
	}

	heldPath, err := s.hold.Hold(event.OwnerID, groupID, targetName, localPath)
	if err != nil {
		if thumbPath != "" {
			_ = os.Remove(thumbPath)
		}
		return err
	}

	entry := models.Entry{
		HeldPath:   heldPath,
		TargetName: targetName,
		MediaKind:  kind,
		Caption:    prefs.Caption,
		ThumbPath:  thumbPath,
	}

	s.permitMu.Lock()
	// Two files rendering to the same target name collide on held path;
	// the earlier one's entry collapses away at sequencing, so its slot
	// must come back now rather than leak.
	if prev, ok := s.permits[heldPath]; ok {
		prev.Release()
	}
	s.permits[heldPath] = permit
	s.permitMu.Unlock()
	released = true

	key := models.BatchKey{OwnerID: event.OwnerID, GroupID: groupID}
	s.aggregator.Add(key, event.ChatID, entry)
	enqueued = true

	log.Printf("[pipeline] held %s for batch %s", targetName, key)
	return nil
}

// tagContainer rewrites media container metadata when the owner set any
// and ffmpeg is available. Tagging failures fall back to the untagged
// file rather than failing the run.
func (s *Service) tagContainer(ctx context.Context, localPath string, prefs models.UserPreferences, kind models.MediaKind) string {
	if kind != models.MediaKindVideo && kind != models.MediaKindAudio {
		return localPath
	}
	tags := artifacts.Tags{
		Title:    prefs.MetaTitle,
		Artist:   prefs.MetaArtist,
		Author:   prefs.MetaAuthor,
		Video:    prefs.MetaVideo,
		Audio:    prefs.MetaAudio,
		Subtitle: prefs.MetaSubtitle,
	}
	if tags.Empty() || !s.tagger.Enabled() {
		return localPath
	}

	tagged := localPath + ".tagged" + filepath.Ext(localPath)
	results := s.tagger.TagAll(ctx, map[string]string{localPath: tagged}, tags)
	final := results[localPath]
	if final != localPath {
		_ = os.Remove(localPath)
	}
	return final
}

// prepareThumbnail fetches and normalizes the batch thumbnail, owner
// preference first, then the transport-provided one for videos. A
// missing or broken thumbnail is never fatal.
func (s *Service) prepareThumbnail(ctx context.Context, event models.FileEvent, prefs models.UserPreferences, kind models.MediaKind) string {
	ref := prefs.ThumbRef
	if ref == "" && kind == models.MediaKindVideo {
		ref = event.ThumbRef
	}
	if ref == "" {
		return ""
	}

	dest := filepath.Join(s.cfg.WorkDir, "thumbs", event.OwnerID, uuid.NewString()+".jpg")
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return ""
	}
	path, err := s.client.DownloadToPath(ctx, ref, dest)
	if err != nil {
		log.Printf("[pipeline] thumbnail download failed: %v", err)
		return ""
	}
	if err := artifacts.ProcessThumbnail(path); err != nil {
		log.Printf("[pipeline] thumbnail processing failed: %v", err)
		_ = os.Remove(path)
		return ""
	}
	return path
}

// Upload implements aggregator.Uploader: one entry, strictly awaited,
// with bounded retries on transient transport rate limits. A video with
// no batch thumbnail gets one extracted from its own first seconds,
// together with a probed duration.
func (s *Service) Upload(ctx context.Context, chatID string, entry models.Entry, caption, thumbPath string) error {
	opts := transport.SendOptions{Caption: caption, ThumbPath: thumbPath}

	if entry.MediaKind == models.MediaKindVideo && thumbPath == "" && s.tagger.Enabled() {
		frame := entry.HeldPath + ".frame.jpg"
		if err := s.tagger.ExtractFrame(ctx, entry.HeldPath, frame); err != nil {
			log.Printf("[pipeline] frame extraction failed for %s: %v", entry.TargetName, err)
		} else {
			opts.ThumbPath = frame
			defer os.Remove(frame)
			if d, err := s.tagger.Duration(ctx, entry.HeldPath); err == nil {
				opts.Duration = d
			}
		}
	}

	send := func() error {
		switch entry.MediaKind {
		case models.MediaKindVideo:
			return s.client.SendVideo(ctx, chatID, entry.HeldPath, opts)
		case models.MediaKindAudio:
			return s.client.SendAudio(ctx, chatID, entry.HeldPath, opts)
		default:
			return s.client.SendDocument(ctx, chatID, entry.HeldPath, opts)
		}
	}

	return retry.Do(send,
		retry.Context(ctx),
		retry.Attempts(s.cfg.UploadRetries),
		retry.RetryIf(func(err error) bool {
			var rateLimited *transport.RateLimitError
			return errors.As(err, &rateLimited)
		}),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			var rateLimited *transport.RateLimitError
			if errors.As(err, &rateLimited) && rateLimited.RetryAfter > 0 {
				return rateLimited.RetryAfter
			}
			return retry.BackOffDelay(n, err, config)
		}),
		retry.LastErrorOnly(true),
	)
}

// onBatchDone releases every delivered entry's admission slot and
// removes its held artifacts. Runs for delivered and failed entries
// alike; nothing is silently leaked. While residual late entries keep
// the key open, only the delivered entries' files are removed; the
// batch directory falls once the key truly closes.
func (s *Service) onBatchDone(key models.BatchKey, entries []models.Entry, residual bool) {
	for _, entry := range entries {
		s.permitMu.Lock()
		permit := s.permits[entry.HeldPath]
		delete(s.permits, entry.HeldPath)
		s.permitMu.Unlock()
		if permit != nil {
			permit.Release()
		}

		if err := s.hold.Remove(entry.HeldPath); err != nil {
			log.Printf("[pipeline] held file cleanup failed for %s: %v", entry.TargetName, err)
		}
		if entry.ThumbPath != "" {
			_ = os.Remove(entry.ThumbPath)
		}
	}
	if residual {
		return
	}
	if err := s.hold.CleanupBatch(key.OwnerID, key.GroupID); err != nil {
		log.Printf("[pipeline] cleanup failed for batch %s: %v", key, err)
	}
}

// UserMessage maps pipeline errors to the text surfaced to requesters.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoFormatTemplate):
		return "Please set a rename format first"
	case errors.Is(err, admission.ErrLimitReached):
		return "Too many files processing at once, try again shortly"
	case err == nil:
		return ""
	default:
		return strings.TrimSpace(err.Error())
	}
}
