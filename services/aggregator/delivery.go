package aggregator

import (
	"context"
	"log"

	"renameflow/models"
)

// Uploader is the collaborator that moves one entry's bytes to the
// receiver. Implementations decide send-as kind, retry policy and
// transport details.
type Uploader interface {
	Upload(ctx context.Context, chatID string, entry models.Entry, caption, thumbPath string) error
}

// SequencedDelivery hands a finished batch to the uploader strictly in
// order, one entry at a time. Receivers render messages in delivery
// order, so concurrency within a batch would defeat the sequencing.
type SequencedDelivery struct {
	uploader Uploader
}

// NewSequencedDelivery wraps an uploader.
func NewSequencedDelivery(uploader Uploader) *SequencedDelivery {
	return &SequencedDelivery{uploader: uploader}
}

// Deliver uploads entries in the given order, waiting for each to
// finish before starting the next. Only the first entry carries the
// caption. A failed entry is logged and skipped; its siblings are still
// delivered, and nothing is retried here.
func (d *SequencedDelivery) Deliver(ctx context.Context, chatID, caption, thumbPath string, entries []models.Entry) {
	for i, entry := range entries {
		entryCaption := ""
		if i == 0 {
			entryCaption = caption
		}
		if err := d.uploader.Upload(ctx, chatID, entry, entryCaption, thumbPath); err != nil {
			log.Printf("[aggregator] delivery failed for %s: %v", entry.TargetName, err)
		}
	}
}
