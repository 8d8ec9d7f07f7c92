// Package transport defines the narrow contract the pipeline consumes
// from the messaging client. Protocol handling lives behind it.
package transport

import (
	"context"
	"fmt"
	"time"
)

// RateLimitError signals a transient transport rate limit. The
// orchestration layer backs off and retries; the core state machine
// never sees it.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("transport rate limited, retry after %s", e.RetryAfter)
}

// SendOptions carries the optional per-delivery context. Duration is
// only probed for videos and is zero when unknown.
type SendOptions struct {
	Caption   string
	ThumbPath string
	Duration  time.Duration
}

// Client is the collaborator contract for moving file bytes. Both
// directions are fallible and may surface *RateLimitError.
type Client interface {
	// DownloadToPath fetches the file behind ref into destPath and
	// returns the local path actually written.
	DownloadToPath(ctx context.Context, ref, destPath string) (string, error)

	SendDocument(ctx context.Context, chatID, localPath string, opts SendOptions) error
	SendVideo(ctx context.Context, chatID, localPath string, opts SendOptions) error
	SendAudio(ctx context.Context, chatID, localPath string, opts SendOptions) error
}
