package transport

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
)

// Local is a filesystem-backed Client: downloads copy from an inbox
// directory keyed by file ref, sends copy into a per-chat outbox
// directory. It backs local runs and tests; real transports implement
// Client elsewhere.
type Local struct {
	fs     afero.Fs
	inbox  string
	outbox string
}

// NewLocal creates a Local client over the real filesystem.
func NewLocal(inbox, outbox string) *Local {
	return NewLocalFs(afero.NewOsFs(), inbox, outbox)
}

// NewLocalFs creates a Local client over an explicit filesystem.
func NewLocalFs(fs afero.Fs, inbox, outbox string) *Local {
	return &Local{fs: fs, inbox: inbox, outbox: outbox}
}

// DownloadToPath copies inbox/<ref> to destPath.
func (l *Local) DownloadToPath(ctx context.Context, ref, destPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src := filepath.Join(l.inbox, filepath.Base(ref))
	if err := l.copy(src, destPath); err != nil {
		return "", fmt.Errorf("download %s: %w", ref, err)
	}
	return destPath, nil
}

// SendDocument copies the file into the chat's outbox directory.
func (l *Local) SendDocument(ctx context.Context, chatID, localPath string, opts SendOptions) error {
	return l.send(ctx, chatID, localPath)
}

// SendVideo behaves like SendDocument; the local client does not
// distinguish media kinds.
func (l *Local) SendVideo(ctx context.Context, chatID, localPath string, opts SendOptions) error {
	return l.send(ctx, chatID, localPath)
}

// SendAudio behaves like SendDocument.
func (l *Local) SendAudio(ctx context.Context, chatID, localPath string, opts SendOptions) error {
	return l.send(ctx, chatID, localPath)
}

func (l *Local) send(ctx context.Context, chatID, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Join(l.outbox, chatID)
	if err := l.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create outbox dir: %w", err)
	}
	dest := filepath.Join(dir, filepath.Base(localPath))
	if err := l.copy(localPath, dest); err != nil {
		return fmt.Errorf("send %s: %w", localPath, err)
	}
	return nil
}

func (l *Local) copy(src, dest string) error {
	in, err := l.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := l.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := l.fs.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
