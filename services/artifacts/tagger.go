package artifacts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sourcegraph/conc/pool"

	"renameflow/models"
)

// Tags are the metadata fields written into media files: container-level
// title/artist/author plus per-stream titles for the video, audio and
// subtitle streams.
type Tags struct {
	Title    string
	Artist   string
	Author   string
	Video    string
	Audio    string
	Subtitle string
}

// Empty reports whether there is nothing to write.
func (t Tags) Empty() bool {
	return t == Tags{}
}

// Tagger runs media post-processing via external ffmpeg/ffprobe
// binaries. When ffmpeg is absent tagging and frame extraction are
// skipped rather than failing the pipeline run.
type Tagger struct {
	ffmpegPath  string
	ffprobePath string
	workers     int
}

// NewTagger locates ffmpeg and ffprobe on PATH. workers bounds
// batch-level fan-out (default 2 when non-positive).
func NewTagger(workers int) *Tagger {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		log.Println("[artifacts] ffmpeg not found, container tagging disabled")
		ffmpeg = ""
	}
	ffprobe, err := exec.LookPath("ffprobe")
	if err != nil {
		ffprobe = ""
	}
	return newTagger(ffmpeg, ffprobe, workers)
}

func newTagger(ffmpegPath, ffprobePath string, workers int) *Tagger {
	if workers <= 0 {
		workers = 2
	}
	return &Tagger{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, workers: workers}
}

// Enabled reports whether an ffmpeg binary was found.
func (t *Tagger) Enabled() bool {
	return t.ffmpegPath != ""
}

// Tag rewrites input into output with the given metadata, copying all
// streams without re-encoding. Stream titles apply to every stream of
// that type.
func (t *Tagger) Tag(ctx context.Context, input, output string, tags Tags) error {
	if !t.Enabled() {
		return nil
	}

	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-i", input,
		"-metadata", "title="+tags.Title,
		"-metadata", "artist="+tags.Artist,
		"-metadata", "author="+tags.Author,
		"-metadata:s:v", "title="+tags.Video,
		"-metadata:s:a", "title="+tags.Audio,
		"-metadata:s:s", "title="+tags.Subtitle,
		"-map", "0",
		"-c", "copy",
		"-loglevel", "error",
		"-y",
		output,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg tagging: %w: %s", err, out)
	}
	return nil
}

// ExtractFrame grabs one frame a few seconds into the video as a JPEG,
// used as the upload thumbnail when the owner configured none and the
// transport provided none.
func (t *Tagger) ExtractFrame(ctx context.Context, videoPath, thumbPath string) error {
	if !t.Enabled() {
		return errors.New("ffmpeg not available")
	}

	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-ss", "3",
		"-i", videoPath,
		"-vframes", "1",
		"-q:v", "2",
		"-loglevel", "error",
		"-y",
		thumbPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg frame extraction: %w: %s", err, out)
	}
	return nil
}

// Duration probes the media's duration via ffprobe, rounded down to
// whole seconds.
func (t *Tagger) Duration(ctx context.Context, path string) (time.Duration, error) {
	if t.ffprobePath == "" {
		return 0, errors.New("ffprobe not available")
	}

	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return time.Duration(seconds) * time.Second, nil
}

// TagAll tags many files concurrently with a bounded worker pool and
// returns the paths that were successfully tagged (output replacing the
// input path in the result). Per-file failures are logged and the input
// path is kept, so one bad container never fails its batch siblings.
func (t *Tagger) TagAll(ctx context.Context, jobs map[string]string, tags Tags) map[string]string {
	results := make(map[string]string, len(jobs))
	var mu sync.Mutex

	workers := pool.New().WithMaxGoroutines(t.workers)
	for input, output := range jobs {
		input, output := input, output
		workers.Go(func() {
			final := input
			if err := t.Tag(ctx, input, output, tags); err != nil {
				log.Printf("[artifacts] tagging failed for %s: %v", input, err)
			} else if t.Enabled() {
				final = output
			}
			mu.Lock()
			results[input] = final
			mu.Unlock()
		})
	}
	workers.Wait()

	return results
}

// DetectKind sniffs the media kind from file content, used when the
// transport did not declare one.
func DetectKind(path string) models.MediaKind {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return models.MediaKindDocument
	}

	switch {
	case mtype.Is("application/pdf"):
		return models.MediaKindPDF
	case strings.HasPrefix(mtype.String(), "video/"):
		return models.MediaKindVideo
	case strings.HasPrefix(mtype.String(), "audio/"):
		return models.MediaKindAudio
	default:
		return models.MediaKindDocument
	}
}
