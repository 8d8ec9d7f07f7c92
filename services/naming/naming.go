// Package naming renders target filenames from per-owner format
// templates and extracted metadata.
package naming

import (
	"path/filepath"
	"strings"

	"github.com/mozillazg/go-unidecode"

	"renameflow/models"
)

// placeholderMissing substitutes for season/episode when no pattern
// matched; extraction ambiguity is not an error and processing continues.
const placeholderMissing = "XX"

// Render produces the target filename for one inbound file: template
// placeholders are replaced with extracted metadata, the inbound
// extension is preserved (with a kind-based default when absent), and
// the result is sanitized for the filesystem.
func Render(template, originalName string, meta models.ExtractedMetadata, kind models.MediaKind) string {
	season := meta.Season
	if season == "" {
		season = placeholderMissing
	}
	episode := meta.Episode
	if episode == "" {
		episode = placeholderMissing
	}

	replacer := strings.NewReplacer(
		"{season}", season,
		"{episode}", episode,
		"{quality}", meta.Quality,
		"Season", season,
		"Episode", episode,
		"QUALITY", meta.Quality,
	)
	name := replacer.Replace(template)

	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = kind.DefaultExtension()
	}

	return Sanitize(name) + ext
}

// Sanitize transliterates a rendered name to ASCII and strips characters
// that are path separators or otherwise unsafe in filenames.
func Sanitize(name string) string {
	name = unidecode.Unidecode(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\x00':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	sanitized := strings.TrimSpace(b.String())
	if sanitized == "" {
		return "unnamed"
	}
	return sanitized
}
