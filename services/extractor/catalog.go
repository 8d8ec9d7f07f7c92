package extractor

import "regexp"

// seasonEpisodeRule binds one catalog pattern to the capture groups that
// carry season and episode. Rules are tried in declaration order and the
// first rule yielding a non-empty episode wins; a rule with no season
// group defaults the season to "01".
type seasonEpisodeRule struct {
	re           *regexp.Regexp
	seasonGroup  int // 0 = pattern has no season capture
	episodeGroup int
}

// The catalog is ordered most specific first. Decimal chapter forms come
// before every integer pattern so "Ch 31.5" is never shadowed into "31".
var seasonEpisodeCatalog = []seasonEpisodeRule{
	// Bracketed chapter markers: "[ Ch 31.5 ]", "[Chapter 12]"
	{re: regexp.MustCompile(`(?i)\[\s*ch(?:apter)?[\s._-]*(\d+(?:\.\d+)?)\s*\]`), episodeGroup: 1},
	// Plain chapter markers with a decimal part: "Ch 31.5", "Chapter 4.5"
	{re: regexp.MustCompile(`(?i)\bch(?:apter)?[\s._-]*(\d+\.\d+)\b`), episodeGroup: 1},
	// Standard and separated forms: S01E02, S01EP02, S01 E02, S01-EP02
	{re: regexp.MustCompile(`(?i)\bS(\d+)[\s._-]*(?:EP|E)(\d+(?:\.\d+)?)\b`), seasonGroup: 1, episodeGroup: 2},
	// Bracketed: [S01][E02], [S01] [E02]
	{re: regexp.MustCompile(`(?i)\[S(\d+)\]\s*\[(?:EP|E)(\d+)\]`), seasonGroup: 1, episodeGroup: 2},
	// NxM style: 1x02, 12x112
	{re: regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{1,3})\b`), seasonGroup: 1, episodeGroup: 2},
	// Explicit text: "Season 1 Episode 2"
	{re: regexp.MustCompile(`(?i)\bseason[\s._-]*(\d+)[\s._-]*episode[\s._-]*(\d+)\b`), seasonGroup: 1, episodeGroup: 2},
	// Season with detached episode number: "S2 - 09", "S01 13"
	{re: regexp.MustCompile(`(?i)\bS(\d+)[^\d]+(\d+(?:\.\d+)?)\b`), seasonGroup: 1, episodeGroup: 2},
	// Episode-only forms, bounded: "E13", "EP 13", "Episode 13"
	{re: regexp.MustCompile(`(?i)(?:\b|[\[(])(?:episode|ep|e)[\s._-]*(\d+(?:\.\d+)?)(?:\b|[\])])`), episodeGroup: 1},
	// Last resort: a standalone number anywhere in the name.
	{re: regexp.MustCompile(`\b(\d+(?:\.\d+)?)\b`), episodeGroup: 1},
}

// qualityRule matches one quality label. canonical, when set, overrides the
// captured text (e.g. both "4k" and "2160p" report "4k").
type qualityRule struct {
	re        *regexp.Regexp
	canonical string
}

var qualityCatalog = []qualityRule{
	{re: regexp.MustCompile(`(?i)\b(\d{3,4}[pi])\b`)},
	{re: regexp.MustCompile(`(?i)\[(\d{3,4}[pi])\]`)},
	{re: regexp.MustCompile(`(?i)\b(4k|2160p)\b`), canonical: "4k"},
	{re: regexp.MustCompile(`(?i)\b(2k|1440p)\b`), canonical: "2k"},
	{re: regexp.MustCompile(`(?i)\b(4kx264|4kx265)\b`)},
	{re: regexp.MustCompile(`(?i)\b(HDRip|HDTV)\b`)},
}

// resolutionShaped reports quality labels that name an actual resolution,
// preferred over named fallbacks like "HDRip".
var resolutionShaped = regexp.MustCompile(`(?i)^(?:\d{3,4}[pi]|4k|2k)$`)

var (
	// Parenthetical groups are release-group noise, stripped before any
	// season/episode tier runs.
	parenthetical = regexp.MustCompile(`\([^)]*\)`)

	// Numbers followed by a resolution or frame-rate suffix must never be
	// read as episode numbers. RE2 has no lookahead, so these tokens are
	// masked out of the working copy instead.
	resolutionToken = regexp.MustCompile(`(?i)\b\d{3,4}[pi]\b`)
	framerateToken  = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*fps\b`)
)
