package models

// QualityUnknown is reported when no quality pattern matched.
const QualityUnknown = "Unknown"

// ExtractedMetadata holds the structured identity derived from a filename.
// Season and Episode are empty when no pattern matched; absence is a valid
// result and is never coerced to "0". Episode may hold a decimal value such
// as "31.5" for chaptered content.
type ExtractedMetadata struct {
	Season  string
	Episode string
	Quality string
}

// HasEpisode reports whether any season/episode pattern matched.
func (m ExtractedMetadata) HasEpisode() bool {
	return m.Episode != ""
}
