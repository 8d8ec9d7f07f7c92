// Package extractor derives season, episode/chapter and quality metadata
// from media filenames. Extraction is pure text matching: deterministic,
// no I/O, and "nothing matched" is a valid result rather than an error.
package extractor

import (
	"fmt"
	"strconv"
	"strings"

	"renameflow/models"
)

// Extract parses a filename into structured metadata. Season/episode
// tiers are tried in catalog order and the first rule that yields a
// non-empty episode wins; earlier rules always beat later ones, there is
// no longest-match preference. Quality is extracted independently.
func Extract(filename string) models.ExtractedMetadata {
	season, episode := extractSeasonEpisode(filename)
	return models.ExtractedMetadata{
		Season:  season,
		Episode: episode,
		Quality: extractQuality(filename),
	}
}

// extractSeasonEpisode runs the tiered catalog against a working copy of
// the filename with release-group parentheticals and resolution/framerate
// tokens removed, so "1080p" can never be read as episode 1080.
func extractSeasonEpisode(filename string) (season, episode string) {
	working := parenthetical.ReplaceAllString(filename, " ")
	working = resolutionToken.ReplaceAllString(working, " ")
	working = framerateToken.ReplaceAllString(working, " ")

	for _, rule := range seasonEpisodeCatalog {
		match := rule.re.FindStringSubmatch(working)
		if match == nil {
			continue
		}

		episode = match[rule.episodeGroup]
		if episode == "" {
			// A hit without a usable episode is not a match; keep going
			// rather than returning a season-only half-result.
			continue
		}

		if rule.seasonGroup > 0 {
			season = padSeason(match[rule.seasonGroup])
		} else {
			// Episode-only titles are assumed single-season.
			season = "01"
		}
		return season, episode
	}

	return "", ""
}

// extractQuality scans the whole quality catalog, removing each matched
// substring from the working copy so one text region cannot satisfy two
// rules, then prefers a resolution-shaped label over a named fallback.
func extractQuality(filename string) string {
	working := filename
	var found []string
	seen := make(map[string]struct{})

	for _, rule := range qualityCatalog {
		for {
			loc := rule.re.FindStringSubmatchIndex(working)
			if loc == nil {
				break
			}

			label := working[loc[2]:loc[3]]
			if rule.canonical != "" {
				label = rule.canonical
			}
			working = working[:loc[0]] + " " + working[loc[1]:]

			key := strings.ToLower(label)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			found = append(found, label)
		}
	}

	if len(found) == 0 {
		return models.QualityUnknown
	}
	for _, label := range found {
		if resolutionShaped.MatchString(label) {
			return label
		}
	}
	return found[0]
}

// padSeason zero-pads a season number to two digits for presentation.
// Episode values are deliberately left verbatim so decimal chapters like
// "31.5" survive exactly.
func padSeason(raw string) string {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%02d", n)
}
