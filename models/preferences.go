package models

import "time"

// UserPreferences holds the per-owner rename settings consulted before a
// file enters the pipeline. FormatTemplate is required; an owner without
// one cannot have files processed.
type UserPreferences struct {
	OwnerID        string
	FormatTemplate string
	Caption        string
	ThumbRef       string
	SendAs         MediaKind // overrides the detected kind when set
	MetaTitle      string
	MetaArtist     string
	MetaAuthor     string
	MetaVideo      string // per-stream titles written alongside the
	MetaAudio      string // container-level fields above
	MetaSubtitle   string
	UpdatedAt      time.Time
}

// HasTemplate reports whether the owner configured a format template.
func (p UserPreferences) HasTemplate() bool {
	return p.FormatTemplate != ""
}
