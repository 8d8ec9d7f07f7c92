package models

import "time"

// MediaKind classifies the declared content of an inbound file.
type MediaKind string

const (
	MediaKindVideo    MediaKind = "video"
	MediaKindAudio    MediaKind = "audio"
	MediaKindDocument MediaKind = "document"
	MediaKindPDF      MediaKind = "pdf"
)

// Valid reports whether the kind is one of the known media kinds.
func (k MediaKind) Valid() bool {
	switch k {
	case MediaKindVideo, MediaKindAudio, MediaKindDocument, MediaKindPDF:
		return true
	}
	return false
}

// DefaultExtension returns the extension to use when the inbound
// filename carries none.
func (k MediaKind) DefaultExtension() string {
	switch k {
	case MediaKindVideo:
		return ".mp4"
	case MediaKindAudio:
		return ".mp3"
	case MediaKindPDF:
		return ".pdf"
	default:
		return ".bin"
	}
}

// FileEvent is one inbound "file arrived" notification from the transport.
// GroupID is empty unless the transport marked the message as part of a
// multi-part send. FileID is stable per underlying file and distinct from
// the per-message id. Immutable once created.
type FileEvent struct {
	OwnerID    string    `json:"ownerId"`
	ChatID     string    `json:"chatId"`
	MessageID  string    `json:"messageId"`
	GroupID    string    `json:"groupId,omitempty"`
	FileID     string    `json:"fileId"`
	FileName   string    `json:"fileName"`
	MediaKind  MediaKind `json:"mediaKind"`
	ThumbRef   string    `json:"thumbRef,omitempty"`
	ArrivedAt  time.Time `json:"arrivedAt"`
}
