package models

// BatchKey identifies one media group for one owner. GroupID is the
// transport's media group id, or a synthetic id when the message was not
// part of a multi-part send; a single file is a batch of size one.
type BatchKey struct {
	OwnerID string
	GroupID string
}

func (k BatchKey) String() string {
	return k.OwnerID + ":" + k.GroupID
}

// Entry is one file's record within a batch, from arrival through
// delivery or cleanup.
type Entry struct {
	HeldPath   string
	TargetName string
	MediaKind  MediaKind
	Caption    string
	ThumbPath  string
}
