package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"renameflow/models"
)

// ErrNotFound is returned when an owner has no stored preferences.
var ErrNotFound = errors.New("preferences not found")

// PreferencesRepository reads and writes per-owner rename preferences.
type PreferencesRepository struct {
	conn *sql.DB
}

// NewPreferencesRepository creates a repository over an open connection.
func NewPreferencesRepository(conn *sql.DB) *PreferencesRepository {
	return &PreferencesRepository{conn: conn}
}

// Get returns an owner's preferences or ErrNotFound.
func (r *PreferencesRepository) Get(ownerID string) (*models.UserPreferences, error) {
	row := r.conn.QueryRow(`
		SELECT owner_id, format_template, caption, thumb_ref, send_as,
		       meta_title, meta_artist, meta_author,
		       meta_video, meta_audio, meta_subtitle, updated_at
		FROM preferences WHERE owner_id = ?`, ownerID)

	var p models.UserPreferences
	var sendAs string
	err := row.Scan(&p.OwnerID, &p.FormatTemplate, &p.Caption, &p.ThumbRef,
		&sendAs, &p.MetaTitle, &p.MetaArtist, &p.MetaAuthor,
		&p.MetaVideo, &p.MetaAudio, &p.MetaSubtitle, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	p.SendAs = models.MediaKind(sendAs)
	return &p, nil
}

// Upsert stores the owner's preferences, replacing any previous row.
func (r *PreferencesRepository) Upsert(p *models.UserPreferences) error {
	if p.OwnerID == "" {
		return errors.New("owner id is required")
	}
	p.UpdatedAt = time.Now().UTC()

	_, err := r.conn.Exec(`
		INSERT INTO preferences
			(owner_id, format_template, caption, thumb_ref, send_as,
			 meta_title, meta_artist, meta_author,
			 meta_video, meta_audio, meta_subtitle, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			format_template = excluded.format_template,
			caption = excluded.caption,
			thumb_ref = excluded.thumb_ref,
			send_as = excluded.send_as,
			meta_title = excluded.meta_title,
			meta_artist = excluded.meta_artist,
			meta_author = excluded.meta_author,
			meta_video = excluded.meta_video,
			meta_audio = excluded.meta_audio,
			meta_subtitle = excluded.meta_subtitle,
			updated_at = excluded.updated_at`,
		p.OwnerID, p.FormatTemplate, p.Caption, p.ThumbRef, string(p.SendAs),
		p.MetaTitle, p.MetaArtist, p.MetaAuthor,
		p.MetaVideo, p.MetaAudio, p.MetaSubtitle, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

// Delete removes an owner's preferences. Deleting a missing row is not
// an error.
func (r *PreferencesRepository) Delete(ownerID string) error {
	if _, err := r.conn.Exec(`DELETE FROM preferences WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("delete preferences: %w", err)
	}
	return nil
}
