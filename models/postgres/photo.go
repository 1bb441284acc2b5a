package postgres

import (
	"time"

	"gorm.io/gorm"
)

/*
 * 'Photo' is one uploaded image in a session. URL is either a data-URI
 * (the usual case, the frontend compresses before upload) or an external
 * reference. Photos are deleted individually or cascaded away with the
 * session.
 */
type Photo struct {
	ID         string    `gorm:"primaryKey;size:36;not null" json:"id"`
	SessionID  string    `gorm:"size:36;not null;index:idx_photos_session" json:"session_id"`
	URL        string    `gorm:"type:text;not null" json:"url"`
	Title      string    `gorm:"size:100" json:"title,omitempty"`
	UploadedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"uploaded_at"`

	// Relationship with the owning session
	Session Session `gorm:"foreignKey:SessionID" json:"-"`
}

func (p *Photo) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.UploadedAt.IsZero() {
		p.UploadedAt = time.Now()
	}
	return nil
}
