package postgres

import (
	"time"

	"gorm.io/gorm"
)

/*
 * 'Participant' is one joined (non-admin) member of a session. ConnectionID
 * is the transport handle of the socket currently speaking for this
 * participant; it is mutable state, not identity. Identity is the
 * (session, participant id) pair, with the name used for reconnect-reuse.
 */
type Participant struct {
	ID            string    `gorm:"primaryKey;size:36;not null" json:"id"`
	SessionID     string    `gorm:"size:36;not null;index:idx_participants_session" json:"session_id"`
	Name          string    `gorm:"size:50;not null" json:"name"`
	ConnectionID  *string   `gorm:"size:64;index:idx_participants_connection" json:"connection_id"`
	PhotoAssigned *string   `gorm:"size:36" json:"photo_assigned"`
	CreatedAt     time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	// Relationship with the owning session
	Session Session `gorm:"foreignKey:SessionID" json:"-"`
}

func (p *Participant) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}
