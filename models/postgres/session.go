package postgres

import (
	"math/rand"
	"time"

	"gorm.io/gorm"
)

/*
 * 'Session' is one photo-reveal round: an admin creates it, participants
 * join it with the shared code, and it is torn down when the reveal ends.
 * Codes are only unique among *active* sessions, so an expired session
 * never blocks a code from being handed out again.
 */
type Session struct {
	ID        string    `gorm:"primaryKey;size:36;not null" json:"id"`
	Code      string    `gorm:"size:12;not null;index:idx_sessions_code" json:"code"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	Active    bool      `gorm:"default:true;index:idx_sessions_active" json:"active"`

	// Relationships
	Participants []*Participant `gorm:"foreignKey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Photos       []*Photo       `gorm:"foreignKey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// Session codes are typed by hand, so the alphabet stays uppercase-only.
const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Opaque row ids; nothing human ever types these.
const idCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

const idLength = 32

// CodeLength is the number of characters in a session code. main() overrides
// it from the settings before anything touches the database.
var CodeLength = 6

// GenerateSessionCode draws length chars uniformly from the code alphabet.
func GenerateSessionCode(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = codeCharset[rand.Intn(len(codeCharset))]
	}
	return string(b)
}

func newID() string {
	b := make([]byte, idLength)
	for i := range b {
		b[i] = idCharset[rand.Intn(len(idCharset))]
	}
	return string(b)
}

// BeforeCreate assigns the row id and a session code that no currently
// active session holds. Collisions are rare with a 36^6 space, so the
// regenerate-and-retry loop almost always runs once.
func (s *Session) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = newID()
	}
	if s.Code != "" {
		return nil
	}
	for {
		newCode := GenerateSessionCode(CodeLength)
		var existing Session
		if err := tx.Where("code = ? AND active = ?", newCode, true).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				s.Code = newCode
				return nil
			}
			return err
		}
		// Otherwise, loop again to generate a new unique code
	}
}
