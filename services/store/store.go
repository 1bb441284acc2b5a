package store

import (
	"errors"

	"PhotoReveal/models/postgres"
)

// ErrNotFound is returned by lookups that resolve no row. Implementations
// map their own sentinel (gorm.ErrRecordNotFound etc.) to this one so the
// coordination layer never depends on a driver.
var ErrNotFound = errors.New("record not found")

// NewPhoto is one entry of an upload_photos batch.
type NewPhoto struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Store is the durable record store the coordinator mutates. One method per
// operation the coordination engine needs; every method is independently
// fallible and returns store-level errors the caller wraps.
type Store interface {
	// Sessions
	CreateSession(name string) (*postgres.Session, error)
	GetSessionByCode(code string) (*postgres.Session, error)
	GetSessionByID(id string) (*postgres.Session, error)
	ListActiveSessions() ([]postgres.Session, error)
	DeactivateSession(id string) error
	DeleteSession(id string) error

	// Participants
	AddParticipant(sessionID, name, connectionID string) (*postgres.Participant, error)
	GetParticipant(id string) (*postgres.Participant, error)
	ListParticipants(sessionID string) ([]postgres.Participant, error)
	UpdateParticipantConnection(id, connectionID string) error
	RemoveParticipant(id string) error
	FindParticipantByConnection(connectionID string) (*postgres.Participant, error)
	FindParticipantByPhoto(photoID string) (*postgres.Participant, error)
	DeleteSessionParticipants(sessionID string) error

	// Photos
	AddPhotos(sessionID string, photos []NewPhoto) ([]postgres.Photo, error)
	GetPhoto(id string) (*postgres.Photo, error)
	ListPhotos(sessionID string) ([]postgres.Photo, error)
	RemovePhoto(id string) error
	DeleteSessionPhotos(sessionID string) error

	// Assignments
	SetPhotoAssignment(participantID string, photoID *string) error
	ClearPhotoAssignments(sessionID string) error
	ClearPhotoHolders(photoID string) error
}
