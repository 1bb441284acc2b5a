package store

import (
	"PhotoReveal/models/postgres"

	"gorm.io/gorm"
)

// GormStore is the PostgreSQL-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func mapErr(err error) error {
	if err == gorm.ErrRecordNotFound {
		return ErrNotFound
	}
	return err
}

// Session operations

func (s *GormStore) CreateSession(name string) (*postgres.Session, error) {
	session := postgres.Session{
		Name:   name,
		Active: true,
	}
	// Code and id are generated in the model's BeforeCreate hook
	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *GormStore) GetSessionByCode(code string) (*postgres.Session, error) {
	var session postgres.Session
	// Prefer the active session when an inactive tombstone shares the code
	err := s.db.Where("code = ?", code).
		Order("active DESC").Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &session, nil
}

func (s *GormStore) GetSessionByID(id string) (*postgres.Session, error) {
	var session postgres.Session
	if err := s.db.Where("id = ?", id).First(&session).Error; err != nil {
		return nil, mapErr(err)
	}
	return &session, nil
}

func (s *GormStore) ListActiveSessions() ([]postgres.Session, error) {
	var sessions []postgres.Session
	if err := s.db.Where("active = ?", true).Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *GormStore) DeactivateSession(id string) error {
	return s.db.Model(&postgres.Session{}).
		Where("id = ?", id).
		Update("active", false).Error
}

func (s *GormStore) DeleteSession(id string) error {
	return s.db.Where("id = ?", id).Delete(&postgres.Session{}).Error
}

// Participant operations

func (s *GormStore) AddParticipant(sessionID, name, connectionID string) (*postgres.Participant, error) {
	participant := postgres.Participant{
		SessionID:    sessionID,
		Name:         name,
		ConnectionID: &connectionID,
	}
	if err := s.db.Create(&participant).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

func (s *GormStore) GetParticipant(id string) (*postgres.Participant, error) {
	var participant postgres.Participant
	if err := s.db.Where("id = ?", id).First(&participant).Error; err != nil {
		return nil, mapErr(err)
	}
	return &participant, nil
}

func (s *GormStore) ListParticipants(sessionID string) ([]postgres.Participant, error) {
	var participants []postgres.Participant
	err := s.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (s *GormStore) UpdateParticipantConnection(id, connectionID string) error {
	return s.db.Model(&postgres.Participant{}).
		Where("id = ?", id).
		Update("connection_id", connectionID).Error
}

func (s *GormStore) RemoveParticipant(id string) error {
	return s.db.Where("id = ?", id).Delete(&postgres.Participant{}).Error
}

func (s *GormStore) FindParticipantByConnection(connectionID string) (*postgres.Participant, error) {
	var participant postgres.Participant
	err := s.db.Where("connection_id = ?", connectionID).First(&participant).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &participant, nil
}

func (s *GormStore) FindParticipantByPhoto(photoID string) (*postgres.Participant, error) {
	var participant postgres.Participant
	err := s.db.Where("photo_assigned = ?", photoID).First(&participant).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &participant, nil
}

func (s *GormStore) DeleteSessionParticipants(sessionID string) error {
	return s.db.Where("session_id = ?", sessionID).Delete(&postgres.Participant{}).Error
}

// Photo operations

func (s *GormStore) AddPhotos(sessionID string, photos []NewPhoto) ([]postgres.Photo, error) {
	rows := make([]postgres.Photo, 0, len(photos))
	for _, p := range photos {
		rows = append(rows, postgres.Photo{
			SessionID: sessionID,
			URL:       p.URL,
			Title:     p.Title,
		})
	}
	if err := s.db.Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) GetPhoto(id string) (*postgres.Photo, error) {
	var photo postgres.Photo
	if err := s.db.Where("id = ?", id).First(&photo).Error; err != nil {
		return nil, mapErr(err)
	}
	return &photo, nil
}

func (s *GormStore) ListPhotos(sessionID string) ([]postgres.Photo, error) {
	var photos []postgres.Photo
	err := s.db.Where("session_id = ?", sessionID).
		Order("uploaded_at DESC").
		Find(&photos).Error
	if err != nil {
		return nil, err
	}
	return photos, nil
}

func (s *GormStore) RemovePhoto(id string) error {
	return s.db.Where("id = ?", id).Delete(&postgres.Photo{}).Error
}

func (s *GormStore) DeleteSessionPhotos(sessionID string) error {
	return s.db.Where("session_id = ?", sessionID).Delete(&postgres.Photo{}).Error
}

// Assignment operations

func (s *GormStore) SetPhotoAssignment(participantID string, photoID *string) error {
	return s.db.Model(&postgres.Participant{}).
		Where("id = ?", participantID).
		Update("photo_assigned", photoID).Error
}

func (s *GormStore) ClearPhotoAssignments(sessionID string) error {
	return s.db.Model(&postgres.Participant{}).
		Where("session_id = ?", sessionID).
		Update("photo_assigned", nil).Error
}

func (s *GormStore) ClearPhotoHolders(photoID string) error {
	return s.db.Model(&postgres.Participant{}).
		Where("photo_assigned = ?", photoID).
		Update("photo_assigned", nil).Error
}
