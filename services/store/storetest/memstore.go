// Package storetest provides an in-memory store.Store used by the
// coordination-layer tests. It applies the same semantics as the Postgres
// store (active-unique codes, created_at participant ordering, newest-first
// photos) without a database.
package storetest

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"PhotoReveal/models/postgres"
	"PhotoReveal/services/store"
)

type MemStore struct {
	mu           sync.Mutex
	seq          int
	Sessions     map[string]*postgres.Session
	Participants map[string]*postgres.Participant
	Photos       map[string]*postgres.Photo

	// FailOn forces the named method to fail, for error-path tests.
	FailOn map[string]error
}

var _ store.Store = (*MemStore)(nil)

func New() *MemStore {
	return &MemStore{
		Sessions:     make(map[string]*postgres.Session),
		Participants: make(map[string]*postgres.Participant),
		Photos:       make(map[string]*postgres.Photo),
		FailOn:       make(map[string]error),
	}
}

func (m *MemStore) fail(method string) error {
	return m.FailOn[method]
}

func (m *MemStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%04d", prefix, m.seq)
}

// Session operations

func (m *MemStore) CreateSession(name string) (*postgres.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateSession"); err != nil {
		return nil, err
	}
	var code string
	for {
		code = postgres.GenerateSessionCode(postgres.CodeLength)
		taken := false
		for _, s := range m.Sessions {
			if s.Code == code && s.Active {
				taken = true
				break
			}
		}
		if !taken {
			break
		}
	}
	session := &postgres.Session{
		ID:        m.nextID("sess"),
		Code:      code,
		Name:      name,
		CreatedAt: time.Now(),
		Active:    true,
	}
	m.Sessions[session.ID] = session
	return copySession(session), nil
}

func (m *MemStore) GetSessionByCode(code string) (*postgres.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetSessionByCode"); err != nil {
		return nil, err
	}
	var found *postgres.Session
	for _, s := range m.Sessions {
		if s.Code != code {
			continue
		}
		if found == nil || (s.Active && !found.Active) {
			found = s
		}
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	return copySession(found), nil
}

func (m *MemStore) GetSessionByID(id string) (*postgres.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetSessionByID"); err != nil {
		return nil, err
	}
	s, ok := m.Sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copySession(s), nil
}

func (m *MemStore) ListActiveSessions() ([]postgres.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListActiveSessions"); err != nil {
		return nil, err
	}
	var out []postgres.Session
	for _, s := range m.Sessions {
		if s.Active {
			out = append(out, *copySession(s))
		}
	}
	return out, nil
}

func (m *MemStore) DeactivateSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeactivateSession"); err != nil {
		return err
	}
	if s, ok := m.Sessions[id]; ok {
		s.Active = false
	}
	return nil
}

func (m *MemStore) DeleteSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteSession"); err != nil {
		return err
	}
	delete(m.Sessions, id)
	return nil
}

// Participant operations

func (m *MemStore) AddParticipant(sessionID, name, connectionID string) (*postgres.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("AddParticipant"); err != nil {
		return nil, err
	}
	conn := connectionID
	p := &postgres.Participant{
		ID:           m.nextID("part"),
		SessionID:    sessionID,
		Name:         name,
		ConnectionID: &conn,
		CreatedAt:    time.Now(),
	}
	m.Participants[p.ID] = p
	return copyParticipant(p), nil
}

func (m *MemStore) GetParticipant(id string) (*postgres.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetParticipant"); err != nil {
		return nil, err
	}
	p, ok := m.Participants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyParticipant(p), nil
}

func (m *MemStore) ListParticipants(sessionID string) ([]postgres.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListParticipants"); err != nil {
		return nil, err
	}
	var out []postgres.Participant
	for _, p := range m.Participants {
		if p.SessionID == sessionID {
			out = append(out, *copyParticipant(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemStore) UpdateParticipantConnection(id, connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateParticipantConnection"); err != nil {
		return err
	}
	if p, ok := m.Participants[id]; ok {
		conn := connectionID
		p.ConnectionID = &conn
	}
	return nil
}

func (m *MemStore) RemoveParticipant(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("RemoveParticipant"); err != nil {
		return err
	}
	delete(m.Participants, id)
	return nil
}

func (m *MemStore) FindParticipantByConnection(connectionID string) (*postgres.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindParticipantByConnection"); err != nil {
		return nil, err
	}
	for _, p := range m.Participants {
		if p.ConnectionID != nil && *p.ConnectionID == connectionID {
			return copyParticipant(p), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemStore) FindParticipantByPhoto(photoID string) (*postgres.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindParticipantByPhoto"); err != nil {
		return nil, err
	}
	for _, p := range m.Participants {
		if p.PhotoAssigned != nil && *p.PhotoAssigned == photoID {
			return copyParticipant(p), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemStore) DeleteSessionParticipants(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteSessionParticipants"); err != nil {
		return err
	}
	for id, p := range m.Participants {
		if p.SessionID == sessionID {
			delete(m.Participants, id)
		}
	}
	return nil
}

// Photo operations

func (m *MemStore) AddPhotos(sessionID string, photos []store.NewPhoto) ([]postgres.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("AddPhotos"); err != nil {
		return nil, err
	}
	out := make([]postgres.Photo, 0, len(photos))
	for _, np := range photos {
		p := &postgres.Photo{
			ID:         m.nextID("photo"),
			SessionID:  sessionID,
			URL:        np.URL,
			Title:      np.Title,
			UploadedAt: time.Now(),
		}
		m.Photos[p.ID] = p
		out = append(out, *copyPhoto(p))
	}
	return out, nil
}

func (m *MemStore) GetPhoto(id string) (*postgres.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetPhoto"); err != nil {
		return nil, err
	}
	p, ok := m.Photos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyPhoto(p), nil
}

func (m *MemStore) ListPhotos(sessionID string) ([]postgres.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListPhotos"); err != nil {
		return nil, err
	}
	var out []postgres.Photo
	for _, p := range m.Photos {
		if p.SessionID == sessionID {
			out = append(out, *copyPhoto(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

func (m *MemStore) RemovePhoto(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("RemovePhoto"); err != nil {
		return err
	}
	delete(m.Photos, id)
	return nil
}

func (m *MemStore) DeleteSessionPhotos(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteSessionPhotos"); err != nil {
		return err
	}
	for id, p := range m.Photos {
		if p.SessionID == sessionID {
			delete(m.Photos, id)
		}
	}
	return nil
}

// Assignment operations

func (m *MemStore) SetPhotoAssignment(participantID string, photoID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SetPhotoAssignment"); err != nil {
		return err
	}
	if p, ok := m.Participants[participantID]; ok {
		if photoID == nil {
			p.PhotoAssigned = nil
		} else {
			id := *photoID
			p.PhotoAssigned = &id
		}
	}
	return nil
}

func (m *MemStore) ClearPhotoAssignments(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ClearPhotoAssignments"); err != nil {
		return err
	}
	for _, p := range m.Participants {
		if p.SessionID == sessionID {
			p.PhotoAssigned = nil
		}
	}
	return nil
}

func (m *MemStore) ClearPhotoHolders(photoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ClearPhotoHolders"); err != nil {
		return err
	}
	for _, p := range m.Participants {
		if p.PhotoAssigned != nil && *p.PhotoAssigned == photoID {
			p.PhotoAssigned = nil
		}
	}
	return nil
}

func copySession(s *postgres.Session) *postgres.Session {
	c := *s
	return &c
}

func copyParticipant(p *postgres.Participant) *postgres.Participant {
	c := *p
	if p.ConnectionID != nil {
		conn := *p.ConnectionID
		c.ConnectionID = &conn
	}
	if p.PhotoAssigned != nil {
		photo := *p.PhotoAssigned
		c.PhotoAssigned = &photo
	}
	return &c
}

func copyPhoto(p *postgres.Photo) *postgres.Photo {
	c := *p
	return &c
}
