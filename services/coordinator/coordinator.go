// Package coordinator serializes and executes intent events against one
// session at a time: validate, resolve the session, mutate the store through
// the registry/presence/assignment components, re-read the authoritative
// views and broadcast them to the session's room.
package coordinator

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"PhotoReveal/config"
	events "PhotoReveal/constants/events"
	"PhotoReveal/models/postgres"
	"PhotoReveal/services/assign"
	"PhotoReveal/services/presence"
	"PhotoReveal/services/redis"
	"PhotoReveal/services/registry"
	"PhotoReveal/services/rooms"
	"PhotoReveal/services/store"
	"PhotoReveal/utils"
)

type Coordinator struct {
	store    store.Store
	registry *registry.Registry
	presence *presence.Tracker
	engine   *assign.Engine
	rooms    *rooms.Registry
	log      *slog.Logger

	// Per-session exclusive sections: events targeting the same code are
	// serialized, sessions proceed fully in parallel.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(st store.Store, redisClient *redis.RedisClient, cfg *config.Settings, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	roomRegistry := rooms.NewRegistry(logger)
	return &Coordinator{
		store:    st,
		registry: registry.New(st, redisClient, cfg, logger),
		presence: presence.NewTracker(st, roomRegistry, redisClient, cfg.MaxParticipants, cfg.SessionExpiry, logger),
		engine:   assign.NewEngine(st, logger),
		rooms:    roomRegistry,
		log:      logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (c *Coordinator) Registry() *registry.Registry { return c.registry }
func (c *Coordinator) Rooms() *rooms.Registry       { return c.rooms }

// sessionLock returns the mutex for a code, creating it on first use.
// Entries are never removed: a goroutine already blocked on the mutex of an
// ending session must wake under the same mutex a later event for the
// reused code resolves, so the entry outlives the session.
func (c *Coordinator) sessionLock(code string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[code]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[code] = lock
	}
	return lock
}

// resolveActive loads the session for a code and rejects ended ones.
func (c *Coordinator) resolveActive(code string) (*postgres.Session, error) {
	session, err := c.registry.GetSessionByCode(code)
	if err != nil {
		return nil, err
	}
	if !session.Active {
		return nil, utils.ErrSessionEnded
	}
	return session, nil
}

// JoinSession handles a join_session intent. On success the refreshed
// participant list goes to the whole room, while the session data and the
// current photo set are unicast to the joiner.
func (c *Coordinator) JoinSession(code, name string, isAdmin bool, conn rooms.Conn) error {
	if name == "" {
		return fmt.Errorf("%w: missing participant name", utils.ErrValidation)
	}
	if err := c.registry.ValidateCode(code); err != nil {
		return err
	}

	lock := c.sessionLock(code)
	lock.Lock()
	defer lock.Unlock()

	session, err := c.resolveActive(code)
	if err != nil {
		return err
	}

	result, err := c.presence.Join(session, name, isAdmin, conn)
	if err != nil {
		return err
	}

	c.rooms.Broadcast(code, events.ParticipantsUpdated, result.Participants)

	if err := conn.Emit(events.SessionJoined, session); err != nil {
		c.log.Warn("session_joined unicast failed", "conn", conn.ID(), "err", err)
	}
	photos, err := c.store.ListPhotos(session.ID)
	if err != nil {
		return fmt.Errorf("listing photos: %w", err)
	}
	if err := conn.Emit(events.PhotosUpdated, photos); err != nil {
		c.log.Warn("photos_updated unicast failed", "conn", conn.ID(), "err", err)
	}

	c.log.Info("participant joined", "session", code, "name", name,
		"admin", isAdmin, "reconnected", result.Reconnected)
	return nil
}

// GetParticipants unicasts the current participant list to the requesting
// connection. An unknown code is silently ignored, matching the wire
// contract of the original get_participants event.
func (c *Coordinator) GetParticipants(code string, conn rooms.Conn) error {
	session, err := c.registry.GetSessionByCode(code)
	if err != nil {
		if utils.IsDomainError(err) {
			return nil
		}
		return err
	}
	participants, err := c.store.ListParticipants(session.ID)
	if err != nil {
		return fmt.Errorf("listing participants: %w", err)
	}
	if err := conn.Emit(events.ParticipantsUpdated, participants); err != nil {
		c.log.Warn("participants_updated unicast failed", "conn", conn.ID(), "err", err)
	}
	return nil
}

// UploadPhotos appends a batch of photos to the session. Entries without a
// URL are filtered out rather than failing the batch; only an all-invalid
// batch is rejected. The room receives the full re-read photo list.
func (c *Coordinator) UploadPhotos(code string, photos []store.NewPhoto) error {
	if err := c.registry.ValidateCode(code); err != nil {
		return err
	}
	if len(photos) == 0 {
		return fmt.Errorf("%w: empty photos array", utils.ErrValidation)
	}
	valid := make([]store.NewPhoto, 0, len(photos))
	for _, p := range photos {
		if p.URL != "" {
			valid = append(valid, p)
		}
	}
	if len(valid) == 0 {
		return fmt.Errorf("%w: no valid photos to upload", utils.ErrValidation)
	}
	if len(valid) != len(photos) {
		c.log.Warn("some photos were invalid and were filtered out",
			"session", code, "dropped", len(photos)-len(valid))
	}

	lock := c.sessionLock(code)
	lock.Lock()
	defer lock.Unlock()

	session, err := c.resolveActive(code)
	if err != nil {
		return err
	}

	if _, err := c.store.AddPhotos(session.ID, valid); err != nil {
		return fmt.Errorf("adding photos: %w", err)
	}

	all, err := c.store.ListPhotos(session.ID)
	if err != nil {
		return fmt.Errorf("listing photos: %w", err)
	}
	c.rooms.Broadcast(code, events.PhotosUpdated, all)
	c.log.Info("photos uploaded", "session", code, "count", len(valid), "total", len(all))
	return nil
}

// AssignPhotos runs the randomized bulk assignment and broadcasts both
// refreshed views.
func (c *Coordinator) AssignPhotos(code string) error {
	if err := c.registry.ValidateCode(code); err != nil {
		return err
	}

	lock := c.sessionLock(code)
	lock.Lock()
	defer lock.Unlock()

	session, err := c.resolveActive(code)
	if err != nil {
		return err
	}
	if err := c.engine.AutoAssign(session.ID); err != nil {
		return err
	}
	return c.broadcastViews(session.ID, code)
}

// AssignPhotoManually gives a single photo to a single participant,
// refusing photos already held by someone else.
func (c *Coordinator) AssignPhotoManually(sessionID, participantID, photoID string) error {
	if sessionID == "" || participantID == "" || photoID == "" {
		return fmt.Errorf("%w: invalid assignment request", utils.ErrValidation)
	}
	session, err := c.registry.GetSessionByID(sessionID)
	if err != nil {
		return err
	}

	lock := c.sessionLock(session.Code)
	lock.Lock()
	defer lock.Unlock()

	if !session.Active {
		return utils.ErrSessionEnded
	}
	if err := c.engine.ManualAssign(sessionID, participantID, photoID); err != nil {
		return err
	}
	return c.broadcastViews(sessionID, session.Code)
}

// UnassignPhoto clears a participant's assignment.
func (c *Coordinator) UnassignPhoto(sessionID, participantID string) error {
	if sessionID == "" || participantID == "" {
		return fmt.Errorf("%w: invalid unassign request", utils.ErrValidation)
	}
	session, err := c.registry.GetSessionByID(sessionID)
	if err != nil {
		return err
	}

	lock := c.sessionLock(session.Code)
	lock.Lock()
	defer lock.Unlock()

	if !session.Active {
		return utils.ErrSessionEnded
	}
	if err := c.engine.ManualUnassign(sessionID, participantID); err != nil {
		return err
	}
	return c.broadcastViews(sessionID, session.Code)
}

// EndSession tears the session down (idempotent), tells the room, and
// closes it. After this the code resolves to nothing until a new session
// claims it.
func (c *Coordinator) EndSession(code string) error {
	if err := c.registry.ValidateCode(code); err != nil {
		return err
	}

	lock := c.sessionLock(code)
	lock.Lock()
	defer lock.Unlock()

	if err := c.registry.EndSession(code); err != nil {
		return err
	}
	c.rooms.Broadcast(code, events.SessionEnded, nil)
	c.rooms.Close(code)
	return nil
}

// ParticipantLeft removes a participant on explicit request and broadcasts
// the refreshed list.
func (c *Coordinator) ParticipantLeft(code, participantID string) error {
	if participantID == "" {
		return fmt.Errorf("%w: missing participant id", utils.ErrValidation)
	}
	if err := c.registry.ValidateCode(code); err != nil {
		return err
	}

	lock := c.sessionLock(code)
	lock.Lock()
	defer lock.Unlock()

	session, err := c.registry.GetSessionByCode(code)
	if err != nil {
		return err
	}
	participants, err := c.presence.Leave(session.ID, participantID)
	if err != nil {
		return err
	}
	c.rooms.Broadcast(code, events.ParticipantsUpdated, participants)
	return nil
}

// RemovePhoto deletes a photo, cascading the unassignment of anyone holding
// it, and broadcasts both refreshed views.
func (c *Coordinator) RemovePhoto(code, photoID string) error {
	if photoID == "" {
		return fmt.Errorf("%w: missing photo id", utils.ErrValidation)
	}
	if err := c.registry.ValidateCode(code); err != nil {
		return err
	}

	lock := c.sessionLock(code)
	lock.Lock()
	defer lock.Unlock()

	session, err := c.registry.GetSessionByCode(code)
	if err != nil {
		return err
	}
	if err := c.engine.RemovePhoto(session.ID, photoID); err != nil {
		return err
	}

	photos, err := c.store.ListPhotos(session.ID)
	if err != nil {
		return fmt.Errorf("listing photos: %w", err)
	}
	participants, err := c.store.ListParticipants(session.ID)
	if err != nil {
		return fmt.Errorf("listing participants: %w", err)
	}
	c.rooms.Broadcast(code, events.PhotosUpdated, photos)
	c.rooms.Broadcast(code, events.ParticipantsUpdated, participants)
	return nil
}

// Disconnect handles an implicit connection close. The connection drops out
// of every room; if it spoke for a participant, that participant is removed
// and its session's room told. In-flight mutations for the session are not
// cancelled; the closing connection just stops receiving deliveries.
func (c *Coordinator) Disconnect(connectionID string) error {
	c.rooms.DropConn(connectionID)

	// Resolve the session code first so the removal and re-read run inside
	// the same exclusive section as every other mutation for that session.
	participant, err := c.store.FindParticipantByConnection(connectionID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil
		}
		return fmt.Errorf("resolving connection %s: %w", connectionID, err)
	}
	session, err := c.registry.GetSessionByID(participant.SessionID)
	if err != nil {
		if errors.Is(err, utils.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	lock := c.sessionLock(session.Code)
	lock.Lock()
	defer lock.Unlock()

	result, err := c.presence.Disconnect(connectionID)
	if err != nil {
		return err
	}
	if result == nil {
		// Already removed by a racing teardown; nothing to announce.
		return nil
	}

	c.rooms.Broadcast(session.Code, events.ParticipantsUpdated, result.Participants)
	return nil
}

// broadcastViews re-reads both authoritative lists and pushes them to the
// room, so every observer converges on the last-committed state.
func (c *Coordinator) broadcastViews(sessionID, code string) error {
	participants, err := c.store.ListParticipants(sessionID)
	if err != nil {
		return fmt.Errorf("listing participants: %w", err)
	}
	photos, err := c.store.ListPhotos(sessionID)
	if err != nil {
		return fmt.Errorf("listing photos: %w", err)
	}
	c.rooms.Broadcast(code, events.ParticipantsUpdated, participants)
	c.rooms.Broadcast(code, events.PhotosUpdated, photos)
	return nil
}
