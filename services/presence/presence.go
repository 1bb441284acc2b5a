// Package presence maps live connections to participants and participants
// to session membership: joins, same-name reconnects and departures.
package presence

import (
	"fmt"
	"log/slog"
	"time"

	"PhotoReveal/models/postgres"
	redis_models "PhotoReveal/models/redis"
	"PhotoReveal/services/redis"
	"PhotoReveal/services/rooms"
	"PhotoReveal/services/store"
	"PhotoReveal/utils"
)

type Tracker struct {
	store           store.Store
	rooms           *rooms.Registry
	redisClient     *redis.RedisClient // nil disables snapshots
	maxParticipants int
	snapshotTTL     time.Duration
	log             *slog.Logger
}

func NewTracker(st store.Store, roomRegistry *rooms.Registry, redisClient *redis.RedisClient,
	maxParticipants int, snapshotTTL time.Duration, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:           st,
		rooms:           roomRegistry,
		redisClient:     redisClient,
		maxParticipants: maxParticipants,
		snapshotTTL:     snapshotTTL,
		log:             logger,
	}
}

// JoinResult is what a successful join produces: the refreshed participant
// list for the room broadcast, and whether an existing same-name participant
// was reconnected instead of a new one created.
type JoinResult struct {
	Participants []postgres.Participant
	Reconnected  bool
}

// Join attaches conn to the session's room and, for non-admins, creates or
// reconnects the named participant. The admin is never stored as a counted
// participant; it is tracked purely by room membership. A same-name join is
// a reconnect: the existing row's connection id is updated so "Alice" never
// appears twice.
func (t *Tracker) Join(session *postgres.Session, name string, isAdmin bool, conn rooms.Conn) (*JoinResult, error) {
	result := &JoinResult{}

	if !isAdmin {
		participants, err := t.store.ListParticipants(session.ID)
		if err != nil {
			return nil, fmt.Errorf("listing participants: %w", err)
		}

		var existing *postgres.Participant
		for i := range participants {
			if participants[i].Name == name {
				existing = &participants[i]
				break
			}
		}

		if existing != nil {
			if err := t.store.UpdateParticipantConnection(existing.ID, conn.ID()); err != nil {
				return nil, fmt.Errorf("updating participant connection: %w", err)
			}
			result.Reconnected = true
			t.saveSnapshot(existing.ID, session.ID, name, conn.ID())
		} else {
			if len(participants) >= t.maxParticipants {
				return nil, utils.ErrSessionFull
			}
			participant, err := t.store.AddParticipant(session.ID, name, conn.ID())
			if err != nil {
				return nil, fmt.Errorf("adding participant: %w", err)
			}
			t.saveSnapshot(participant.ID, session.ID, name, conn.ID())
		}
	}

	// The connection enters the room on every successful branch
	t.rooms.Join(session.Code, conn)

	participants, err := t.store.ListParticipants(session.ID)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	result.Participants = participants
	return result, nil
}

// DisconnectResult names the session a removed participant belonged to,
// with the refreshed list for the room broadcast.
type DisconnectResult struct {
	Session      *postgres.Session
	Participants []postgres.Participant
}

// Disconnect handles a closed connection. A lost connection is a full
// departure, not a grace-period reconnect window: the participant row is
// removed immediately. Connections with no participant (admins, spectators)
// produce a nil result.
func (t *Tracker) Disconnect(connectionID string) (*DisconnectResult, error) {
	participant, err := t.store.FindParticipantByConnection(connectionID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("resolving connection %s: %w", connectionID, err)
	}

	session, err := t.store.GetSessionByID(participant.SessionID)
	if err != nil {
		if err == store.ErrNotFound {
			// Session already torn down; nothing left to broadcast to.
			return nil, nil
		}
		return nil, fmt.Errorf("resolving session %s: %w", participant.SessionID, err)
	}

	if err := t.remove(participant); err != nil {
		return nil, err
	}
	t.log.Info("participant removed on disconnect",
		"participant", participant.ID, "session", session.Code)

	participants, err := t.store.ListParticipants(session.ID)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	return &DisconnectResult{Session: session, Participants: participants}, nil
}

// Leave removes a participant on explicit request. The participant must
// belong to the given session.
func (t *Tracker) Leave(sessionID, participantID string) ([]postgres.Participant, error) {
	participant, err := t.store.GetParticipant(participantID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, utils.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("resolving participant %s: %w", participantID, err)
	}
	if participant.SessionID != sessionID {
		return nil, utils.ErrParticipantNotFound
	}

	if err := t.remove(participant); err != nil {
		return nil, err
	}

	participants, err := t.store.ListParticipants(sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	return participants, nil
}

func (t *Tracker) remove(participant *postgres.Participant) error {
	if err := t.store.RemoveParticipant(participant.ID); err != nil {
		return fmt.Errorf("removing participant %s: %w", participant.ID, err)
	}
	if t.redisClient != nil {
		if err := t.redisClient.DeleteParticipantPresence(participant.SessionID, participant.ID); err != nil {
			t.log.Warn("presence snapshot delete failed", "participant", participant.ID, "err", err)
		}
	}
	return nil
}

func (t *Tracker) saveSnapshot(participantID, sessionID, name, connectionID string) {
	if t.redisClient == nil {
		return
	}
	snapshot := &redis_models.ParticipantPresence{
		ParticipantID: participantID,
		SessionID:     sessionID,
		Name:          name,
		ConnectionID:  connectionID,
		LastSeen:      time.Now().Unix(),
	}
	if err := t.redisClient.SaveParticipantPresence(snapshot, t.snapshotTTL); err != nil {
		t.log.Warn("presence snapshot write failed", "participant", participantID, "err", err)
	}
}
