// Package assign computes the one-photo-per-participant mapping, either as
// a randomized bulk pass over the whole session or as single manual moves.
package assign

import (
	"fmt"
	"log/slog"
	"math/rand"

	"PhotoReveal/services/store"
	"PhotoReveal/utils"
)

type Engine struct {
	store store.Store
	log   *slog.Logger
}

func NewEngine(st store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, log: logger}
}

// AutoAssign wipes every existing assignment in the session and deals the
// photos out again: participant i receives photos[i mod len(photos)] over a
// uniformly shuffled photo list. Photos repeat once participants outnumber
// photos; no participant ever receives more than one. Empty participant or
// photo sets make this a no-op.
func (e *Engine) AutoAssign(sessionID string) error {
	participants, err := e.store.ListParticipants(sessionID)
	if err != nil {
		return fmt.Errorf("listing participants: %w", err)
	}
	photos, err := e.store.ListPhotos(sessionID)
	if err != nil {
		return fmt.Errorf("listing photos: %w", err)
	}
	if len(participants) == 0 || len(photos) == 0 {
		return nil
	}

	// No stale half-assignment may survive a re-run
	if err := e.store.ClearPhotoAssignments(sessionID); err != nil {
		return fmt.Errorf("clearing assignments: %w", err)
	}

	shuffled := make([]string, len(photos))
	for i := range photos {
		shuffled[i] = photos[i].ID
	}
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for i := range participants {
		photoID := shuffled[i%len(shuffled)]
		if err := e.store.SetPhotoAssignment(participants[i].ID, &photoID); err != nil {
			return fmt.Errorf("assigning photo to %s: %w", participants[i].ID, err)
		}
	}
	e.log.Info("photos auto-assigned",
		"session", sessionID, "participants", len(participants), "photos", len(photos))
	return nil
}

// ManualAssign gives one photo to one participant. Unlike AutoAssign it
// enforces the strict one-participant-per-photo rule: assigning a photo
// someone already holds fails and leaves every prior assignment untouched.
func (e *Engine) ManualAssign(sessionID, participantID, photoID string) error {
	participant, err := e.store.GetParticipant(participantID)
	if err != nil {
		if err == store.ErrNotFound {
			return utils.ErrParticipantNotFound
		}
		return fmt.Errorf("resolving participant %s: %w", participantID, err)
	}
	if participant.SessionID != sessionID {
		return utils.ErrParticipantNotFound
	}

	photo, err := e.store.GetPhoto(photoID)
	if err != nil {
		if err == store.ErrNotFound {
			return utils.ErrPhotoNotFound
		}
		return fmt.Errorf("resolving photo %s: %w", photoID, err)
	}
	if photo.SessionID != sessionID {
		return utils.ErrPhotoNotFound
	}

	_, err = e.store.FindParticipantByPhoto(photoID)
	if err == nil {
		return utils.ErrPhotoAlreadyAssigned
	}
	if err != store.ErrNotFound {
		return fmt.Errorf("checking photo holder: %w", err)
	}

	if err := e.store.SetPhotoAssignment(participantID, &photoID); err != nil {
		return fmt.Errorf("assigning photo: %w", err)
	}
	return nil
}

// ManualUnassign clears a participant's assignment. Clearing an already
// clear participant succeeds (idempotent).
func (e *Engine) ManualUnassign(sessionID, participantID string) error {
	participant, err := e.store.GetParticipant(participantID)
	if err != nil {
		if err == store.ErrNotFound {
			return utils.ErrParticipantNotFound
		}
		return fmt.Errorf("resolving participant %s: %w", participantID, err)
	}
	if participant.SessionID != sessionID {
		return utils.ErrParticipantNotFound
	}
	if err := e.store.SetPhotoAssignment(participantID, nil); err != nil {
		return fmt.Errorf("unassigning photo: %w", err)
	}
	return nil
}

// RemovePhoto deletes a photo from the session, clearing the assignment of
// every participant currently holding it first.
func (e *Engine) RemovePhoto(sessionID, photoID string) error {
	photo, err := e.store.GetPhoto(photoID)
	if err != nil {
		if err == store.ErrNotFound {
			return utils.ErrPhotoNotFound
		}
		return fmt.Errorf("resolving photo %s: %w", photoID, err)
	}
	if photo.SessionID != sessionID {
		return utils.ErrPhotoNotFound
	}

	if err := e.store.ClearPhotoHolders(photoID); err != nil {
		return fmt.Errorf("clearing photo holders: %w", err)
	}
	if err := e.store.RemovePhoto(photoID); err != nil {
		return fmt.Errorf("removing photo: %w", err)
	}
	e.log.Info("photo removed", "session", sessionID, "photo", photoID)
	return nil
}
