// Package registry owns the session lifecycle: code generation and
// validation, creation, lookup, the end-session cascade and the periodic
// expiry sweep.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"PhotoReveal/config"
	"PhotoReveal/models/postgres"
	redis_models "PhotoReveal/models/redis"
	"PhotoReveal/services/redis"
	"PhotoReveal/services/store"
	"PhotoReveal/utils"
)

const maxSessionName = 50

type Registry struct {
	store       store.Store
	redisClient *redis.RedisClient // nil disables the index, Postgres stays authoritative
	codePattern *regexp.Regexp
	expiry      time.Duration
	log         *slog.Logger
}

func New(st store.Store, redisClient *redis.RedisClient, cfg *config.Settings, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:       st,
		redisClient: redisClient,
		codePattern: regexp.MustCompile(fmt.Sprintf(`^[A-Z0-9]{%d}$`, cfg.CodeLength)),
		expiry:      cfg.SessionExpiry,
		log:         logger,
	}
}

// ValidateCode rejects malformed codes before any store access.
func (r *Registry) ValidateCode(code string) error {
	if !r.codePattern.MatchString(code) {
		return fmt.Errorf("%w: malformed session code", utils.ErrValidation)
	}
	return nil
}

// CreateSession creates a session with a fresh unique code. Duplicate-code
// collisions are retried inside the store (regenerate, never surfaced).
func (r *Registry) CreateSession(name string) (*postgres.Session, error) {
	if name == "" || len(name) > maxSessionName {
		return nil, fmt.Errorf("%w: invalid session name", utils.ErrValidation)
	}
	session, err := r.store.CreateSession(name)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	r.saveIndex(session)
	r.log.Info("session created", "code", session.Code, "id", session.ID)
	return session, nil
}

// GetSessionByCode validates the code lexically, then resolves it. Inactive
// sessions are still returned; callers decide whether ended is an error.
func (r *Registry) GetSessionByCode(code string) (*postgres.Session, error) {
	if err := r.ValidateCode(code); err != nil {
		return nil, err
	}
	session, err := r.store.GetSessionByCode(code)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, utils.ErrSessionNotFound
		}
		return nil, fmt.Errorf("looking up session %s: %w", code, err)
	}
	return session, nil
}

func (r *Registry) GetSessionByID(id string) (*postgres.Session, error) {
	session, err := r.store.GetSessionByID(id)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, utils.ErrSessionNotFound
		}
		return nil, fmt.Errorf("looking up session id %s: %w", id, err)
	}
	return session, nil
}

// EndSession tears a session down: photos first, then participants, then the
// session row, so no dangling child rows can be observed mid-failure. It is
// idempotent; ending an absent or already-ended session is a no-op.
func (r *Registry) EndSession(code string) error {
	if err := r.ValidateCode(code); err != nil {
		return err
	}
	session, err := r.store.GetSessionByCode(code)
	if err != nil {
		if err == store.ErrNotFound {
			return nil
		}
		return fmt.Errorf("looking up session %s: %w", code, err)
	}
	if err := r.cascade(session.ID); err != nil {
		return err
	}
	if err := r.store.DeleteSession(session.ID); err != nil {
		return fmt.Errorf("deleting session %s: %w", session.ID, err)
	}
	r.dropIndex(code)
	r.log.Info("session ended", "code", code, "id", session.ID)
	return nil
}

func (r *Registry) cascade(sessionID string) error {
	if err := r.store.DeleteSessionPhotos(sessionID); err != nil {
		return fmt.Errorf("deleting session photos: %w", err)
	}
	if err := r.store.DeleteSessionParticipants(sessionID); err != nil {
		return fmt.Errorf("deleting session participants: %w", err)
	}
	return nil
}

// Sweep deactivates every active session older than the configured expiry
// and cascades its children, so an inactive session is always observed with
// zero participants and zero photos. Advisory cleanup: per-session errors
// are logged and the sweep moves on.
func (r *Registry) Sweep() {
	sessions, err := r.store.ListActiveSessions()
	if err != nil {
		r.log.Error("expiry sweep: listing active sessions failed", "err", err)
		return
	}
	now := time.Now()
	for _, session := range sessions {
		if now.Sub(session.CreatedAt) <= r.expiry {
			continue
		}
		if err := r.cascade(session.ID); err != nil {
			r.log.Error("expiry sweep: cascade failed", "code", session.Code, "err", err)
			continue
		}
		if err := r.store.DeactivateSession(session.ID); err != nil {
			r.log.Error("expiry sweep: deactivate failed", "code", session.Code, "err", err)
			continue
		}
		session.Active = false
		r.saveIndex(&session)
		r.log.Info("expired session cleaned up", "code", session.Code, "id", session.ID)
	}
}

// StartSweep runs Sweep every interval until ctx is cancelled.
func (r *Registry) StartSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

func (r *Registry) saveIndex(session *postgres.Session) {
	if r.redisClient == nil {
		return
	}
	index := &redis_models.SessionIndex{
		SessionID: session.ID,
		Code:      session.Code,
		Active:    session.Active,
		CreatedAt: session.CreatedAt.Unix(),
	}
	if err := r.redisClient.SaveSessionIndex(index, r.expiry+time.Hour); err != nil {
		r.log.Warn("session index write failed", "code", session.Code, "err", err)
	}
}

func (r *Registry) dropIndex(code string) {
	if r.redisClient == nil {
		return
	}
	if err := r.redisClient.DeleteSessionIndex(code); err != nil {
		r.log.Warn("session index delete failed", "code", code, "err", err)
	}
}
