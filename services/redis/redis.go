package redis

import (
	redis_models "PhotoReveal/models/redis"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Nil is re-exported so callers can test for cache misses without importing
// the driver themselves.
const Nil = redis.Nil

// RedisClient handles Redis operations
type RedisClient struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(Addr string, DB int) *RedisClient {
	var client *redis.Client
	if Addr != "localhost:6379" {
		log.Println("Connecting to remote Redis...")
		opt, err := redis.ParseURL(Addr)
		if err != nil {
			panic("Error parsing Redis URL")
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: Addr,
			DB:   DB,
		})
	}
	return &RedisClient{
		Client: client,
		Ctx:    context.Background(),
	}
}

func sessionIndexKey(code string) string {
	return "session_index:" + code
}

func presenceKey(sessionID, participantID string) string {
	return "presence:" + sessionID + ":" + participantID
}

// SaveSessionIndex writes the code -> session index entry. The TTL doubles
// as a safety net: an entry the sweep never touched still expires on its own.
func (rc *RedisClient) SaveSessionIndex(index *redis_models.SessionIndex, ttl time.Duration) error {
	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("error marshaling session index: %v", err)
	}
	if err := rc.Client.Set(rc.Ctx, sessionIndexKey(index.Code), data, ttl).Err(); err != nil {
		return fmt.Errorf("error saving session index for %s: %v", index.Code, err)
	}
	return nil
}

// GetSessionIndex returns the index entry for a code, or Nil if absent.
func (rc *RedisClient) GetSessionIndex(code string) (*redis_models.SessionIndex, error) {
	data, err := rc.Client.Get(rc.Ctx, sessionIndexKey(code)).Result()
	if err != nil {
		return nil, err
	}
	var index redis_models.SessionIndex
	if err := json.Unmarshal([]byte(data), &index); err != nil {
		return nil, fmt.Errorf("error unmarshaling session index for %s: %v", code, err)
	}
	return &index, nil
}

func (rc *RedisClient) DeleteSessionIndex(code string) error {
	if err := rc.Client.Del(rc.Ctx, sessionIndexKey(code)).Err(); err != nil {
		return fmt.Errorf("error deleting session index for %s: %v", code, err)
	}
	return nil
}

// SaveParticipantPresence stores the presence snapshot for a participant.
func (rc *RedisClient) SaveParticipantPresence(p *redis_models.ParticipantPresence, ttl time.Duration) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("error marshaling presence: %v", err)
	}
	key := presenceKey(p.SessionID, p.ParticipantID)
	if err := rc.Client.Set(rc.Ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("error saving presence %s: %v", key, err)
	}
	return nil
}

func (rc *RedisClient) DeleteParticipantPresence(sessionID, participantID string) error {
	key := presenceKey(sessionID, participantID)
	if err := rc.Client.Del(rc.Ctx, key).Err(); err != nil {
		return fmt.Errorf("error deleting presence %s: %v", key, err)
	}
	return nil
}
