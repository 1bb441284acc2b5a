package redis

// SessionIndex is the fast-path record mapping a session code to its row id
// and active flag. Postgres stays authoritative; the index is write-through
// and advisory, so a cold or flushed Redis never changes behavior.
type SessionIndex struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
	Active    bool   `json:"active"`
	CreatedAt int64  `json:"created_at"` // Unix timestamp
}
