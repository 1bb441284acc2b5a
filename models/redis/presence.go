package redis

// ParticipantPresence is a snapshot of which connection currently speaks for
// a participant. Written on join/reconnect, removed on departure. Used for
// operator inspection; room membership itself lives in the coordinator.
type ParticipantPresence struct {
	ParticipantID string `json:"participant_id"`
	SessionID     string `json:"session_id"`
	Name          string `json:"name"`
	ConnectionID  string `json:"connection_id"` // For direct messaging
	LastSeen      int64  `json:"last_seen"`     // Unix timestamp
}
