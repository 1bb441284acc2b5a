package events_constants

// Inbound intent events (client -> server).
const (
	JoinSession         = "join_session"
	GetParticipants     = "get_participants"
	UploadPhotos        = "upload_photos"
	AssignPhotos        = "assign_photos"
	AssignPhotoManually = "assign_photo_manually"
	UnassignPhoto       = "unassign_photo"
	EndSession          = "end_session"
	ParticipantLeft     = "participant_left"
	RemovePhoto         = "remove_photo"
)

// Outbound events (server -> client). ParticipantsUpdated and PhotosUpdated
// always carry lists re-read from the store, never client-echoed state.
const (
	SessionJoined       = "session_joined" // unicast to the joining connection
	SessionEnded        = "session_ended"  // broadcast, no payload
	ParticipantsUpdated = "participants_updated"
	PhotosUpdated       = "photos_updated"
	Error               = "error" // unicast {message}
)
