package utils

import "errors"

// Domain error kinds. Handlers resolve these at the point of detection and
// report them only to the originating connection, never to the room.
var (
	ErrValidation           = errors.New("invalid request")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionEnded         = errors.New("session has ended")
	ErrSessionFull          = errors.New("session is full")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrPhotoNotFound        = errors.New("photo not found")
	ErrPhotoAlreadyAssigned = errors.New("photo is already assigned")
)

// ClientMessage maps an error to the message sent back to the originating
// connection. Anything that is not a domain error is a store or transport
// failure and must not leak internals.
func ClientMessage(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "Invalid request"
	case errors.Is(err, ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, ErrSessionEnded):
		return "Session has ended"
	case errors.Is(err, ErrSessionFull):
		return "Session is full"
	case errors.Is(err, ErrParticipantNotFound):
		return "Participant not found"
	case errors.Is(err, ErrPhotoNotFound):
		return "Photo not found"
	case errors.Is(err, ErrPhotoAlreadyAssigned):
		return "Photo is already assigned"
	default:
		return "Internal server error"
	}
}

// IsDomainError reports whether err is one of the client-resolvable kinds,
// as opposed to a wrapped store failure.
func IsDomainError(err error) bool {
	for _, kind := range []error{
		ErrValidation, ErrSessionNotFound, ErrSessionEnded, ErrSessionFull,
		ErrParticipantNotFound, ErrPhotoNotFound, ErrPhotoAlreadyAssigned,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
