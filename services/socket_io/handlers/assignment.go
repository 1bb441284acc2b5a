package handlers

import (
	"log"

	events "PhotoReveal/constants/events"
	"PhotoReveal/services/coordinator"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// Runs the randomized bulk assignment for a session.
func HandleAssignPhotos(coord *coordinator.Coordinator, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, err := payloadOf(args)
		if err != nil {
			client.Emit(events.Error, gin.H{"message": "Invalid assignment request"})
			return
		}

		code := stringField(payload, "code")
		log.Printf("[ASSIGN] session=%s socket=%s", code, client.Id())

		if err := coord.AssignPhotos(code); err != nil {
			emitError(client, "ASSIGN", err)
			return
		}
	}
}

// Assigns one specific photo to one specific participant. A photo someone
// else already holds is refused.
func HandleAssignPhotoManually(coord *coordinator.Coordinator, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, err := payloadOf(args)
		if err != nil {
			client.Emit(events.Error, gin.H{"message": "Invalid assignment request"})
			return
		}

		sessionID := stringField(payload, "sessionId")
		participantID := stringField(payload, "participantId")
		photoID := stringField(payload, "photoId")
		log.Printf("[MANUAL-ASSIGN] session=%s participant=%s photo=%s",
			sessionID, participantID, photoID)

		if err := coord.AssignPhotoManually(sessionID, participantID, photoID); err != nil {
			emitError(client, "MANUAL-ASSIGN", err)
			return
		}
	}
}

// Clears a participant's assignment.
func HandleUnassignPhoto(coord *coordinator.Coordinator, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, err := payloadOf(args)
		if err != nil {
			client.Emit(events.Error, gin.H{"message": "Invalid unassign request"})
			return
		}

		sessionID := stringField(payload, "sessionId")
		participantID := stringField(payload, "participantId")
		log.Printf("[UNASSIGN] session=%s participant=%s", sessionID, participantID)

		if err := coord.UnassignPhoto(sessionID, participantID); err != nil {
			emitError(client, "UNASSIGN", err)
			return
		}
	}
}
