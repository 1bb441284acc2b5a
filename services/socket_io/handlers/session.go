package handlers

import (
	"log"

	events "PhotoReveal/constants/events"
	"PhotoReveal/services/coordinator"
	"PhotoReveal/utils"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// Function to handle the act of joining a session. The payload carries the
// shared code, the display name and the admin flag; the coordinator resolves
// the session, reuses a same-name participant on reconnect, and pushes the
// refreshed views.
func HandleJoinSession(coord *coordinator.Coordinator, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, err := payloadOf(args)
		if err != nil {
			client.Emit(events.Error, gin.H{"message": "Invalid join request"})
			return
		}

		code := stringField(payload, "code")
		name := stringField(payload, "name")
		isAdmin, ok := payload["isAdmin"].(bool)
		if code == "" || name == "" || !ok {
			client.Emit(events.Error, gin.H{"message": "Invalid join request"})
			return
		}

		log.Printf("[JOIN] session=%s name=%s admin=%t socket=%s", code, name, isAdmin, client.Id())

		if err := coord.JoinSession(code, name, isAdmin, WrapConn(client)); err != nil {
			emitError(client, "JOIN", err)
			return
		}
	}
}

// Unicasts the current participant list back to the requesting connection.
func HandleGetParticipants(coord *coordinator.Coordinator, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, err := payloadOf(args)
		if err != nil {
			return
		}
		code := stringField(payload, "code")
		if err := coord.GetParticipants(code, WrapConn(client)); err != nil {
			log.Printf("[GET-PARTICIPANTS-ERROR] session=%s: %v", code, err)
		}
	}
}

// Ends a session: cascade-deletes its photos, participants and row, then
// broadcasts session_ended and closes the room. Ending a session that is
// already gone succeeds quietly.
func HandleEndSession(coord *coordinator.Coordinator, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, err := payloadOf(args)
		if err != nil {
			client.Emit(events.Error, gin.H{"message": utils.ClientMessage(utils.ErrValidation)})
			return
		}
		code := stringField(payload, "code")
		log.Printf("[END-SESSION] session=%s socket=%s", code, client.Id())

		if err := coord.EndSession(code); err != nil {
			emitError(client, "END-SESSION", err)
			return
		}
	}
}
