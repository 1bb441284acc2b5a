package handlers

import (
	"log"

	events "PhotoReveal/constants/events"
	"PhotoReveal/services/coordinator"
	socketio_types "PhotoReveal/services/socket_io/types"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// Explicit departure: the participant asked to leave.
func HandleParticipantLeft(coord *coordinator.Coordinator, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, err := payloadOf(args)
		if err != nil {
			client.Emit(events.Error, gin.H{"message": "Invalid leave request"})
			return
		}

		code := stringField(payload, "code")
		participantID := stringField(payload, "participantId")
		log.Printf("[LEAVE] session=%s participant=%s", code, participantID)

		if err := coord.ParticipantLeft(code, participantID); err != nil {
			emitError(client, "LEAVE", err)
			return
		}
	}
}

// Function to handle socket.io client disconnections. A dropped connection
// is a full departure: the participant row goes away immediately and the
// room sees the shrunk list.
func HandleDisconnecting(coord *coordinator.Coordinator, client *socket.Socket,
	sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		connID := string(client.Id())
		log.Printf("[DISCONNECT] socket=%s", connID)

		sio.RemoveConnection(connID)

		if err := coord.Disconnect(connID); err != nil {
			log.Printf("[DISCONNECT-ERROR] socket=%s: %v", connID, err)
		}
	}
}
