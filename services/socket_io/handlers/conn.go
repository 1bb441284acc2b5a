package handlers

import (
	"errors"
	"log"

	events "PhotoReveal/constants/events"
	"PhotoReveal/services/rooms"
	"PhotoReveal/utils"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// sioConn adapts a socket.io socket to the rooms.Conn interface the
// coordination layer broadcasts through.
type sioConn struct {
	client *socket.Socket
}

func WrapConn(client *socket.Socket) rooms.Conn {
	return &sioConn{client: client}
}

func (c *sioConn) ID() string {
	return string(c.client.Id())
}

func (c *sioConn) Emit(event string, payload interface{}) error {
	if payload == nil {
		return c.client.Emit(event)
	}
	return c.client.Emit(event, payload)
}

// emitError reports a failed intent back to the originating connection only.
// Domain errors carry their own message; anything else is a store or
// internal failure whose detail stays in the server log.
func emitError(client *socket.Socket, event string, err error) {
	if !utils.IsDomainError(err) {
		log.Printf("[%s-ERROR] internal error: %v", event, err)
	}
	client.Emit(events.Error, gin.H{"message": utils.ClientMessage(err)})
}

var errBadPayload = errors.New("bad payload")

// payloadOf extracts the single object argument socket.io hands us.
func payloadOf(args []interface{}) (map[string]interface{}, error) {
	if len(args) < 1 {
		return nil, errBadPayload
	}
	payload, ok := args[0].(map[string]interface{})
	if !ok {
		return nil, errBadPayload
	}
	return payload, nil
}

func stringField(payload map[string]interface{}, key string) string {
	value, _ := payload[key].(string)
	return value
}
