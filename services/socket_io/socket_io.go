package socket_io

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	events "PhotoReveal/constants/events"
	"PhotoReveal/services/coordinator"
	"PhotoReveal/services/socket_io/handlers"
	socketio_types "PhotoReveal/services/socket_io/types"

	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

type MySocketServer socketio_types.SocketServer

// Start mounts the socket.io server on the gin router and registers the
// intent-event handlers. Every client event funnels into the coordinator;
// room membership and broadcast live there, not in socket.io adapter state,
// so a restart drops all presence by design.
func (sio *MySocketServer) Start(router *gin.Engine, coord *coordinator.Coordinator, corsOrigin string) {
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// NOTE: higher ping interval and timeout to 1) reduce network load and
	// 2) support slower networks
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	// Photos travel as data-URIs, so the buffer ceiling is generous
	c.SetMaxHttpBufferSize(10000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      corsOrigin,
		Credentials: true,
	})

	sio.Connections = make(map[string]*socket.Socket)

	sio.Sio_server = socket.NewServer(nil, nil)
	sio.Sio_server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)
		connID := string(client.Id())

		(*socketio_types.SocketServer)(sio).AddConnection(connID, client)
		log.Printf("[CONNECT] socket=%s total=%d", connID,
			(*socketio_types.SocketServer)(sio).ConnectionCount())

		// Join a session room with the shared code
		client.On(events.JoinSession, handlers.HandleJoinSession(coord, client))

		// Re-send the current participant list to this client only
		client.On(events.GetParticipants, handlers.HandleGetParticipants(coord, client))

		// Admin uploads a batch of photos
		client.On(events.UploadPhotos, handlers.HandleUploadPhotos(coord, client))

		// Randomized one-photo-per-participant assignment
		client.On(events.AssignPhotos, handlers.HandleAssignPhotos(coord, client))

		// Manual single assignment / unassignment
		client.On(events.AssignPhotoManually, handlers.HandleAssignPhotoManually(coord, client))
		client.On(events.UnassignPhoto, handlers.HandleUnassignPhoto(coord, client))

		// Admin removes a single photo
		client.On(events.RemovePhoto, handlers.HandleRemovePhoto(coord, client))

		// Admin ends the session for everyone
		client.On(events.EndSession, handlers.HandleEndSession(coord, client))

		// A participant leaves voluntarily
		client.On(events.ParticipantLeft, handlers.HandleParticipantLeft(coord, client))

		// NOTE: will remove sio connection from map and the participant row
		client.On("disconnecting", handlers.HandleDisconnecting(coord, client,
			(*socketio_types.SocketServer)(sio)))
	})

	router.POST("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))

	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				sio.Sio_server.Close(nil)
				os.Exit(0)
			}
		}
	}()

	log.Println("Socket server started")
}
