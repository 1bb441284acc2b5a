package socketio_types

import (
	"sync"

	"github.com/zishang520/socket.io/v2/socket"
)

// SocketServer is a struct that contains the socket.io server and a map of
// socket connections keyed by connection id. It is used to handle socket.io
// connections.
type SocketServer struct {
	Sio_server  *socket.Server
	Connections map[string]*socket.Socket
	mutex       sync.RWMutex
}

func NewSocketServer() *SocketServer {
	return &SocketServer{
		Connections: make(map[string]*socket.Socket),
	}
}

// Add methods to manage connections
func (s *SocketServer) AddConnection(connID string, client *socket.Socket) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Connections[connID] = client
}

func (s *SocketServer) RemoveConnection(connID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.Connections, connID)
}

func (s *SocketServer) GetConnection(connID string) (*socket.Socket, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	client, exists := s.Connections[connID]
	return client, exists
}

func (s *SocketServer) ConnectionCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.Connections)
}
