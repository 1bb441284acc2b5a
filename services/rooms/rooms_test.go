package rooms

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id string

	mu       sync.Mutex
	events   []string
	payloads []interface{}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Emit(event string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	c.payloads = append(c.payloads, payload)
	return nil
}

func (c *fakeConn) received(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e == event {
			n++
		}
	}
	return n
}

func (c *fakeConn) receivedPayloads() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]interface{}, len(c.payloads))
	copy(out, c.payloads)
	return out
}

func TestBroadcastReachesOnlyRoomMembers(t *testing.T) {
	registry := NewRegistry(nil)

	a := &fakeConn{id: "conn-a"}
	b := &fakeConn{id: "conn-b"}
	other := &fakeConn{id: "conn-c"}

	registry.Join("AB12CD", a)
	registry.Join("AB12CD", b)
	registry.Join("ZZ99ZZ", other)

	registry.Broadcast("AB12CD", "participants_updated", nil)

	require.Eventually(t, func() bool {
		return a.received("participants_updated") == 1 && b.received("participants_updated") == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, other.received("participants_updated"))
}

func TestBroadcastDeliversToOneConnectionInOrder(t *testing.T) {
	registry := NewRegistry(nil)

	a := &fakeConn{id: "conn-a"}
	registry.Join("AB12CD", a)

	const n = 64
	for i := 0; i < n; i++ {
		registry.Broadcast("AB12CD", "participants_updated", i)
	}

	require.Eventually(t, func() bool {
		return a.received("participants_updated") == n
	}, time.Second, 5*time.Millisecond)

	// The connection must observe the broadcasts in commit order, so the
	// last payload it holds is the last state written.
	payloads := a.receivedPayloads()
	require.Len(t, payloads, n)
	for i := 0; i < n; i++ {
		require.Equal(t, i, payloads[i], "delivery %d out of order", i)
	}
	assert.Equal(t, n-1, payloads[n-1])
}

func TestLeaveStopsDelivery(t *testing.T) {
	registry := NewRegistry(nil)

	a := &fakeConn{id: "conn-a"}
	b := &fakeConn{id: "conn-b"}
	registry.Join("AB12CD", a)
	registry.Join("AB12CD", b)

	registry.Leave("AB12CD", "conn-a")
	registry.Broadcast("AB12CD", "photos_updated", nil)

	require.Eventually(t, func() bool {
		return b.received("photos_updated") == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, a.received("photos_updated"))
}

func TestDropConnRemovesFromAllRooms(t *testing.T) {
	registry := NewRegistry(nil)

	a := &fakeConn{id: "conn-a"}
	registry.Join("AB12CD", a)
	registry.Join("ZZ99ZZ", a)

	codes := registry.DropConn("conn-a")
	assert.ElementsMatch(t, []string{"AB12CD", "ZZ99ZZ"}, codes)
	assert.Empty(t, registry.Members("AB12CD"))
	assert.Empty(t, registry.Members("ZZ99ZZ"))
}

func TestCloseEmptiesRoom(t *testing.T) {
	registry := NewRegistry(nil)

	a := &fakeConn{id: "conn-a"}
	b := &fakeConn{id: "conn-b"}
	registry.Join("AB12CD", a)
	registry.Join("AB12CD", b)

	registry.Close("AB12CD")
	assert.Empty(t, registry.Members("AB12CD"))

	// Broadcasting to a closed room is a quiet no-op
	registry.Broadcast("AB12CD", "session_ended", nil)
	assert.Equal(t, 0, a.received("session_ended"))
}

func TestBroadcastToUnknownRoomIsNoop(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Broadcast("NOOOOO", "participants_updated", nil)
	assert.Empty(t, registry.Members("NOOOOO"))
}
