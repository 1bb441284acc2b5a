package coordinator

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"PhotoReveal/config"
	"PhotoReveal/models/postgres"
	"PhotoReveal/services/store"
	"PhotoReveal/services/store/storetest"
	"PhotoReveal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id string

	mu     sync.Mutex
	events []emitted
}

type emitted struct {
	event   string
	payload interface{}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Emit(event string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, emitted{event: event, payload: payload})
	return nil
}

func (c *fakeConn) received(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.event == event {
			n++
		}
	}
	return n
}

func (c *fakeConn) lastPayload(event string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].event == event {
			return c.events[i].payload
		}
	}
	return nil
}

func newTestCoordinator(mem *storetest.MemStore) *Coordinator {
	return New(mem, nil, &config.Settings{
		MaxParticipants: 50,
		SessionExpiry:   24 * time.Hour,
		CodeLength:      6,
	}, nil)
}

func createSession(t *testing.T, coord *Coordinator, name string) *postgres.Session {
	t.Helper()
	session, err := coord.Registry().CreateSession(name)
	require.NoError(t, err)
	return session
}

func TestJoinSessionBroadcastsAndUnicasts(t *testing.T) {
	mem := storetest.New()
	coord := newTestCoordinator(mem)
	session := createSession(t, coord, "Reveal night")

	admin := &fakeConn{id: "conn-admin"}
	require.NoError(t, coord.JoinSession(session.Code, "Host", true, admin))

	alice := &fakeConn{id: "conn-alice"}
	require.NoError(t, coord.JoinSession(session.Code, "Alice", false, alice))

	// session_joined and photos_updated go to the joiner only.
	assert.Equal(t, 1, alice.received("session_joined"))
	assert.Equal(t, 0, admin.received("session_joined"))
	joined, ok := alice.lastPayload("session_joined").(*postgres.Session)
	require.True(t, ok)
	assert.Equal(t, session.Code, joined.Code)

	// Everyone in the room sees the refreshed participant list.
	require.Eventually(t, func() bool {
		return admin.received("participants_updated") >= 1 && alice.received("participants_updated") >= 1
	}, time.Second, 5*time.Millisecond)
	participants, ok := admin.lastPayload("participants_updated").([]postgres.Participant)
	require.True(t, ok)
	require.Len(t, participants, 1)
	assert.Equal(t, "Alice", participants[0].Name)
}

func TestJoinSessionRejectsUnknownAndEndedCodes(t *testing.T) {
	mem := storetest.New()
	coord := newTestCoordinator(mem)

	err := coord.JoinSession("AB12CD", "Alice", false, &fakeConn{id: "conn-1"})
	assert.ErrorIs(t, err, utils.ErrSessionNotFound)

	err = coord.JoinSession("", "Alice", false, &fakeConn{id: "conn-1"})
	assert.ErrorIs(t, err, utils.ErrValidation)

	err = coord.JoinSession("AB12CD", "", false, &fakeConn{id: "conn-1"})
	assert.ErrorIs(t, err, utils.ErrValidation)

	// A swept (inactive) session refuses joins even though its row remains.
	session := createSession(t, coord, "Expired")
	mem.Sessions[session.ID].Active = false
	err = coord.JoinSession(session.Code, "Alice", false, &fakeConn{id: "conn-2"})
	assert.ErrorIs(t, err, utils.ErrSessionEnded)
}

func TestUploadPhotosFiltersInvalidEntries(t *testing.T) {
	mem := storetest.New()
	coord := newTestCoordinator(mem)
	session := createSession(t, coord, "Reveal night")

	alice := &fakeConn{id: "conn-alice"}
	require.NoError(t, coord.JoinSession(session.Code, "Alice", false, alice))

	err := coord.UploadPhotos(session.Code, []store.NewPhoto{
		{URL: "data:image/jpeg;base64,aaa", Title: "First"},
		{URL: ""},
		{URL: "data:image/jpeg;base64,bbb"},
	})
	require.NoError(t, err)

	photos, err := mem.ListPhotos(session.ID)
	require.NoError(t, err)
	assert.Len(t, photos, 2)

	require.Eventually(t, func() bool {
		return alice.received("photos_updated") >= 2 // join unicast plus broadcast
	}, time.Second, 5*time.Millisecond)

	err = coord.UploadPhotos(session.Code, []store.NewPhoto{{URL: ""}})
	assert.ErrorIs(t, err, utils.ErrValidation)
	err = coord.UploadPhotos(session.Code, nil)
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestAssignPhotosBroadcastsBothViews(t *testing.T) {
	mem := storetest.New()
	coord := newTestCoordinator(mem)
	session := createSession(t, coord, "Reveal night")

	alice := &fakeConn{id: "conn-alice"}
	bob := &fakeConn{id: "conn-bob"}
	require.NoError(t, coord.JoinSession(session.Code, "Alice", false, alice))
	require.NoError(t, coord.JoinSession(session.Code, "Bob", false, bob))
	require.NoError(t, coord.UploadPhotos(session.Code, []store.NewPhoto{
		{URL: "data:image/jpeg;base64,aaa"},
		{URL: "data:image/jpeg;base64,bbb"},
	}))

	before := alice.received("participants_updated")
	require.NoError(t, coord.AssignPhotos(session.Code))

	require.Eventually(t, func() bool {
		return alice.received("participants_updated") > before
	}, time.Second, 5*time.Millisecond)

	participants, ok := alice.lastPayload("participants_updated").([]postgres.Participant)
	require.True(t, ok)
	for _, p := range participants {
		assert.NotNil(t, p.PhotoAssigned, "participant %s left unassigned", p.Name)
	}
}

func TestManualAssignmentRoundTrip(t *testing.T) {
	mem := storetest.New()
	coord := newTestCoordinator(mem)
	session := createSession(t, coord, "Reveal night")

	alice := &fakeConn{id: "conn-alice"}
	require.NoError(t, coord.JoinSession(session.Code, "Alice", false, alice))
	require.NoError(t, coord.UploadPhotos(session.Code, []store.NewPhoto{
		{URL: "data:image/jpeg;base64,aaa"},
	}))

	participants, err := mem.ListParticipants(session.ID)
	require.NoError(t, err)
	photos, err := mem.ListPhotos(session.ID)
	require.NoError(t, err)

	require.NoError(t, coord.AssignPhotoManually(session.ID, participants[0].ID, photos[0].ID))
	p, err := mem.GetParticipant(participants[0].ID)
	require.NoError(t, err)
	require.NotNil(t, p.PhotoAssigned)
	assert.Equal(t, photos[0].ID, *p.PhotoAssigned)

	require.NoError(t, coord.UnassignPhoto(session.ID, participants[0].ID))
	p, err = mem.GetParticipant(participants[0].ID)
	require.NoError(t, err)
	assert.Nil(t, p.PhotoAssigned)

	err = coord.AssignPhotoManually("missing", participants[0].ID, photos[0].ID)
	assert.ErrorIs(t, err, utils.ErrSessionNotFound)
	err = coord.AssignPhotoManually(session.ID, "", photos[0].ID)
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestRemovePhotoCascadesUnassignment(t *testing.T) {
	mem := storetest.New()
	coord := newTestCoordinator(mem)
	session := createSession(t, coord, "Reveal night")

	alice := &fakeConn{id: "conn-alice"}
	require.NoError(t, coord.JoinSession(session.Code, "Alice", false, alice))
	require.NoError(t, coord.UploadPhotos(session.Code, []store.NewPhoto{
		{URL: "data:image/jpeg;base64,aaa"},
	}))
	require.NoError(t, coord.AssignPhotos(session.Code))

	photos, err := mem.ListPhotos(session.ID)
	require.NoError(t, err)
	require.NoError(t, coord.RemovePhoto(session.Code, photos[0].ID))

	remaining, err := mem.ListPhotos(session.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	participants, err := mem.ListParticipants(session.ID)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Nil(t, participants[0].PhotoAssigned)

	err = coord.RemovePhoto(session.Code, photos[0].ID)
	assert.ErrorIs(t, err, utils.ErrPhotoNotFound)
}

func TestEndSessionTearsDownAndFreesCode(t *testing.T) {
	mem := storetest.New()
	coord := newTestCoordinator(mem)
	session := createSession(t, coord, "Reveal night")

	alice := &fakeConn{id: "conn-alice"}
	require.NoError(t, coord.JoinSession(session.Code, "Alice", false, alice))
	require.NoError(t, coord.UploadPhotos(session.Code, []store.NewPhoto{
		{URL: "data:image/jpeg;base64,aaa"},
	}))

	require.NoError(t, coord.EndSession(session.Code))

	require.Eventually(t, func() bool {
		return alice.received("session_ended") == 1
	}, time.Second, 5*time.Millisecond)

	_, err := coord.Registry().GetSessionByCode(session.Code)
	assert.ErrorIs(t, err, utils.ErrSessionNotFound)
	participants, _ := mem.ListParticipants(session.ID)
	photos, _ := mem.ListPhotos(session.ID)
	assert.Empty(t, participants)
	assert.Empty(t, photos)

	// Ending twice is a no-op, and the room is gone.
	require.NoError(t, coord.EndSession(session.Code))
	assert.Empty(t, coord.Rooms().Members(session.Code))
}

func TestDisconnectRemovesParticipantAndNotifiesRoom(t *testing.T) {
	mem := storetest.New()
	coord := newTestCoordinator(mem)
	session := createSession(t, coord, "Reveal night")

	alice := &fakeConn{id: "conn-alice"}
	bob := &fakeConn{id: "conn-bob"}
	require.NoError(t, coord.JoinSession(session.Code, "Alice", false, alice))
	require.NoError(t, coord.JoinSession(session.Code, "Bob", false, bob))

	require.NoError(t, coord.Disconnect("conn-alice"))

	require.Eventually(t, func() bool {
		participants, ok := bob.lastPayload("participants_updated").([]postgres.Participant)
		return ok && len(participants) == 1 && participants[0].Name == "Bob"
	}, time.Second, 5*time.Millisecond)

	// A reconnect under the same name starts from a fresh row.
	participants, err := mem.ListParticipants(session.ID)
	require.NoError(t, err)
	require.Len(t, participants, 1)

	// Admin (or otherwise unknown) connections disconnect silently.
	require.NoError(t, coord.Disconnect("conn-ghost"))
}

func TestParticipantLeftBroadcastsRefreshedList(t *testing.T) {
	mem := storetest.New()
	coord := newTestCoordinator(mem)
	session := createSession(t, coord, "Reveal night")

	alice := &fakeConn{id: "conn-alice"}
	bob := &fakeConn{id: "conn-bob"}
	require.NoError(t, coord.JoinSession(session.Code, "Alice", false, alice))
	require.NoError(t, coord.JoinSession(session.Code, "Bob", false, bob))

	participants, err := mem.ListParticipants(session.ID)
	require.NoError(t, err)
	var aliceID string
	for _, p := range participants {
		if p.Name == "Alice" {
			aliceID = p.ID
		}
	}
	require.NotEmpty(t, aliceID)

	require.NoError(t, coord.ParticipantLeft(session.Code, aliceID))

	require.Eventually(t, func() bool {
		got, ok := bob.lastPayload("participants_updated").([]postgres.Participant)
		return ok && len(got) == 1 && got[0].Name == "Bob"
	}, time.Second, 5*time.Millisecond)

	err = coord.ParticipantLeft(session.Code, aliceID)
	assert.ErrorIs(t, err, utils.ErrParticipantNotFound)
}

func TestSequentialMutationsObservedInCommitOrder(t *testing.T) {
	mem := storetest.New()
	coord := newTestCoordinator(mem)
	session := createSession(t, coord, "Reveal night")

	admin := &fakeConn{id: "conn-admin"}
	require.NoError(t, coord.JoinSession(session.Code, "Host", true, admin))
	for i, name := range []string{"Alice", "Bob", "Carol"} {
		conn := &fakeConn{id: fmt.Sprintf("conn-%d", i)}
		require.NoError(t, coord.JoinSession(session.Code, name, false, conn))
	}

	participants, err := mem.ListParticipants(session.ID)
	require.NoError(t, err)
	ids := make(map[string]string, len(participants))
	for _, p := range participants {
		ids[p.Name] = p.ID
	}

	require.NoError(t, coord.ParticipantLeft(session.Code, ids["Alice"]))
	require.NoError(t, coord.ParticipantLeft(session.Code, ids["Bob"]))

	// One list per mutation: four joins and two departures. Once all six
	// have drained, the last one observed must be the last one committed.
	require.Eventually(t, func() bool {
		return admin.received("participants_updated") == 6
	}, time.Second, 5*time.Millisecond)

	final, ok := admin.lastPayload("participants_updated").([]postgres.Participant)
	require.True(t, ok)
	require.Len(t, final, 1)
	assert.Equal(t, "Carol", final[0].Name)
}

func TestDisconnectRunsInsideSessionSection(t *testing.T) {
	mem := storetest.New()
	coord := newTestCoordinator(mem)
	session := createSession(t, coord, "Reveal night")

	alice := &fakeConn{id: "conn-alice"}
	require.NoError(t, coord.JoinSession(session.Code, "Alice", false, alice))

	lock := coord.sessionLock(session.Code)
	lock.Lock()

	done := make(chan error, 1)
	go func() { done <- coord.Disconnect("conn-alice") }()

	// While another mutation holds the session's section, the disconnect
	// must not have removed the row yet.
	assert.Never(t, func() bool {
		participants, _ := mem.ListParticipants(session.ID)
		return len(participants) == 0
	}, 100*time.Millisecond, 10*time.Millisecond)

	lock.Unlock()
	require.NoError(t, <-done)

	participants, err := mem.ListParticipants(session.ID)
	require.NoError(t, err)
	assert.Empty(t, participants)
}

func TestSessionLockSurvivesEndSession(t *testing.T) {
	mem := storetest.New()
	coord := newTestCoordinator(mem)
	session := createSession(t, coord, "Reveal night")

	before := coord.sessionLock(session.Code)
	require.NoError(t, coord.EndSession(session.Code))

	// A waiter blocked across the teardown and the next event for the
	// reused code must serialize on the same mutex.
	assert.Same(t, before, coord.sessionLock(session.Code))
}

func TestEndSessionUnderJoinContention(t *testing.T) {
	mem := storetest.New()
	coord := newTestCoordinator(mem)
	session := createSession(t, coord, "Reveal night")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				coord.EndSession(session.Code)
			} else {
				coord.JoinSession(session.Code, fmt.Sprintf("guest-%d", i), false,
					&fakeConn{id: fmt.Sprintf("conn-%d", i)})
			}
		}(i)
	}
	wg.Wait()

	// Whatever interleaving ran, a final end leaves nothing behind.
	require.NoError(t, coord.EndSession(session.Code))
	_, err := coord.Registry().GetSessionByCode(session.Code)
	assert.ErrorIs(t, err, utils.ErrSessionNotFound)
	participants, _ := mem.ListParticipants(session.ID)
	assert.Empty(t, participants)
}

func TestGetParticipantsUnicastsList(t *testing.T) {
	mem := storetest.New()
	coord := newTestCoordinator(mem)
	session := createSession(t, coord, "Reveal night")

	alice := &fakeConn{id: "conn-alice"}
	require.NoError(t, coord.JoinSession(session.Code, "Alice", false, alice))

	watcher := &fakeConn{id: "conn-watch"}
	require.NoError(t, coord.GetParticipants(session.Code, watcher))
	participants, ok := watcher.lastPayload("participants_updated").([]postgres.Participant)
	require.True(t, ok)
	require.Len(t, participants, 1)
	assert.Equal(t, "Alice", participants[0].Name)

	// Unknown codes are silently ignored on this event.
	require.NoError(t, coord.GetParticipants("ZZ99ZZ", watcher))
	assert.Equal(t, 1, watcher.received("participants_updated"))
}
