package livetracker

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shuttletrack/shuttletrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHarness struct {
	registry    *Registry
	store       *memoryPositionStore
	connections *ConnectionTable
	server      *httptest.Server
}

func newTestHarness(t *testing.T, resolver ShuttleResolver) *testHarness {
	t.Helper()

	registry := NewRegistry()
	store := newMemoryPositionStore()
	connections := NewConnectionTable()

	if resolver == nil {
		resolver = &staticResolver{assignments: map[string]Assignment{}}
	}

	engine := NewEngine(registry, store, resolver, connections)
	socketServer := NewServer(registry, engine, store, connections)

	httpServer := httptest.NewServer(socketServer)
	t.Cleanup(httpServer.Close)

	return &testHarness{
		registry:    registry,
		store:       store,
		connections: connections,
		server:      httpServer,
	}
}

func (h *testHarness) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(h.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()

	var raw json.RawMessage
	if data != nil {
		marshalled, err := json.Marshal(data)
		require.NoError(t, err)
		raw = marshalled
	}

	require.NoError(t, conn.WriteJSON(Envelope{Event: event, Data: raw}))
}

func readEvent(t *testing.T, conn *websocket.Conn) (string, models.FleetUpdate) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var frame struct {
		Event string             `json:"event"`
		Data  models.FleetUpdate `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))

	return frame.Event, frame.Data
}

// waitFor polls until the condition holds, since joins are processed
// asynchronously from the websocket write.
func waitFor(t *testing.T, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatal("condition never became true")
}

func TestServerJoinChannelMemberships(t *testing.T) {
	harness := newTestHarness(t, nil)

	conn := harness.dial(t)
	sendEvent(t, conn, EventJoinChannel, JoinChannelPayload{Role: "DRIVER", UserID: "user-1"})

	waitFor(t, func() bool {
		return len(harness.registry.MembersOf(ChannelRoleDriver)) == 1
	})

	assert.Len(t, harness.registry.MembersOf(ChannelAll), 1)
	assert.Len(t, harness.registry.MembersOf(UserChannel("user-1")), 1)
}

func TestServerEmptyJoinChannelIsNoOp(t *testing.T) {
	harness := newTestHarness(t, nil)

	conn := harness.dial(t)
	sendEvent(t, conn, EventJoinChannel, JoinChannelPayload{})

	waitFor(t, func() bool {
		return harness.connections.Count() == 1
	})

	// give the join a moment to land if it were going to
	time.Sleep(50 * time.Millisecond)

	connections, channels := harness.registry.Stats()
	assert.Zero(t, connections)
	assert.Zero(t, channels)
}

func TestServerDriverLocationReachesDashboard(t *testing.T) {
	harness := newTestHarness(t, nil)

	dashboard := harness.dial(t)
	sendEvent(t, dashboard, EventJoinDashboard, nil)

	waitFor(t, func() bool {
		return len(harness.registry.MembersOf(ChannelAdminDashboard)) == 1
	})

	driver := harness.dial(t)
	sendEvent(t, driver, EventDriverLocation, LocationReport{
		ShuttleID: "S1",
		DriverID:  "D1",
		Lat:       10,
		Lng:       20,
		Heading:   90,
		Speed:     40,
	})

	event, update := readEvent(t, dashboard)
	assert.Equal(t, EventFleetUpdate, event)
	assert.Equal(t, "S1", update.ShuttleID)
	assert.Equal(t, "D1", update.DriverID)
	assert.Equal(t, 10.0, update.Lat)
	assert.Equal(t, 20.0, update.Lng)

	waitFor(t, func() bool {
		snapshot, _ := harness.store.Latest(context.Background(), "S1")
		return snapshot != nil
	})
}

func TestServerTripSubscriberReceivesLocationUpdates(t *testing.T) {
	resolver := &staticResolver{assignments: map[string]Assignment{
		"D1": {ShuttleID: "S1", TripID: "trip-1"},
	}}
	harness := newTestHarness(t, resolver)

	passenger := harness.dial(t)
	sendEvent(t, passenger, EventJoinTrip, "trip-1")

	waitFor(t, func() bool {
		return len(harness.registry.MembersOf(TripChannel("trip-1"))) == 1
	})

	driver := harness.dial(t)
	sendEvent(t, driver, EventDriverLocation, LocationReport{DriverID: "D1", Lat: 5, Lng: 6})

	event, update := readEvent(t, passenger)
	assert.Equal(t, EventLocationUpdate, event)
	assert.Equal(t, "S1", update.ShuttleID)
	assert.Equal(t, 5.0, update.Lat)
}

func TestServerDashboardJoinReplaysSnapshot(t *testing.T) {
	harness := newTestHarness(t, nil)

	harness.store.Upsert(context.Background(), models.LiveLocation{
		ShuttleID:   "S1",
		DriverID:    "D1",
		Location:    models.Location{Lat: 1, Lng: 2},
		LastUpdated: time.Now(),
	})

	dashboard := harness.dial(t)
	sendEvent(t, dashboard, EventJoinDashboard, nil)

	event, update := readEvent(t, dashboard)
	assert.Equal(t, EventFleetUpdate, event)
	assert.Equal(t, "S1", update.ShuttleID)
	assert.Equal(t, 1.0, update.Lat)
}

func TestServerDisconnectCleansUp(t *testing.T) {
	harness := newTestHarness(t, nil)

	conn := harness.dial(t)
	sendEvent(t, conn, EventJoinDashboard, nil)

	waitFor(t, func() bool {
		return len(harness.registry.MembersOf(ChannelAdminDashboard)) == 1
	})

	conn.Close()

	waitFor(t, func() bool {
		return len(harness.registry.MembersOf(ChannelAdminDashboard)) == 0
	})
	waitFor(t, func() bool {
		return harness.connections.Count() == 0
	})
}

func TestServerMalformedFramesAreIgnored(t *testing.T) {
	harness := newTestHarness(t, nil)

	conn := harness.dial(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"driver-location","data":"not-an-object"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"join-trip","data":17}`)))

	// connection survives and can still join normally
	sendEvent(t, conn, EventJoinDashboard, nil)

	waitFor(t, func() bool {
		return len(harness.registry.MembersOf(ChannelAdminDashboard)) == 1
	})
}
