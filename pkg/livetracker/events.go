package livetracker

import "encoding/json"

// Client -> server events
const (
	EventJoinChannel     = "join-channel"
	EventJoinDashboard   = "join-dashboard"
	EventJoinTrip        = "join-trip"
	EventDriverLocation  = "driver-location"
	EventShuttleLocation = "shuttle-location"
)

// Server -> client events
const (
	EventFleetUpdate    = "fleet-update"
	EventLocationUpdate = "location-update"
	EventNotification   = "notification"
)

// Envelope is the wire framing for client events: an event name plus an
// event-specific payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutboundEvent is a server push. Data is marshalled when the frame is
// written to the connection.
type OutboundEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// JoinChannelPayload carries the optional role and user id of a
// join-channel event. Both may be supplied together; supplying neither
// makes the join a no-op.
type JoinChannelPayload struct {
	Role   string `json:"role,omitempty"`
	UserID string `json:"userId,omitempty"`
}

// LocationReport is a raw position report from a driver connection.
// ShuttleID may be absent when the reporting context only knows the
// driver - the engine resolves one from the other.
type LocationReport struct {
	ShuttleID string `json:"shuttleId,omitempty"`
	TripID    string `json:"tripId,omitempty"`
	DriverID  string `json:"driverId,omitempty"`

	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Heading float64 `json:"heading"`
	Speed   float64 `json:"speed"`
}
