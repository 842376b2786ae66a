package models

import "time"

// FleetUpdate is the ephemeral payload pushed to subscribers for every
// ingested position report. It is never persisted itself - only the
// derived LiveLocation snapshot is.
type FleetUpdate struct {
	ShuttleID string `json:"shuttleId,omitempty"`
	DriverID  string `json:"driverId,omitempty"`

	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Heading float64 `json:"heading"`
	Speed   float64 `json:"speed"`

	Timestamp time.Time `json:"timestamp"`
}
