package models

import "time"

// LiveLocation is the latest known position snapshot for a shuttle.
// At most one record exists per shuttle - every ingested report
// overwrites the previous one. Records left untouched for 24 hours are
// expired by a TTL index on lastupdated rather than by application code.
type LiveLocation struct {
	ShuttleID string
	DriverID  string

	Location Location

	LastUpdated time.Time
}
