package models

import "time"

type TripStatus string

const (
	TripStatusActive    TripStatus = "active"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

type Trip struct {
	PrimaryIdentifier string

	Driver  string
	Shuttle string

	Status TripStatus

	StartTime time.Time
	EndTime   time.Time
}
