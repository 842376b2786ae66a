package models

import "time"

type ShuttleStatus string

const (
	ShuttleStatusAvailable   ShuttleStatus = "AVAILABLE"
	ShuttleStatusOnTrip      ShuttleStatus = "ON_TRIP"
	ShuttleStatusOffDuty     ShuttleStatus = "OFF_DUTY"
	ShuttleStatusMaintenance ShuttleStatus = "MAINTENANCE"
)

// Shuttle is a duty assignment binding a vehicle and a driver, distinct
// from the Vehicle record itself and from any Trip currently running on it.
type Shuttle struct {
	PrimaryIdentifier string

	VehicleID string
	DriverID  string
	RouteID   string

	Status ShuttleStatus

	LastPing time.Time
}
