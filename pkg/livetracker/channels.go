package livetracker

// Channel is a named broadcast group that connections join to receive a
// class of events. The identifier space covers the fixed broadcast
// channels, role channels, per-user channels and per-trip channels.
type Channel string

const (
	ChannelAll            Channel = "ALL"
	ChannelAdminDashboard Channel = "admin-dashboard"

	ChannelRoleDriver    Channel = "DRIVER"
	ChannelRolePassenger Channel = "PASSENGER"
	ChannelRoleAdmin     Channel = "ADMIN"
)

// RoleChannel maps a client-supplied role name onto its channel. Role
// names arrive verbatim from the client, same as the rooms in the
// source platform.
func RoleChannel(role string) Channel {
	return Channel(role)
}

// UserChannel is the personal channel for direct messages to a user.
func UserChannel(userID string) Channel {
	return Channel("user/" + userID)
}

// TripChannel is the scoped channel passengers join to track one trip.
func TripChannel(tripID string) Channel {
	return Channel("trip/" + tripID)
}
