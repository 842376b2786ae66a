package livetracker

import "sync"

// ConnectionID identifies a single live connection for the lifetime of
// its transport session.
type ConnectionID string

// Registry tracks which connections are members of which channels. The
// two maps are kept mutually consistent under one lock so that a
// connection can be detached from everything it joined in a single
// step on disconnect.
type Registry struct {
	mu sync.RWMutex

	channelMembers     map[Channel]map[ConnectionID]struct{}
	connectionChannels map[ConnectionID]map[Channel]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		channelMembers:     map[Channel]map[ConnectionID]struct{}{},
		connectionChannels: map[ConnectionID]map[Channel]struct{}{},
	}
}

// Join adds the connection to the channel. Re-joining a channel the
// connection is already a member of changes nothing.
func (r *Registry) Join(id ConnectionID, channel Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channelMembers[channel] == nil {
		r.channelMembers[channel] = map[ConnectionID]struct{}{}
	}
	r.channelMembers[channel][id] = struct{}{}

	if r.connectionChannels[id] == nil {
		r.connectionChannels[id] = map[Channel]struct{}{}
	}
	r.connectionChannels[id][channel] = struct{}{}
}

// Leave removes the membership in both directions. Leaving a channel
// the connection never joined is a no-op.
func (r *Registry) Leave(id ConnectionID, channel Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeMembership(id, channel)
}

// RemoveConnection detaches the connection from every channel it joined
// in one atomic step. Safe to call for a connection that never joined
// anything.
func (r *Registry) RemoveConnection(id ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for channel := range r.connectionChannels[id] {
		r.removeMembership(id, channel)
	}
	delete(r.connectionChannels, id)
}

func (r *Registry) removeMembership(id ConnectionID, channel Channel) {
	if members := r.channelMembers[channel]; members != nil {
		delete(members, id)
		if len(members) == 0 {
			delete(r.channelMembers, channel)
		}
	}

	if channels := r.connectionChannels[id]; channels != nil {
		delete(channels, channel)
	}
}

// MembersOf returns a snapshot of the channel's member set. The caller
// can iterate it freely while the registry keeps mutating. An unknown
// channel yields an empty slice.
func (r *Registry) MembersOf(channel Channel) []ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]ConnectionID, 0, len(r.channelMembers[channel]))
	for id := range r.channelMembers[channel] {
		members = append(members, id)
	}

	return members
}

// ChannelsOf returns a snapshot of the channels the connection has
// joined.
func (r *Registry) ChannelsOf(id ConnectionID) []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]Channel, 0, len(r.connectionChannels[id]))
	for channel := range r.connectionChannels[id] {
		channels = append(channels, channel)
	}

	return channels
}

// Stats returns the current connection and channel counts.
func (r *Registry) Stats() (connections int, channels int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.connectionChannels), len(r.channelMembers)
}
