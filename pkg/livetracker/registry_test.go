package livetracker

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryJoinIdempotent(t *testing.T) {
	registry := NewRegistry()

	registry.Join("conn-1", ChannelAdminDashboard)
	registry.Join("conn-1", ChannelAdminDashboard)

	members := registry.MembersOf(ChannelAdminDashboard)
	assert.Equal(t, []ConnectionID{"conn-1"}, members)
	assert.Equal(t, []Channel{ChannelAdminDashboard}, registry.ChannelsOf("conn-1"))
}

func TestRegistryLeaveIsNoOpWhenAbsent(t *testing.T) {
	registry := NewRegistry()

	registry.Leave("conn-1", ChannelAll)

	registry.Join("conn-1", ChannelAll)
	registry.Leave("conn-1", ChannelRoleDriver)

	assert.Len(t, registry.MembersOf(ChannelAll), 1)
}

func TestRegistryLeaveRemovesBothDirections(t *testing.T) {
	registry := NewRegistry()

	registry.Join("conn-1", ChannelAll)
	registry.Join("conn-1", ChannelRoleDriver)
	registry.Leave("conn-1", ChannelRoleDriver)

	assert.Empty(t, registry.MembersOf(ChannelRoleDriver))
	assert.Equal(t, []Channel{ChannelAll}, registry.ChannelsOf("conn-1"))
}

func TestRegistryRemoveConnectionLeavesNoMemberships(t *testing.T) {
	registry := NewRegistry()

	registry.Join("conn-1", ChannelAll)
	registry.Join("conn-1", ChannelRolePassenger)
	registry.Join("conn-1", TripChannel("trip-9"))
	registry.Join("conn-2", ChannelAll)

	registry.RemoveConnection("conn-1")

	assert.Empty(t, registry.ChannelsOf("conn-1"))
	assert.Empty(t, registry.MembersOf(ChannelRolePassenger))
	assert.Empty(t, registry.MembersOf(TripChannel("trip-9")))
	assert.Equal(t, []ConnectionID{"conn-2"}, registry.MembersOf(ChannelAll))
}

func TestRegistryRemoveConnectionNeverJoined(t *testing.T) {
	registry := NewRegistry()

	registry.RemoveConnection("conn-ghost")

	connections, channels := registry.Stats()
	assert.Zero(t, connections)
	assert.Zero(t, channels)
}

func TestRegistryMembersOfUnknownChannel(t *testing.T) {
	registry := NewRegistry()

	assert.Empty(t, registry.MembersOf(Channel("never-created")))
}

func TestRegistryMembersOfSnapshotIsStable(t *testing.T) {
	registry := NewRegistry()

	registry.Join("conn-1", ChannelAdminDashboard)
	registry.Join("conn-2", ChannelAdminDashboard)

	snapshot := registry.MembersOf(ChannelAdminDashboard)

	registry.RemoveConnection("conn-1")
	registry.RemoveConnection("conn-2")

	// the snapshot taken before the removals is untouched
	assert.Len(t, snapshot, 2)
	assert.Empty(t, registry.MembersOf(ChannelAdminDashboard))
}

func TestRegistryConcurrentMutation(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		id := ConnectionID(fmt.Sprintf("conn-%d", i))

		wg.Add(1)
		go func() {
			defer wg.Done()

			registry.Join(id, ChannelAll)
			registry.Join(id, ChannelAdminDashboard)
			registry.MembersOf(ChannelAdminDashboard)
			registry.Leave(id, ChannelAll)
			registry.RemoveConnection(id)
		}()
	}
	wg.Wait()

	connections, channels := registry.Stats()
	assert.Zero(t, connections)
	assert.Zero(t, channels)
}
