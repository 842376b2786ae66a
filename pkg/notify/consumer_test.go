package notify

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/adjust/rmq/v5"
	"github.com/shuttletrack/shuttletrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu        sync.Mutex
	broadcast []models.Notification
}

func (b *recordingBroadcaster) BroadcastNotification(roleTarget string, notification models.Notification) {
	b.mu.Lock()
	b.broadcast = append(b.broadcast, notification)
	b.mu.Unlock()
}

func TestConsumeBroadcastsNotifications(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	consumer := NewBatchConsumer(0, broadcaster)

	payload, err := json.Marshal(models.Notification{
		RoleTarget: "DRIVER",
		Title:      "Depot closed",
		Message:    "Use the north entrance",
		Type:       models.NotificationTypeWarning,
	})
	require.NoError(t, err)

	first := rmq.NewTestDeliveryString(string(payload))
	second := rmq.NewTestDeliveryString("not json")

	consumer.Consume(rmq.Deliveries{first, second})

	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()

	require.Len(t, broadcaster.broadcast, 1)
	assert.Equal(t, "Depot closed", broadcaster.broadcast[0].Title)
	assert.Equal(t, "DRIVER", broadcaster.broadcast[0].RoleTarget)

	// the whole batch is acked, malformed payloads included
	assert.Equal(t, rmq.Acked, first.State)
	assert.Equal(t, rmq.Acked, second.State)
}
