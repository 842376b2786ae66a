package notify

import (
	"encoding/json"
	"sync"

	"github.com/adjust/rmq/v5"
	"github.com/shuttletrack/shuttletrack/pkg/models"
	"github.com/shuttletrack/shuttletrack/pkg/redis_client"
)

var openQueueOnce sync.Once
var notificationQueue rmq.Queue
var openQueueErr error

// Publish enqueues a notification for the live tracker consumers.
func Publish(notification models.Notification) error {
	openQueueOnce.Do(func() {
		notificationQueue, openQueueErr = redis_client.QueueConnection.OpenQueue("notifications")
	})
	if openQueueErr != nil {
		return openQueueErr
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	return notificationQueue.PublishBytes(payload)
}
