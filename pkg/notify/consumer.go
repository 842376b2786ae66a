package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/shuttletrack/shuttletrack/pkg/models"
	"github.com/shuttletrack/shuttletrack/pkg/redis_client"
	"github.com/sourcegraph/conc"
)

const numConsumers = 2
const batchSize = 20

// Broadcaster pushes a notification to the live connections of a target
// role. Implemented by the live tracker engine.
type Broadcaster interface {
	BroadcastNotification(roleTarget string, notification models.Notification)
}

func StartConsumers(broadcaster Broadcaster) {
	// Run the background consumers
	log.Info().Msg("Starting notification consumers")

	queue, err := redis_client.QueueConnection.OpenQueue("notifications")
	if err != nil {
		panic(err)
	}
	if err := queue.StartConsuming(numConsumers*batchSize, 1*time.Second); err != nil {
		panic(err)
	}

	for i := 0; i < numConsumers; i++ {
		go startNotificationConsumer(queue, i, broadcaster)
	}
}

func startNotificationConsumer(queue rmq.Queue, id int, broadcaster Broadcaster) {
	log.Info().Msgf("Starting notification consumer %d", id)

	if _, err := queue.AddBatchConsumer(fmt.Sprintf("notification-queue-%d", id), batchSize, 2*time.Second, NewBatchConsumer(id, broadcaster)); err != nil {
		panic(err)
	}
}

type BatchConsumer struct {
	id          int
	broadcaster Broadcaster
}

func NewBatchConsumer(id int, broadcaster Broadcaster) *BatchConsumer {
	return &BatchConsumer{id: id, broadcaster: broadcaster}
}

func (consumer *BatchConsumer) Consume(batch rmq.Deliveries) {
	payloads := batch.Payloads()

	var processingGroup conc.WaitGroup

	for _, payload := range payloads {
		payload := payload

		processingGroup.Go(func() {
			var notification models.Notification
			if err := json.Unmarshal([]byte(payload), &notification); err != nil {
				log.Error().Err(err).Msg("Failed to decode notification")
				return
			}

			consumer.broadcaster.BroadcastNotification(notification.RoleTarget, notification)
		})
	}

	processingGroup.Wait()

	if ackErrors := batch.Ack(); len(ackErrors) > 0 {
		for _, err := range ackErrors {
			log.Error().Err(err).Msg("Failed to consume notification")
		}
	}
}
