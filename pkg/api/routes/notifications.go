package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shuttletrack/shuttletrack/pkg/database"
	"github.com/shuttletrack/shuttletrack/pkg/models"
	"github.com/shuttletrack/shuttletrack/pkg/notify"
)

func NotificationsRouter(router fiber.Router) {
	router.Post("/broadcast", broadcastNotification)
}

type broadcastNotificationBody struct {
	Title      string `json:"title"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	TargetRole string `json:"targetRole"`
}

// broadcastNotification persists an admin notification and enqueues it
// for delivery to the targeted role's live connections.
func broadcastNotification(c *fiber.Ctx) error {
	var body broadcastNotificationBody
	if err := c.BodyParser(&body); err != nil || body.Title == "" || body.Message == "" {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "Notification requires a title and a message",
		})
	}

	notification := models.Notification{
		RoleTarget:       body.TargetRole,
		Title:            body.Title,
		Message:          body.Message,
		Type:             models.NotificationType(body.Type),
		CreationDateTime: time.Now(),
	}

	if notification.RoleTarget == "" {
		notification.RoleTarget = "ALL"
	}
	if notification.Type == "" {
		notification.Type = models.NotificationTypeInfo
	}

	notificationsCollection := database.GetCollection("notifications")
	if _, err := notificationsCollection.InsertOne(context.Background(), notification); err != nil {
		log.Error().Err(err).Msg("Failed to insert Notification")
	}

	if err := notify.Publish(notification); err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(notification)
}
