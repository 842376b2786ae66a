package models

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "INFO"
	NotificationTypeWarning NotificationType = "WARNING"
	NotificationTypeAlert   NotificationType = "ALERT"
)

// Notification is an admin broadcast message targeted at a role channel
// (or ALL).
type Notification struct {
	RoleTarget string `json:"roleTarget"`

	Title   string           `json:"title"`
	Message string           `json:"message"`
	Type    NotificationType `json:"type"`

	CreationDateTime time.Time `json:"creationDateTime"`
}

func (n Notification) MarshalBinary() ([]byte, error) {
	return json.Marshal(n)
}
