package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/velamart/velamart-backend/pkg/db/models"
	"github.com/velamart/velamart-backend/pkg/enums"
)

// NotificationDTO is the transport shape for an in-app notification.
type NotificationDTO struct {
	ID                uuid.UUID              `json:"id"`
	RecipientID       uuid.UUID              `json:"recipient_id"`
	Type              enums.NotificationType `json:"type"`
	Title             string                 `json:"title"`
	Message           string                 `json:"message"`
	RelatedObjectType *string                `json:"related_object_type,omitempty"`
	RelatedObjectID   *uuid.UUID             `json:"related_object_id,omitempty"`
	IsRead            bool                   `json:"is_read"`
	CreatedAt         time.Time              `json:"created_at"`
}

// SystemNotificationInput is an admin broadcast to a single recipient.
type SystemNotificationInput struct {
	RecipientID uuid.UUID `json:"recipient_id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Message     string    `json:"message" validate:"required"`
}

// ListNotificationsInput filters and pages a recipient's notifications.
type ListNotificationsInput struct {
	UnreadOnly bool
	Limit      int
	Cursor     string
}

// NotificationListResult is a cursor page of notifications.
type NotificationListResult struct {
	Items      []NotificationDTO `json:"items"`
	NextCursor *string           `json:"next_cursor,omitempty"`
}

func FromModel(n *models.Notification) *NotificationDTO {
	if n == nil {
		return nil
	}
	return &NotificationDTO{
		ID:                n.ID,
		RecipientID:       n.RecipientID,
		Type:              n.Type,
		Title:             n.Title,
		Message:           n.Message,
		RelatedObjectType: n.RelatedObjectType,
		RelatedObjectID:   n.RelatedObjectID,
		IsRead:            n.IsRead,
		CreatedAt:         n.CreatedAt,
	}
}
