package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velamart/velamart-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to a recipient.
// RelatedObjectType/ID optionally point at the order or product the
// notification is about.
type Notification struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	RecipientID       uuid.UUID              `gorm:"column:recipient_id;type:uuid;not null;index:idx_notifications_recipient_id"`
	Type              enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title             string                 `gorm:"column:title;type:text;not null"`
	Message           string                 `gorm:"column:message;type:text;not null"`
	RelatedObjectType *string                `gorm:"column:related_object_type;type:text"`
	RelatedObjectID   *uuid.UUID             `gorm:"column:related_object_id;type:uuid"`
	IsRead            bool                   `gorm:"column:is_read;not null;default:false"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
