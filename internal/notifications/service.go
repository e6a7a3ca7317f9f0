package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/velamart/velamart-backend/pkg/access"
	"github.com/velamart/velamart-backend/pkg/db/models"
	"github.com/velamart/velamart-backend/pkg/enums"
	pkgerrors "github.com/velamart/velamart-backend/pkg/errors"
	"github.com/velamart/velamart-backend/pkg/logger"
	"github.com/velamart/velamart-backend/pkg/pagination"
	"github.com/velamart/velamart-backend/pkg/redis"
)

// Service exposes a recipient's own notification feed. There is no
// cross-recipient surface: every operation is scoped to the actor.
type Service interface {
	List(ctx context.Context, actor access.Actor, input ListNotificationsInput) (*NotificationListResult, error)
	UnreadCount(ctx context.Context, actor access.Actor) (int64, error)
	MarkRead(ctx context.Context, actor access.Actor, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, actor access.Actor) (int64, error)
	CreateSystemNotification(ctx context.Context, actor access.Actor, input SystemNotificationInput) (*NotificationDTO, error)
}

type service struct {
	repo  *Repository
	cache *listingCache
	logg  *logger.Logger
}

// NewService constructs the notification feed service. The redis client is
// optional; without it every read goes to the database.
func NewService(repo *Repository, redisClient *redis.Client, cacheTTL time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	return &service{
		repo:  repo,
		cache: newListingCache(redisClient, cacheTTL, logg),
		logg:  logg,
	}, nil
}

// List returns the actor's notifications, newest first. The default unread
// first page is served from redis when warm.
func (s *service) List(ctx context.Context, actor access.Actor, input ListNotificationsInput) (*NotificationListResult, error) {
	cacheable := input.UnreadOnly && input.Cursor == "" && pagination.NormalizeLimit(input.Limit) == pagination.DefaultLimit
	if cacheable {
		if cached, ok := s.cache.get(ctx, actor.UserID); ok {
			return cached, nil
		}
	}

	rows, err := s.repo.ListByRecipient(ctx, actor.UserID, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list notifications")
	}

	limit := pagination.NormalizeLimit(input.Limit)
	result := &NotificationListResult{Items: make([]NotificationDTO, 0, len(rows))}
	for i := range rows {
		if i == limit {
			break
		}
		result.Items = append(result.Items, *FromModel(&rows[i]))
	}
	if len(rows) > limit {
		last := result.Items[len(result.Items)-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &cursor
	}

	if cacheable {
		s.cache.put(ctx, actor.UserID, result)
	}
	return result, nil
}

func (s *service) UnreadCount(ctx context.Context, actor access.Actor) (int64, error) {
	count, err := s.repo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count unread notifications")
	}
	return count, nil
}

// MarkRead flips one of the actor's notifications. Rows belonging to someone
// else surface as not-found.
func (s *service) MarkRead(ctx context.Context, actor access.Actor, notificationID uuid.UUID) error {
	affected, err := s.repo.MarkRead(ctx, actor.UserID, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark notification read")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	s.cache.invalidate(ctx, actor.UserID)
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, actor access.Actor) (int64, error) {
	affected, err := s.repo.MarkAllRead(ctx, actor.UserID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark all notifications read")
	}
	s.cache.invalidate(ctx, actor.UserID)
	return affected, nil
}

// CreateSystemNotification writes an admin broadcast directly to one
// recipient's feed.
func (s *service) CreateSystemNotification(ctx context.Context, actor access.Actor, input SystemNotificationInput) (*NotificationDTO, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if input.RecipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient_id is required")
	}
	title := strings.TrimSpace(input.Title)
	message := strings.TrimSpace(input.Message)
	if title == "" || message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title and message are required")
	}

	notification := &models.Notification{
		RecipientID: input.RecipientID,
		Type:        enums.NotificationTypeSystem,
		Title:       title,
		Message:     message,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create system notification")
	}
	s.cache.invalidate(ctx, input.RecipientID)
	return FromModel(notification), nil
}
