package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/velamart/velamart-backend/internal/notifications"
	"github.com/velamart/velamart-backend/pkg/config"
	"github.com/velamart/velamart-backend/pkg/db"
	"github.com/velamart/velamart-backend/pkg/db/models"
	"github.com/velamart/velamart-backend/pkg/enums"
	"github.com/velamart/velamart-backend/pkg/outbox"
	"github.com/velamart/velamart-backend/pkg/outbox/payloads"
)

type stubDispatcher struct {
	calls int
	fail  bool
}

func (d *stubDispatcher) Dispatch(context.Context, models.OutboxEvent) error {
	d.calls++
	if d.fail {
		return errors.New("downstream unavailable")
	}
	return nil
}

type workerEnv struct {
	client    *db.Client
	repo      *outbox.Repository
	outboxSvc *outbox.Service
}

func setupWorkerEnv(t *testing.T) *workerEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(&models.OutboxEvent{}, &models.Notification{}))

	repo := outbox.NewRepository(conn)
	return &workerEnv{
		client:    db.FromConn(conn),
		repo:      repo,
		outboxSvc: outbox.NewService(repo, nil),
	}
}

func (e *workerEnv) emitSystemMessage(t *testing.T, recipientID uuid.UUID) {
	t.Helper()
	require.NoError(t, e.client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return e.outboxSvc.Emit(context.Background(), tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventTypeSystemMessage,
			AggregateType: enums.OutboxAggregateTypeUser,
			AggregateID:   recipientID,
			Data: payloads.SystemMessageEvent{
				RecipientID: recipientID,
				Title:       "hello",
				Message:     "world",
			},
		})
	}))
}

func (e *workerEnv) unpublishedCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.client.DB().
		Model(&models.OutboxEvent{}).
		Where("published_at IS NULL").
		Count(&count).Error)
	return count
}

func TestDispatchPendingMarksPublished(t *testing.T) {
	env := setupWorkerEnv(t)
	env.emitSystemMessage(t, uuid.New())
	env.emitSystemMessage(t, uuid.New())

	stub := &stubDispatcher{}
	w, err := New(env.repo, stub, config.OutboxConfig{BatchSize: 10, MaxAttempts: 3}, nil, nil)
	require.NoError(t, err)

	delivered, err := w.DispatchPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, delivered)
	require.Equal(t, 2, stub.calls)
	require.Equal(t, int64(0), env.unpublishedCount(t))

	// Published rows are never re-delivered.
	delivered, err = w.DispatchPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, delivered)
	require.Equal(t, 2, stub.calls)
}

func TestDispatchPendingRetriesUntilAttemptCap(t *testing.T) {
	env := setupWorkerEnv(t)
	env.emitSystemMessage(t, uuid.New())

	stub := &stubDispatcher{fail: true}
	w, err := New(env.repo, stub, config.OutboxConfig{BatchSize: 10, MaxAttempts: 3}, nil, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := w.DispatchPending(context.Background())
		if i < 3 {
			require.Error(t, err)
		} else {
			// Past the attempt cap the row is skipped, not retried.
			require.NoError(t, err)
		}
	}
	require.Equal(t, 3, stub.calls)
	require.Equal(t, int64(1), env.unpublishedCount(t))

	var event models.OutboxEvent
	require.NoError(t, env.client.DB().First(&event).Error)
	require.Equal(t, 3, event.AttemptCount)
	require.NotNil(t, event.LastError)
}

func TestDispatchPendingEndToEnd(t *testing.T) {
	env := setupWorkerEnv(t)
	recipient := uuid.New()
	env.emitSystemMessage(t, recipient)

	dispatcher, err := notifications.NewDispatcher(notifications.NewRepository(env.client.DB()), nil, time.Minute, nil)
	require.NoError(t, err)
	w, err := New(env.repo, dispatcher, config.OutboxConfig{BatchSize: 10, MaxAttempts: 3}, nil, nil)
	require.NoError(t, err)

	delivered, err := w.DispatchPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, delivered)

	var rows []models.Notification
	require.NoError(t, env.client.DB().Where("recipient_id = ?", recipient).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, enums.NotificationTypeSystem, rows[0].Type)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	env := setupWorkerEnv(t)
	stub := &stubDispatcher{}
	w, err := New(env.repo, stub, config.OutboxConfig{BatchSize: 10, PollIntervalMS: 5, MaxAttempts: 3}, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = w.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
