package notifications

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/velamart/velamart-backend/pkg/access"
	"github.com/velamart/velamart-backend/pkg/db"
	"github.com/velamart/velamart-backend/pkg/db/models"
	"github.com/velamart/velamart-backend/pkg/enums"
	pkgerrors "github.com/velamart/velamart-backend/pkg/errors"
	pkgredis "github.com/velamart/velamart-backend/pkg/redis"
)

// fakeStore is an in-memory stand-in for the redis command surface.
type fakeStore struct {
	data map[string]string
	gets int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (f *fakeStore) Ping(context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) *goredis.StatusCmd {
	f.data[key] = asString(value)
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Get(_ context.Context, key string) *goredis.StringCmd {
	value, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	f.gets++
	return goredis.NewStringResult(value, nil)
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) *goredis.BoolCmd {
	if _, ok := f.data[key]; ok {
		return goredis.NewBoolResult(false, nil)
	}
	f.data[key] = asString(value)
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			removed++
		}
	}
	return goredis.NewIntResult(removed, nil)
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

type testEnv struct {
	client *db.Client
	repo   *Repository
	svc    Service
	store  *fakeStore
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(&models.Notification{}))

	store := newFakeStore()
	repo := NewRepository(conn)
	svc, err := NewService(repo, pkgredis.FromCmdable(store), time.Minute, nil)
	require.NoError(t, err)

	return &testEnv{client: db.FromConn(conn), repo: repo, svc: svc, store: store}
}

func (e *testEnv) seedNotification(t *testing.T, recipientID uuid.UUID, isRead bool) *models.Notification {
	t.Helper()
	notification := &models.Notification{
		RecipientID: recipientID,
		Type:        enums.NotificationTypeSystem,
		Title:       "hi",
		Message:     "test",
		IsRead:      isRead,
	}
	require.NoError(t, e.client.DB().Create(notification).Error)
	return notification
}

func actorFor(recipientID uuid.UUID) access.Actor {
	return access.Actor{UserID: recipientID, Role: enums.UserRoleCustomer}
}

func TestListScopedToActor(t *testing.T) {
	env := setupTestEnv(t)
	me := uuid.New()
	other := uuid.New()
	env.seedNotification(t, me, false)
	env.seedNotification(t, me, true)
	env.seedNotification(t, other, false)

	result, err := env.svc.List(context.Background(), actorFor(me), ListNotificationsInput{})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	for _, item := range result.Items {
		require.Equal(t, me, item.RecipientID)
	}
}

func TestListUnreadOnly(t *testing.T) {
	env := setupTestEnv(t)
	me := uuid.New()
	env.seedNotification(t, me, false)
	env.seedNotification(t, me, true)

	result, err := env.svc.List(context.Background(), actorFor(me), ListNotificationsInput{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.False(t, result.Items[0].IsRead)
}

func TestListUnreadFirstPageIsCached(t *testing.T) {
	env := setupTestEnv(t)
	me := uuid.New()
	env.seedNotification(t, me, false)

	first, err := env.svc.List(context.Background(), actorFor(me), ListNotificationsInput{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, env.store.data, 1, "listing stored in cache")

	// Second read is served from the cache.
	before := env.store.gets
	second, err := env.svc.List(context.Background(), actorFor(me), ListNotificationsInput{UnreadOnly: true})
	require.NoError(t, err)
	require.Equal(t, first.Items, second.Items)
	require.Greater(t, env.store.gets, before)
}

func TestMarkReadInvalidatesCache(t *testing.T) {
	env := setupTestEnv(t)
	me := uuid.New()
	row := env.seedNotification(t, me, false)

	_, err := env.svc.List(context.Background(), actorFor(me), ListNotificationsInput{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, env.store.data, 1)

	require.NoError(t, env.svc.MarkRead(context.Background(), actorFor(me), row.ID))
	require.Empty(t, env.store.data, "cache invalidated on write")

	result, err := env.svc.List(context.Background(), actorFor(me), ListNotificationsInput{UnreadOnly: true})
	require.NoError(t, err)
	require.Empty(t, result.Items)
}

func TestMarkReadForeignRowIsNotFound(t *testing.T) {
	env := setupTestEnv(t)
	owner := uuid.New()
	row := env.seedNotification(t, owner, false)

	err := env.svc.MarkRead(context.Background(), actorFor(uuid.New()), row.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	// The row is untouched.
	var reloaded models.Notification
	require.NoError(t, env.client.DB().First(&reloaded, "id = ?", row.ID).Error)
	require.False(t, reloaded.IsRead)
}

func TestMarkAllRead(t *testing.T) {
	env := setupTestEnv(t)
	me := uuid.New()
	env.seedNotification(t, me, false)
	env.seedNotification(t, me, false)
	env.seedNotification(t, me, true)

	affected, err := env.svc.MarkAllRead(context.Background(), actorFor(me))
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)

	count, err := env.svc.UnreadCount(context.Background(), actorFor(me))
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
}

func TestCreateSystemNotification(t *testing.T) {
	env := setupTestEnv(t)
	recipient := uuid.New()
	admin := access.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}

	dto, err := env.svc.CreateSystemNotification(context.Background(), admin, SystemNotificationInput{
		RecipientID: recipient,
		Title:       "Maintenance",
		Message:     "Back at 9pm UTC.",
	})
	require.NoError(t, err)
	require.Equal(t, enums.NotificationTypeSystem, dto.Type)
	require.Equal(t, recipient, dto.RecipientID)

	// Only admins may broadcast.
	_, err = env.svc.CreateSystemNotification(context.Background(), actorFor(uuid.New()), SystemNotificationInput{
		RecipientID: recipient,
		Title:       "x",
		Message:     "y",
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)

	_, err = env.svc.CreateSystemNotification(context.Background(), admin, SystemNotificationInput{
		RecipientID: recipient,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestListPagination(t *testing.T) {
	env := setupTestEnv(t)
	me := uuid.New()
	for i := 0; i < 5; i++ {
		env.seedNotification(t, me, false)
	}

	first, err := env.svc.List(context.Background(), actorFor(me), ListNotificationsInput{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	require.NotNil(t, first.NextCursor)

	second, err := env.svc.List(context.Background(), actorFor(me), ListNotificationsInput{Limit: 3, Cursor: *first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	require.Nil(t, second.NextCursor)
}
