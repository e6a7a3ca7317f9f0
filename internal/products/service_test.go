package products

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/velamart/velamart-backend/internal/vendors"
	"github.com/velamart/velamart-backend/pkg/access"
	"github.com/velamart/velamart-backend/pkg/db"
	"github.com/velamart/velamart-backend/pkg/db/models"
	"github.com/velamart/velamart-backend/pkg/enums"
	pkgerrors "github.com/velamart/velamart-backend/pkg/errors"
	"github.com/velamart/velamart-backend/pkg/outbox"
)

type testEnv struct {
	client  *db.Client
	svc     Service
	repo    *Repository
	vendors *vendors.Repository
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&models.User{}, &models.Vendor{}, &models.Product{}, &models.OutboxEvent{},
	))

	client := db.FromConn(conn)
	repo := NewRepository(conn)
	vendorRepo := vendors.NewRepository(conn)
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), nil)

	svc, err := NewService(repo, vendorRepo, client, outboxSvc)
	require.NoError(t, err)

	return &testEnv{client: client, svc: svc, repo: repo, vendors: vendorRepo}
}

func (e *testEnv) seedVendor(t *testing.T, storeName string) (*models.User, *models.Vendor) {
	t.Helper()
	user := &models.User{
		Email:        storeName + "@example.com",
		PasswordHash: "x",
		FirstName:    "V",
		LastName:     "V",
		Role:         enums.UserRoleVendor,
		IsActive:     true,
	}
	require.NoError(t, e.client.DB().Create(user).Error)
	vendor := &models.Vendor{UserID: user.ID, StoreName: storeName, IsActive: true}
	require.NoError(t, e.client.DB().Create(vendor).Error)
	return user, vendor
}

func (e *testEnv) countOutboxEvents(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.client.DB().
		Model(&models.OutboxEvent{}).
		Where("event_type = ?", eventType).
		Count(&count).Error)
	return count
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateProduct(t *testing.T) {
	env := setupTestEnv(t)
	user, vendor := env.seedVendor(t, "shop-a")

	dto, err := env.svc.Create(context.Background(), access.Actor{UserID: user.ID, Role: enums.UserRoleVendor}, CreateProductInput{
		Name:  "Walnut Desk",
		Price: price("249.99"),
		Stock: 5,
	})
	require.NoError(t, err)
	require.Equal(t, vendor.ID, dto.VendorID)
	require.True(t, dto.IsAvailable, "availability defaults to true")
	require.Equal(t, 5, dto.Stock)
}

func TestCreateProductAssignsUniqueSlugs(t *testing.T) {
	env := setupTestEnv(t)
	user, _ := env.seedVendor(t, "shop-a")
	actor := access.Actor{UserID: user.ID, Role: enums.UserRoleVendor}

	first, err := env.svc.Create(context.Background(), actor, CreateProductInput{
		Name:  "Walnut Desk!",
		Price: price("249.99"),
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(first.Slug, "walnut-desk-"), "got %q", first.Slug)

	second, err := env.svc.Create(context.Background(), actor, CreateProductInput{
		Name:  "Walnut Desk!",
		Price: price("249.99"),
	})
	require.NoError(t, err)
	require.NotEqual(t, first.Slug, second.Slug)
}

func TestGetBySlug(t *testing.T) {
	env := setupTestEnv(t)
	user, _ := env.seedVendor(t, "shop-a")
	actor := access.Actor{UserID: user.ID, Role: enums.UserRoleVendor}

	dto, err := env.svc.Create(context.Background(), actor, CreateProductInput{
		Name:  "Oak Shelf",
		Price: price("80.00"),
		Stock: 3,
	})
	require.NoError(t, err)

	found, err := env.svc.GetBySlug(context.Background(), dto.Slug)
	require.NoError(t, err)
	require.Equal(t, dto.ID, found.ID)

	_, err = env.svc.GetBySlug(context.Background(), "no-such-slug")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestCreateProductRequiresVendorProfile(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.svc.Create(context.Background(), access.Actor{UserID: uuid.New(), Role: enums.UserRoleVendor}, CreateProductInput{
		Name:  "Ghost Chair",
		Price: price("10.00"),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)

	_, err = env.svc.Create(context.Background(), access.Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}, CreateProductInput{
		Name:  "Ghost Chair",
		Price: price("10.00"),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)
}

func TestCreateProductValidation(t *testing.T) {
	env := setupTestEnv(t)
	user, _ := env.seedVendor(t, "shop-a")
	actor := access.Actor{UserID: user.ID, Role: enums.UserRoleVendor}

	cases := []CreateProductInput{
		{Name: "", Price: price("10.00")},
		{Name: "Lamp", Price: price("0")},
		{Name: "Lamp", Price: price("-3.50")},
		{Name: "Lamp", Price: price("1.999")},
		{Name: "Lamp", Price: price("10.00"), Stock: -1},
	}
	for _, input := range cases {
		_, err := env.svc.Create(context.Background(), actor, input)
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "input %+v got %v", input, err)
	}
}

func TestUpdateProductEmitsEventOnPriceChange(t *testing.T) {
	env := setupTestEnv(t)
	user, _ := env.seedVendor(t, "shop-a")
	actor := access.Actor{UserID: user.ID, Role: enums.UserRoleVendor}

	dto, err := env.svc.Create(context.Background(), actor, CreateProductInput{
		Name:  "Oak Shelf",
		Price: price("80.00"),
		Stock: 3,
	})
	require.NoError(t, err)

	newPrice := price("75.00")
	updated, err := env.svc.Update(context.Background(), actor, dto.ID, UpdateProductInput{Price: &newPrice})
	require.NoError(t, err)
	require.True(t, updated.Price.Equal(newPrice))
	require.Equal(t, int64(1), env.countOutboxEvents(t, enums.OutboxEventTypeProductUpdated))
}

func TestUpdateProductDescriptionOnlyEmitsNothing(t *testing.T) {
	env := setupTestEnv(t)
	user, _ := env.seedVendor(t, "shop-a")
	actor := access.Actor{UserID: user.ID, Role: enums.UserRoleVendor}

	dto, err := env.svc.Create(context.Background(), actor, CreateProductInput{
		Name:  "Oak Shelf",
		Price: price("80.00"),
	})
	require.NoError(t, err)

	desc := "now with rounded corners"
	_, err = env.svc.Update(context.Background(), actor, dto.ID, UpdateProductInput{Description: &desc})
	require.NoError(t, err)
	require.Equal(t, int64(0), env.countOutboxEvents(t, enums.OutboxEventTypeProductUpdated))
}

func TestUpdateProductForeignVendorForbidden(t *testing.T) {
	env := setupTestEnv(t)
	owner, _ := env.seedVendor(t, "shop-a")
	intruder, _ := env.seedVendor(t, "shop-b")

	dto, err := env.svc.Create(context.Background(), access.Actor{UserID: owner.ID, Role: enums.UserRoleVendor}, CreateProductInput{
		Name:  "Oak Shelf",
		Price: price("80.00"),
	})
	require.NoError(t, err)

	name := "Stolen Shelf"
	_, err = env.svc.Update(context.Background(), access.Actor{UserID: intruder.ID, Role: enums.UserRoleVendor}, dto.ID, UpdateProductInput{Name: &name})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)
}

func TestDeleteProductHidesFromReads(t *testing.T) {
	env := setupTestEnv(t)
	user, _ := env.seedVendor(t, "shop-a")
	actor := access.Actor{UserID: user.ID, Role: enums.UserRoleVendor}

	dto, err := env.svc.Create(context.Background(), actor, CreateProductInput{
		Name:  "Oak Shelf",
		Price: price("80.00"),
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.Delete(context.Background(), actor, dto.ID))

	_, err = env.svc.Get(context.Background(), dto.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	// Row survives for order history.
	var count int64
	require.NoError(t, env.client.DB().Model(&models.Product{}).Where("id = ?", dto.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestListProductsPagination(t *testing.T) {
	env := setupTestEnv(t)
	user, _ := env.seedVendor(t, "shop-a")
	actor := access.Actor{UserID: user.ID, Role: enums.UserRoleVendor}

	for i := 0; i < 5; i++ {
		_, err := env.svc.Create(context.Background(), actor, CreateProductInput{
			Name:  fmt.Sprintf("Item %d", i),
			Price: price("10.00"),
			Stock: 1,
		})
		require.NoError(t, err)
	}

	first, err := env.svc.List(context.Background(), ListProductsInput{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	require.NotNil(t, first.NextCursor)

	second, err := env.svc.List(context.Background(), ListProductsInput{Limit: 3, Cursor: *first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	require.Nil(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, item := range append(first.Items, second.Items...) {
		require.False(t, seen[item.ID], "duplicate item across pages")
		seen[item.ID] = true
	}
}

func TestListProductsOnlyAvailableFilter(t *testing.T) {
	env := setupTestEnv(t)
	user, _ := env.seedVendor(t, "shop-a")
	actor := access.Actor{UserID: user.ID, Role: enums.UserRoleVendor}

	unavailable := false
	_, err := env.svc.Create(context.Background(), actor, CreateProductInput{
		Name: "Hidden", Price: price("10.00"), Stock: 1, IsAvailable: &unavailable,
	})
	require.NoError(t, err)
	_, err = env.svc.Create(context.Background(), actor, CreateProductInput{
		Name: "Out of stock", Price: price("10.00"), Stock: 0,
	})
	require.NoError(t, err)
	_, err = env.svc.Create(context.Background(), actor, CreateProductInput{
		Name: "Sellable", Price: price("10.00"), Stock: 2,
	})
	require.NoError(t, err)

	result, err := env.svc.List(context.Background(), ListProductsInput{OnlyAvailable: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, "Sellable", result.Items[0].Name)
}

func TestDecrementStockGuards(t *testing.T) {
	env := setupTestEnv(t)
	_, vendor := env.seedVendor(t, "shop-a")

	product := &models.Product{
		VendorID:    vendor.ID,
		Name:        "Scarce",
		Price:       price("10.00"),
		Stock:       2,
		IsAvailable: true,
		IsActive:    true,
	}
	require.NoError(t, env.client.DB().Create(product).Error)
	ctx := context.Background()

	ok, err := env.repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = env.repo.DecrementStock(ctx, product.ID, 1)
	require.NoError(t, err)
	require.False(t, ok, "stock exhausted")

	require.NoError(t, env.repo.RestoreStock(ctx, product.ID, 2))
	ok, err = env.repo.DecrementStock(ctx, product.ID, 1)
	require.NoError(t, err)
	require.True(t, ok)

	var reloaded models.Product
	require.NoError(t, env.client.DB().First(&reloaded, "id = ?", product.ID).Error)
	require.Equal(t, 1, reloaded.Stock)
}

func TestDecrementStockRejectsUnavailable(t *testing.T) {
	env := setupTestEnv(t)
	_, vendor := env.seedVendor(t, "shop-a")

	product := &models.Product{
		VendorID:    vendor.ID,
		Name:        "Paused",
		Price:       price("10.00"),
		Stock:       10,
		IsAvailable: false,
		IsActive:    true,
	}
	require.NoError(t, env.client.DB().Create(product).Error)

	ok, err := env.repo.DecrementStock(context.Background(), product.ID, 1)
	require.NoError(t, err)
	require.False(t, ok)
}
