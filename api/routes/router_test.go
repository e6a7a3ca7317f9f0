package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/velamart/velamart-backend/internal/auth"
	"github.com/velamart/velamart-backend/internal/notifications"
	"github.com/velamart/velamart-backend/internal/orders"
	"github.com/velamart/velamart-backend/internal/products"
	"github.com/velamart/velamart-backend/internal/vendors"
	"github.com/velamart/velamart-backend/pkg/access"
	pkgauth "github.com/velamart/velamart-backend/pkg/auth"
	"github.com/velamart/velamart-backend/pkg/config"
	"github.com/velamart/velamart-backend/pkg/db/models"
	"github.com/velamart/velamart-backend/pkg/enums"
	"github.com/velamart/velamart-backend/pkg/logger"
)

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.RegisterResponse, error) {
	return &auth.RegisterResponse{}, nil
}

type stubProductsService struct{}

func (stubProductsService) Create(ctx context.Context, actor access.Actor, input products.CreateProductInput) (*products.ProductDTO, error) {
	return &products.ProductDTO{}, nil
}

func (stubProductsService) Update(ctx context.Context, actor access.Actor, productID uuid.UUID, input products.UpdateProductInput) (*products.ProductDTO, error) {
	return &products.ProductDTO{}, nil
}

func (stubProductsService) Delete(ctx context.Context, actor access.Actor, productID uuid.UUID) error {
	return nil
}

func (stubProductsService) Get(ctx context.Context, productID uuid.UUID) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: productID}, nil
}

func (stubProductsService) GetBySlug(ctx context.Context, slug string) (*products.ProductDTO, error) {
	return &products.ProductDTO{Slug: slug}, nil
}

func (stubProductsService) List(ctx context.Context, input products.ListProductsInput) (*products.ProductListResult, error) {
	return &products.ProductListResult{Items: []products.ProductDTO{}}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) PlaceOrder(ctx context.Context, actor access.Actor, input orders.PlaceOrderInput) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{CustomerID: actor.UserID}, nil
}

func (stubOrdersService) Get(ctx context.Context, actor access.Actor, orderID uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: orderID}, nil
}

func (stubOrdersService) GetByOrderNumber(ctx context.Context, actor access.Actor, number string) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{OrderNumber: number}, nil
}

func (stubOrdersService) List(ctx context.Context, actor access.Actor, input orders.ListOrdersInput) (*orders.OrderListResult, error) {
	return &orders.OrderListResult{Items: []orders.OrderDTO{}}, nil
}

func (stubOrdersService) UpdateStatus(ctx context.Context, actor access.Actor, orderID uuid.UUID, input orders.UpdateStatusInput) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: orderID}, nil
}

func (stubOrdersService) Cancel(ctx context.Context, actor access.Actor, orderID uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: orderID, Status: enums.OrderStatusCancelled}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, actor access.Actor, input notifications.ListNotificationsInput) (*notifications.NotificationListResult, error) {
	return &notifications.NotificationListResult{Items: []notifications.NotificationDTO{}}, nil
}

func (stubNotificationsService) UnreadCount(ctx context.Context, actor access.Actor) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, actor access.Actor, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, actor access.Actor) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) CreateSystemNotification(ctx context.Context, actor access.Actor, input notifications.SystemNotificationInput) (*notifications.NotificationDTO, error) {
	return &notifications.NotificationDTO{}, nil
}

func testRouter(t *testing.T) (http.Handler, config.JWTConfig) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&models.User{}, &models.Vendor{}))

	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "router-test-secret", Issuer: "velamart-test", ExpirationMinutes: 5},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	handler := NewRouter(
		cfg, logg, nil, nil, prometheus.NewRegistry(),
		stubAuthService{}, stubRegisterService{},
		vendors.NewRepository(conn),
		stubProductsService{}, stubOrdersService{}, stubNotificationsService{},
	)
	return handler, cfg.JWT
}

func mintToken(t *testing.T, cfg config.JWTConfig, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "router@test.local",
		Role:   role,
	})
	require.NoError(t, err)
	return token
}

func TestHealthLive(t *testing.T) {
	handler, _ := testRouter(t)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "test", resp.Header().Get("X-Velamart-Env"))
}

func TestMetricsEndpoint(t *testing.T) {
	handler, _ := testRouter(t)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	handler, _ := testRouter(t)
	for _, path := range []string{"/api/v1/orders", "/api/v1/notifications", "/api/v1/products"} {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}
}

func TestOrdersWithValidToken(t *testing.T) {
	handler, jwtCfg := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwtCfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestVendorRoutesRejectCustomers(t *testing.T) {
	handler, jwtCfg := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vendor/products", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwtCfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestAdminRoutesRejectVendors(t *testing.T) {
	handler, jwtCfg := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/notifications/system", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwtCfg, enums.UserRoleVendor))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestAuthRoutesArePublic(t *testing.T) {
	handler, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.c","password":"pw"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}
