package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/velamart/velamart-backend/api/controllers"
	"github.com/velamart/velamart-backend/api/middleware"
	"github.com/velamart/velamart-backend/internal/auth"
	"github.com/velamart/velamart-backend/internal/notifications"
	"github.com/velamart/velamart-backend/internal/orders"
	"github.com/velamart/velamart-backend/internal/products"
	"github.com/velamart/velamart-backend/internal/vendors"
	"github.com/velamart/velamart-backend/pkg/config"
	"github.com/velamart/velamart-backend/pkg/db"
	"github.com/velamart/velamart-backend/pkg/enums"
	"github.com/velamart/velamart-backend/pkg/logger"
	"github.com/velamart/velamart-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	gatherer prometheus.Gatherer,
	authService auth.Service,
	registerService auth.RegisterService,
	vendorRepo *vendors.Repository,
	productService products.Service,
	ordersService orders.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(registerService, logg))
		r.Post("/login", controllers.AuthLogin(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Get("/slug/{slug}", controllers.GetProductBySlug(productService, logg))
			r.Get("/{productId}", controllers.GetProduct(productService, logg))
		})

		r.Get("/vendors", controllers.ListVendors(vendorRepo, logg))

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleVendor), logg))
			r.Get("/me", controllers.VendorProfile(vendorRepo, logg))
			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.VendorCreateProduct(productService, logg))
				r.Patch("/{productId}", controllers.VendorUpdateProduct(productService, logg))
				r.Delete("/{productId}", controllers.VendorDeleteProduct(productService, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.PlaceOrder(ordersService, logg))
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/number/{orderNumber}", controllers.GetOrderByNumber(ordersService, logg))
			r.Get("/{orderId}", controllers.GetOrder(ordersService, logg))
			r.Post("/{orderId}/update_status", controllers.UpdateOrderStatus(ordersService, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(ordersService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Get("/unread", controllers.UnreadNotifications(notificationsService, logg))
			r.Post("/{notificationId}/mark_as_read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/mark_all_as_read", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Post("/notifications/system", controllers.CreateSystemNotification(notificationsService, logg))
		r.Post("/vendors/{vendorId}/deactivate", controllers.AdminDeactivateVendor(vendorRepo, logg))
	})

	return r
}
