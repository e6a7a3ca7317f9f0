package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/velamart/velamart-backend/internal/products"
	"github.com/velamart/velamart-backend/pkg/access"
	"github.com/velamart/velamart-backend/pkg/config"
	"github.com/velamart/velamart-backend/pkg/db"
	"github.com/velamart/velamart-backend/pkg/db/models"
	"github.com/velamart/velamart-backend/pkg/enums"
	pkgerrors "github.com/velamart/velamart-backend/pkg/errors"
	"github.com/velamart/velamart-backend/pkg/logger"
	"github.com/velamart/velamart-backend/pkg/metrics"
	"github.com/velamart/velamart-backend/pkg/outbox"
	"github.com/velamart/velamart-backend/pkg/outbox/payloads"
	"github.com/velamart/velamart-backend/pkg/pagination"
)

// Service exposes the order engine.
type Service interface {
	PlaceOrder(ctx context.Context, actor access.Actor, input PlaceOrderInput) (*OrderDTO, error)
	Get(ctx context.Context, actor access.Actor, orderID uuid.UUID) (*OrderDTO, error)
	GetByOrderNumber(ctx context.Context, actor access.Actor, number string) (*OrderDTO, error)
	List(ctx context.Context, actor access.Actor, input ListOrdersInput) (*OrderListResult, error)
	UpdateStatus(ctx context.Context, actor access.Actor, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
	Cancel(ctx context.Context, actor access.Actor, orderID uuid.UUID) (*OrderDTO, error)
}

// vendorDirectory resolves vendor profiles and their owning users.
type vendorDirectory interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Vendor, error)
	OwnerUserIDs(ctx context.Context, vendorIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
}

// stockStore is the slice of the catalog repository the order engine needs.
type stockStore interface {
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error)
	RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo      *Repository
	products  *products.Repository
	vendors   vendorDirectory
	dbClient  *db.Client
	outboxSvc *outbox.Service
	cfg       config.OrdersConfig
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
}

// NewService constructs the order engine.
func NewService(
	repo *Repository,
	products *products.Repository,
	vendors vendorDirectory,
	dbClient *db.Client,
	outboxSvc *outbox.Service,
	cfg config.OrdersConfig,
	orderMetrics *metrics.OrderMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if cfg.OrderNumberAttempts <= 0 {
		cfg.OrderNumberAttempts = 5
	}
	return &service{
		repo:      repo,
		products:  products,
		vendors:   vendors,
		dbClient:  dbClient,
		outboxSvc: outboxSvc,
		cfg:       cfg,
		metrics:   orderMetrics,
		logg:      logg,
	}, nil
}

// PlaceOrder runs the full placement flow in one transaction: stock is
// reserved with conditional decrements, the order and its items are created
// under a fresh order number, and the outbox events commit with them.
func (s *service) PlaceOrder(ctx context.Context, actor access.Actor, input PlaceOrderInput) (*OrderDTO, error) {
	if err := access.CanCreateOrder(actor); err != nil {
		s.countFailure(err)
		return nil, err
	}
	if err := validateItems(input.Items); err != nil {
		s.countFailure(err)
		return nil, err
	}

	start := time.Now()
	order := &models.Order{
		CustomerID:      actor.UserID,
		Status:          enums.OrderStatusPending,
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		IsActive:        true,
	}

	txErr := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		var stock stockStore = s.products.WithTx(tx)

		items, total, err := s.reserveItems(ctx, stock, input.Items)
		if err != nil {
			return err
		}
		order.Items = items
		order.TotalPrice = total

		if err := s.createWithOrderNumber(ctx, tx, order); err != nil {
			return err
		}
		return s.emitPlacementEvents(ctx, tx, actor, order)
	})
	s.metrics.ObservePlacement(time.Since(start))
	if txErr != nil {
		s.countFailure(txErr)
		return nil, txErr
	}

	s.metrics.IncPlaced()
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"total_price":  order.TotalPrice.String(),
			"item_count":   len(order.Items),
		})
		s.logg.Info(logCtx, "order placed")
	}
	return FromModel(order), nil
}

// reserveItems decrements stock for each line and prices it from the product
// row. The caller's transaction scopes the decrements, so any later failure
// releases them.
func (s *service) reserveItems(ctx context.Context, stock stockStore, inputs []OrderItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	items := make([]models.OrderItem, 0, len(inputs))
	total := decimal.Zero
	for _, line := range inputs {
		ok, err := stock.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve stock")
		}
		if !ok {
			// The guard rejects missing, inactive, unavailable and
			// understocked products alike; load the row to tell them apart.
			product, err := stock.FindByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
						WithDetails(map[string]string{"product_id": line.ProductID.String()})
				}
				return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
			}
			if !product.IsAvailable {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeConflict, "product is not available").
					WithDetails(map[string]string{"product_id": line.ProductID.String()})
			}
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]string{"product_id": line.ProductID.String()})
		}

		product, err := stock.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			VendorID:  product.VendorID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return items, total, nil
}

// createWithOrderNumber inserts the order under a savepoint so a colliding
// order number can be retried without poisoning the outer transaction.
func (s *service) createWithOrderNumber(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	var lastErr error
	for attempt := 0; attempt < s.cfg.OrderNumberAttempts; attempt++ {
		order.OrderNumber = NewOrderNumber()
		lastErr = tx.Transaction(func(inner *gorm.DB) error {
			return s.repo.WithTx(inner).Create(ctx, order)
		})
		if lastErr == nil {
			return nil
		}
		if !db.IsUniqueViolation(lastErr, "idx_orders_order_number") {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, lastErr, "create order")
		}
		if s.logg != nil {
			s.logg.Warn(ctx, "order number collision, retrying")
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "could not allocate a unique order number")
}

// emitPlacementEvents queues the customer-facing order.placed event plus one
// order.vendor_received per distinct vendor, all in the placement transaction.
func (s *service) emitPlacementEvents(ctx context.Context, tx *gorm.DB, actor access.Actor, order *models.Order) error {
	actorRef := &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)}

	err := s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.OutboxEventTypeOrderPlaced,
		AggregateType: enums.OutboxAggregateTypeOrder,
		AggregateID:   order.ID,
		DedupeKey:     "placed",
		Actor:         actorRef,
		Data: payloads.OrderPlacedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			CustomerID:  order.CustomerID,
			TotalAmount: order.TotalPrice,
			ItemCount:   len(order.Items),
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue order.placed")
	}

	vendorIDs := make([]uuid.UUID, 0, len(order.Items))
	itemsByVendor := make(map[uuid.UUID]int, len(order.Items))
	for _, item := range order.Items {
		if _, seen := itemsByVendor[item.VendorID]; !seen {
			vendorIDs = append(vendorIDs, item.VendorID)
		}
		itemsByVendor[item.VendorID]++
	}

	owners, err := s.vendors.OwnerUserIDs(ctx, vendorIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve vendor owners")
	}

	for _, vendorID := range vendorIDs {
		err := s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventTypeVendorOrderReceived,
			AggregateType: enums.OutboxAggregateTypeOrder,
			AggregateID:   order.ID,
			DedupeKey:     vendorID.String(),
			Actor:         actorRef,
			Data: payloads.VendorOrderReceivedEvent{
				OrderID:      order.ID,
				OrderNumber:  order.OrderNumber,
				VendorID:     vendorID,
				VendorUserID: owners[vendorID],
				ItemCount:    itemsByVendor[vendorID],
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue order.vendor_received")
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, actor access.Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, actor, order); err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) GetByOrderNumber(ctx context.Context, actor access.Actor, number string) (*OrderDTO, error) {
	order, err := s.repo.FindByOrderNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if err := s.authorizeView(ctx, actor, order); err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

// List pages through the orders visible to the actor: everything for admins,
// own orders for customers, orders containing own items for vendors.
func (s *service) List(ctx context.Context, actor access.Actor, input ListOrdersInput) (*OrderListResult, error) {
	var rows []models.Order
	var err error

	switch actor.Role {
	case enums.UserRoleAdmin:
		rows, err = s.repo.ListAll(ctx, input)
	case enums.UserRoleCustomer:
		rows, err = s.repo.ListByCustomer(ctx, actor.UserID, input)
	case enums.UserRoleVendor:
		var vendor *models.Vendor
		vendor, err = s.vendors.FindByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no vendor profile for user")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vendor profile")
		}
		rows, err = s.repo.ListByVendor(ctx, vendor.ID, input)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	limit := pagination.NormalizeLimit(input.Limit)
	result := &OrderListResult{Items: make([]OrderDTO, 0, len(rows))}
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
	return result, nil
}

// UpdateStatus moves the order to the requested status. Admin only; vendors
// ship their items through their own flows and customers use Cancel. A
// same-status update is a no-op and emits nothing.
func (s *service) UpdateStatus(ctx context.Context, actor access.Actor, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error) {
	if err := access.CanMutateOrderStatus(actor); err != nil {
		return nil, err
	}

	status, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "unknown order status").
			WithDetails(map[string]string{"status": input.Status})
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.applyStatus(ctx, actor, order, status)
}

// Cancel moves the order to CANCELLED on behalf of the owning customer or an
// admin.
func (s *service) Cancel(ctx context.Context, actor access.Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := access.CanCancelOrder(actor, order.CustomerID); err != nil {
		return nil, err
	}
	// Customers can back out only while the order is still being prepared;
	// admins can cancel at any point.
	if actor.Role == enums.UserRoleCustomer &&
		(order.Status.IsTerminal() || order.Status == enums.OrderStatusShipped) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
			WithDetails(map[string]string{"status": string(order.Status)})
	}
	return s.applyStatus(ctx, actor, order, enums.OrderStatusCancelled)
}

func (s *service) applyStatus(ctx context.Context, actor access.Actor, order *models.Order, status enums.OrderStatus) (*OrderDTO, error) {
	if order.Status == status {
		return FromModel(order), nil
	}
	oldStatus := order.Status

	txErr := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, order.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		if status == enums.OrderStatusCancelled && s.cfg.RestockOnCancel {
			stock := s.products.WithTx(tx)
			for _, item := range order.Items {
				if err := stock.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore stock")
				}
			}
		}
		return s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventTypeOrderStatusChanged,
			AggregateType: enums.OutboxAggregateTypeOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				OldStatus:   oldStatus,
				NewStatus:   status,
			},
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	order.Status = status
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":   order.ID.String(),
			"old_status": string(oldStatus),
			"new_status": string(status),
		})
		s.logg.Info(logCtx, "order status updated")
	}
	return FromModel(order), nil
}

func (s *service) authorizeView(ctx context.Context, actor access.Actor, order *models.Order) error {
	vendorUserIDs, err := s.vendorUserIDsFor(ctx, order)
	if err != nil {
		return err
	}
	return access.CanViewOrder(actor, order.CustomerID, vendorUserIDs)
}

func (s *service) vendorUserIDsFor(ctx context.Context, order *models.Order) ([]uuid.UUID, error) {
	vendorIDs := make([]uuid.UUID, 0, len(order.Items))
	seen := make(map[uuid.UUID]struct{}, len(order.Items))
	for _, item := range order.Items {
		if _, ok := seen[item.VendorID]; ok {
			continue
		}
		seen[item.VendorID] = struct{}{}
		vendorIDs = append(vendorIDs, item.VendorID)
	}
	owners, err := s.vendors.OwnerUserIDs(ctx, vendorIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve vendor owners")
	}
	userIDs := make([]uuid.UUID, 0, len(owners))
	for _, userID := range owners {
		userIDs = append(userIDs, userID)
	}
	return userIDs, nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) countFailure(err error) {
	if typed := pkgerrors.As(err); typed != nil {
		s.metrics.IncFailed(strings.ToLower(string(typed.Code())))
		return
	}
	s.metrics.IncFailed("internal")
}

func validateItems(items []OrderItemInput) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if _, dup := seen[item.ProductID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in order").
				WithDetails(map[string]string{"product_id": item.ProductID.String()})
		}
		seen[item.ProductID] = struct{}{}
	}
	return nil
}
