package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velamart/velamart-backend/pkg/db/models"
	"github.com/velamart/velamart-backend/pkg/enums"
	"github.com/velamart/velamart-backend/pkg/pagination"
)

// Repository exposes order persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the order together with its items.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads an active order with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND is_active = ?", id, true).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber loads an active order by its public number.
func (r *Repository) FindByOrderNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_number = ? AND is_active = ?", number, true).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByCustomer returns a cursor page of the customer's orders, newest first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, input ListOrdersInput) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Where("customer_id = ? AND is_active = ?", customerID, true)
	return r.page(ctx, q, input)
}

// ListByVendor returns a cursor page of orders containing at least one item
// from the vendor, newest first.
func (r *Repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, input ListOrdersInput) ([]models.Order, error) {
	sub := r.db.Model(&models.OrderItem{}).
		Select("DISTINCT order_id").
		Where("vendor_id = ?", vendorID)
	q := r.db.WithContext(ctx).
		Where("orders.id IN (?)", sub).
		Where("orders.is_active = ?", true)
	return r.page(ctx, q, input)
}

// ListAll returns a cursor page of every active order. Admin only.
func (r *Repository) ListAll(ctx context.Context, input ListOrdersInput) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Where("orders.is_active = ?", true)
	return r.page(ctx, q, input)
}

func (r *Repository) page(ctx context.Context, q *gorm.DB, input ListOrdersInput) ([]models.Order, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("(orders.created_at < ?) OR (orders.created_at = ? AND orders.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = q.Preload("Items").
		Order("orders.created_at DESC").
		Order("orders.id DESC").
		Limit(pagination.LimitWithBuffer(input.Limit)).
		Find(&rows).Error
	return rows, err
}

// UpdateStatus persists the new status on the order row. Update (not
// UpdateColumn) so updated_at tracks the transition.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// VendorIDs returns the distinct vendors supplying the order's items.
func (r *Repository) VendorIDs(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Distinct("vendor_id").
		Where("order_id = ?", orderID).
		Pluck("vendor_id", &ids).Error
	return ids, err
}
