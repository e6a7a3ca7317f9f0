package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/velamart/velamart-backend/pkg/enums"
)

// Order is the customer-facing purchase record. OrderNumber is the short
// human-readable identifier exposed in notifications and support flows.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber     string            `gorm:"column:order_number;type:text;not null;uniqueIndex:idx_orders_order_number"`
	CustomerID      uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index:idx_orders_customer_id"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	TotalPrice      decimal.Decimal   `gorm:"column:total_price;type:numeric(10,2);not null"`
	ShippingAddress string            `gorm:"column:shipping_address;type:text;not null;default:''"`
	IsActive        bool              `gorm:"column:is_active;not null;default:true"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Customer        *User             `gorm:"foreignKey:CustomerID"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
