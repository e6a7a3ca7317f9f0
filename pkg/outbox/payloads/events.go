package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/velamart/velamart-backend/pkg/enums"
)

// OrderPlacedEvent signals a committed order; the dispatcher notifies the customer.
type OrderPlacedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
}

// VendorOrderReceivedEvent is emitted once per distinct vendor on a new order.
type VendorOrderReceivedEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	VendorID     uuid.UUID `json:"vendor_id"`
	VendorUserID uuid.UUID `json:"vendor_user_id"`
	ItemCount    int       `json:"item_count"`
}

// OrderStatusChangedEvent covers both status updates and cancellations.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	CustomerID  uuid.UUID         `json:"customer_id"`
	OldStatus   enums.OrderStatus `json:"old_status"`
	NewStatus   enums.OrderStatus `json:"new_status"`
}

// ProductUpdatedEvent is emitted when a listing's price or availability changes.
type ProductUpdatedEvent struct {
	ProductID    uuid.UUID       `json:"product_id"`
	VendorID     uuid.UUID       `json:"vendor_id"`
	VendorUserID uuid.UUID       `json:"vendor_user_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	IsAvailable  bool            `json:"is_available"`
}

// SystemMessageEvent carries an admin broadcast to a single recipient.
type SystemMessageEvent struct {
	RecipientID uuid.UUID `json:"recipient_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
}
