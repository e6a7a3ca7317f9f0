package enums

// OutboxEventType identifies the domain fact stored in an outbox row.
type OutboxEventType string

const (
	OutboxEventTypeOrderPlaced         OutboxEventType = "order.placed"
	OutboxEventTypeVendorOrderReceived OutboxEventType = "order.vendor_received"
	OutboxEventTypeOrderStatusChanged  OutboxEventType = "order.status_changed"
	OutboxEventTypeProductUpdated      OutboxEventType = "product.updated"
	OutboxEventTypeSystemMessage       OutboxEventType = "system.message"
)

// OutboxAggregateType names the entity an outbox event is anchored to.
type OutboxAggregateType string

const (
	OutboxAggregateTypeOrder   OutboxAggregateType = "order"
	OutboxAggregateTypeProduct OutboxAggregateType = "product"
	OutboxAggregateTypeUser    OutboxAggregateType = "user"
)
