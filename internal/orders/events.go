package orders

const (
	TopicOrderEvents = "pos.order.events"

	EventOrderCreated   = "OrderCreated"
	EventOrderCompleted = "OrderCompleted"
	EventOrderExpired   = "OrderExpired"
)

type OrderCreatedPayload struct {
	OrderID   string `json:"order_id"`
	CashierID string `json:"cashier_id"`
	WaiterID  string `json:"waiter_id,omitempty"`
	TotalCost string `json:"total_cost"`
	LineCount int    `json:"line_count"`
}

type OrderCompletedPayload struct {
	OrderID   string `json:"order_id"`
	TotalCost string `json:"total_cost"`
}

type OrderExpiredPayload struct {
	OrderID string `json:"order_id"`
}

// PartitionKey keeps every event of one order on the same partition so
// consumers see them in order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
