package queue

// OrderPlacedItem is one line of a placed order as carried in the event.
type OrderPlacedItem struct {
	ProductID uint64  `json:"product_id"`
	Quantity  uint32  `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// OrderPlacedEvent is published after an order transaction commits.
// It contains enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary database.
type OrderPlacedEvent struct {
	OrderID   uint64            `json:"order_id"`
	UserID    uint64            `json:"user_id"`
	Items     []OrderPlacedItem `json:"items"`
	TotalCost float64           `json:"total_cost"`
	PlacedAt  string            `json:"placed_at"`
}
