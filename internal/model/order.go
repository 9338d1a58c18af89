package model

import "time"

// Order records a user's purchase. Rows are created only by the order
// transactor and, apart from Status, never mutated afterwards.
//
// Fields:
//
//	OrderID   – primary key identifier.
//	UserID    – user who placed the order.
//	OrderDate – creation timestamp (UTC).
//	Status    – free-form progression, starts at "Planned".
type Order struct {
	OrderID   uint64    // orders.order_id
	UserID    uint64    // orders.user_id
	OrderDate time.Time // orders.order_date
	Status    string    // orders.status
}

// OrderDetail is a single line item of an order. The composite key is
// (OrderID, ProductID). UnitPrice is the product price captured at
// purchase time; it is decoupled from the live catalog price.
// Discount is a factor in [0,1]; no promotional pricing exists yet, so
// it is always written as zero.
type OrderDetail struct {
	OrderID   uint64  // order_details.order_id
	ProductID uint64  // order_details.product_id
	Quantity  uint32  // order_details.quantity
	UnitPrice float64 // order_details.unit_price
	Discount  float64 // order_details.discount
}
