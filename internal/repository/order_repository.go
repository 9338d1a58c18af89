package repository

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/mkarpik/storefront-api/internal/model"
)

// OrderRepo creates and reads orders.  Order creation is the only place
// in the application that mutates stock, and it does so inside a single
// transaction with per-product row locks so concurrent purchases of the
// same product serialize at the database.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

// OrderItem is one requested line of a cart.
type OrderItem struct {
	ProductID uint64 `json:"ProductID"`
	Quantity  uint32 `json:"Quantity"`
}

// Create places an order for the given user inside one transaction:
//
//  1. insert the order row (status "Planned", current UTC time)
//  2. for each line item: lock the product row (SELECT ... FOR UPDATE),
//     verify it exists and has enough stock, decrement the stock and
//     insert an order_details row capturing the current unit price
//  3. commit
//
// Duplicate product IDs in the cart are merged by summing quantities.
// Products are locked in ascending ProductID order so two carts holding
// the same products in different orders cannot deadlock.  Any failure
// rolls the whole transaction back; no partial order is ever visible.
//
// Returns ErrProductNotFound or ErrOutOfStock for the two expected
// validation failures; anything else is a database error.
func (r *OrderRepo) Create(ctx context.Context, userID uint64, items []OrderItem) (uint64, error) {
	merged := mergeItems(items)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (user_id, order_date, status) VALUES (?,?,?)",
		userID, time.Now().UTC(), "Planned")
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	orderID := uint64(id)

	for _, item := range merged {
		var unitPrice float64
		var stock uint32
		err := tx.QueryRowContext(ctx,
			"SELECT unit_price, units_in_stock FROM products WHERE product_id=? FOR UPDATE",
			item.ProductID).Scan(&unitPrice, &stock)
		if err == sql.ErrNoRows {
			return 0, ErrProductNotFound
		}
		if err != nil {
			return 0, err
		}
		if item.Quantity > stock {
			return 0, ErrOutOfStock
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE products SET units_in_stock = units_in_stock - ? WHERE product_id=?",
			item.Quantity, item.ProductID); err != nil {
			return 0, err
		}
		// Discount is always zero: no promotional pricing exists yet.
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO order_details (order_id, product_id, quantity, unit_price, discount) VALUES (?,?,?,?,0)",
			orderID, item.ProductID, item.Quantity, unitPrice); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return orderID, nil
}

// mergeItems sums quantities of duplicate product IDs and returns the
// result sorted by ProductID ascending, which fixes the lock
// acquisition order across all concurrent carts.
func mergeItems(items []OrderItem) []OrderItem {
	byID := make(map[uint64]uint32, len(items))
	for _, it := range items {
		byID[it.ProductID] += it.Quantity
	}
	merged := make([]OrderItem, 0, len(byID))
	for pid, qty := range byID {
		merged = append(merged, OrderItem{ProductID: pid, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT order_id, user_id, order_date, status FROM orders WHERE user_id=? ORDER BY order_date DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Order, 0)
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.OrderID, &o.UserID, &o.OrderDate, &o.Status); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Owner returns the user id of the order's owner, or sql.ErrNoRows when
// the order does not exist.
func (r *OrderRepo) Owner(ctx context.Context, orderID uint64) (uint64, error) {
	var userID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM orders WHERE order_id=? LIMIT 1",
		orderID).Scan(&userID)
	return userID, err
}

// DetailsByOrder returns the line items of an order.
func (r *OrderRepo) DetailsByOrder(ctx context.Context, orderID uint64) ([]model.OrderDetail, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT order_id, product_id, quantity, unit_price, discount FROM order_details WHERE order_id=? ORDER BY product_id",
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.OrderDetail, 0)
	for rows.Next() {
		var d model.OrderDetail
		if err := rows.Scan(&d.OrderID, &d.ProductID, &d.Quantity, &d.UnitPrice, &d.Discount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
