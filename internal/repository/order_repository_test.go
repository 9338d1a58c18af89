package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

const (
	insertOrderQ  = "INSERT INTO orders (user_id, order_date, status) VALUES (?,?,?)"
	lockProductQ  = "SELECT unit_price, units_in_stock FROM products WHERE product_id=? FOR UPDATE"
	decrStockQ    = "UPDATE products SET units_in_stock = units_in_stock - ? WHERE product_id=?"
	insertDetailQ = "INSERT INTO order_details (order_id, product_id, quantity, unit_price, discount) VALUES (?,?,?,?,0)"
)

func expectLockedLine(mock sqlmock.Sqlmock, orderID, productID uint64, qty uint32, price float64, stock uint32) {
	mock.ExpectQuery(regexp.QuoteMeta(lockProductQ)).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"unit_price", "units_in_stock"}).AddRow(price, stock))
	mock.ExpectExec(regexp.QuoteMeta(decrStockQ)).
		WithArgs(qty, productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertDetailQ)).
		WithArgs(orderID, productID, qty, price).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestCreateOrderCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderQ)).
		WithArgs(uint64(7), sqlmock.AnyArg(), "Planned").
		WillReturnResult(sqlmock.NewResult(42, 1))
	expectLockedLine(mock, 42, 3, 2, 9.99, 10)
	expectLockedLine(mock, 42, 8, 1, 4.50, 1)
	mock.ExpectCommit()

	repo := NewOrderRepo(db)
	orderID, err := repo.Create(context.Background(), 7, []OrderItem{
		{ProductID: 3, Quantity: 2},
		{ProductID: 8, Quantity: 1},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(42), orderID)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Duplicate lines for the same product collapse into one locked row, and
// products are always locked in ascending id order regardless of the
// order they appear in the cart.
func TestCreateOrderMergesDuplicatesAndSortsLocks(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderQ)).
		WithArgs(uint64(7), sqlmock.AnyArg(), "Planned").
		WillReturnResult(sqlmock.NewResult(42, 1))
	// product 2 first despite appearing last in the cart, quantities 3+1 merged
	expectLockedLine(mock, 42, 2, 4, 1.25, 100)
	expectLockedLine(mock, 42, 9, 1, 7.00, 5)
	mock.ExpectCommit()

	repo := NewOrderRepo(db)
	_, err = repo.Create(context.Background(), 7, []OrderItem{
		{ProductID: 9, Quantity: 1},
		{ProductID: 2, Quantity: 3},
		{ProductID: 2, Quantity: 1},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderOutOfStockRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderQ)).
		WithArgs(uint64(7), sqlmock.AnyArg(), "Planned").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(regexp.QuoteMeta(lockProductQ)).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"unit_price", "units_in_stock"}).AddRow(9.99, 1))
	mock.ExpectRollback()

	repo := NewOrderRepo(db)
	_, err = repo.Create(context.Background(), 7, []OrderItem{{ProductID: 3, Quantity: 2}})
	require.ErrorIs(t, err, ErrOutOfStock)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A missing product on the second line undoes the first line's
// decrement too: nothing of the order survives.
func TestCreateOrderMissingProductRollsBackEverything(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderQ)).
		WithArgs(uint64(7), sqlmock.AnyArg(), "Planned").
		WillReturnResult(sqlmock.NewResult(42, 1))
	expectLockedLine(mock, 42, 3, 1, 9.99, 10)
	mock.ExpectQuery(regexp.QuoteMeta(lockProductQ)).
		WithArgs(uint64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"unit_price", "units_in_stock"}))
	mock.ExpectRollback()

	repo := NewOrderRepo(db)
	_, err = repo.Create(context.Background(), 7, []OrderItem{
		{ProductID: 3, Quantity: 1},
		{ProductID: 999, Quantity: 1},
	})
	require.ErrorIs(t, err, ErrProductNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM orders WHERE order_id=? LIMIT 1")).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))

	repo := NewOrderRepo(db)
	owner, err := repo.Owner(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, uint64(7), owner)
	require.NoError(t, mock.ExpectationsWereMet())
}
