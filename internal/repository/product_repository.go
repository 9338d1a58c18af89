package repository

import (
	"context"
	"database/sql"

	"github.com/mkarpik/storefront-api/internal/model"
)

const productColumns = "product_id, category_id, name, unit_price, description, functionality, photo_path, units_in_stock, discontinued"

type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

func scanProduct(row interface{ Scan(...interface{}) error }, p *model.Product) error {
	return row.Scan(&p.ProductID, &p.CategoryID, &p.Name, &p.UnitPrice,
		&p.Description, &p.Functionality, &p.PhotoPath, &p.UnitsInStock, &p.Discontinued)
}

// List returns catalog products, optionally restricted to one category.
func (r *ProductRepo) List(ctx context.Context, categoryID *uint64) ([]model.Product, error) {
	q := "SELECT " + productColumns + " FROM products"
	args := []interface{}{}
	if categoryID != nil {
		q += " WHERE category_id=?"
		args = append(args, *categoryID)
	}
	q += " ORDER BY product_id"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Product, 0)
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID fetches a single product.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	var p model.Product
	err := scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE product_id=? LIMIT 1", id), &p)
	return p, err
}

// Search returns products whose name contains the phrase, optionally
// restricted to one category. An empty phrase matches everything.
func (r *ProductRepo) Search(ctx context.Context, phrase string, categoryID *uint64) ([]model.Product, error) {
	q := "SELECT " + productColumns + " FROM products WHERE name LIKE ?"
	args := []interface{}{"%" + phrase + "%"}
	if categoryID != nil {
		q += " AND category_id=?"
		args = append(args, *categoryID)
	}
	q += " ORDER BY product_id"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Product, 0)
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts a product and returns its ID.
func (r *ProductRepo) Create(ctx context.Context, p model.Product) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO products (category_id, name, unit_price, description, functionality, photo_path, units_in_stock, discontinued)
		 VALUES (?,?,?,?,?,?,?,?)`,
		p.CategoryID, p.Name, p.UnitPrice, p.Description, p.Functionality, p.PhotoPath, p.UnitsInStock, p.Discontinued)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ToggleDiscontinued flips the discontinued flag and returns the
// product's name and new flag value. Single-statement mutation; last
// write wins, there is no optimistic-concurrency check.
func (r *ProductRepo) ToggleDiscontinued(ctx context.Context, id uint64) (string, bool, error) {
	var name string
	var discontinued bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT name, discontinued FROM products WHERE product_id=? LIMIT 1",
		id).Scan(&name, &discontinued)
	if err != nil {
		return "", false, err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE products SET discontinued=? WHERE product_id=?",
		!discontinued, id)
	if err != nil {
		return "", false, err
	}
	return name, !discontinued, nil
}
