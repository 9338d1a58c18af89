package repository

import (
	"context"
	"database/sql"

	"github.com/mkarpik/storefront-api/internal/model"
)

type ShippingRepo struct{ DB *sql.DB }

func NewShippingRepo(db *sql.DB) *ShippingRepo { return &ShippingRepo{DB: db} }

// ListByUser returns all saved delivery addresses of a user.
func (r *ShippingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.ShippingDetail, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT shipping_detail_id, user_id, country, city, street, postal_code, phone, first_name, last_name
		 FROM shipping_details WHERE user_id=? ORDER BY shipping_detail_id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ShippingDetail, 0)
	for rows.Next() {
		var d model.ShippingDetail
		if err := rows.Scan(&d.ShippingDetailID, &d.UserID, &d.Country, &d.City, &d.Street,
			&d.PostalCode, &d.Phone, &d.FirstName, &d.LastName); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Create inserts an address and returns its ID.
func (r *ShippingRepo) Create(ctx context.Context, d model.ShippingDetail) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO shipping_details (user_id, country, city, street, postal_code, phone, first_name, last_name)
		 VALUES (?,?,?,?,?,?,?,?)`,
		d.UserID, d.Country, d.City, d.Street, d.PostalCode, d.Phone, d.FirstName, d.LastName)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
