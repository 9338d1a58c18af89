package repository

import (
	"context"
	"database/sql"

	"github.com/mkarpik/storefront-api/internal/model"
)

type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

// ListByProduct returns all reviews of a product, newest first.
func (r *ReviewRepo) ListByProduct(ctx context.Context, productID uint64) ([]model.Review, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT review_id, user_id, product_id, rating, content, status FROM reviews WHERE product_id=? ORDER BY review_id DESC",
		productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Review, 0)
	for rows.Next() {
		var rev model.Review
		if err := rows.Scan(&rev.ReviewID, &rev.UserID, &rev.ProductID, &rev.Rating, &rev.Content, &rev.Status); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

// Create inserts a review and returns its ID.
func (r *ReviewRepo) Create(ctx context.Context, rev model.Review) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO reviews (user_id, product_id, rating, content, status) VALUES (?,?,?,?,?)",
		rev.UserID, rev.ProductID, rev.Rating, rev.Content, rev.Status)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites rating and content of a review. Only the author may
// update; ErrForbidden is returned otherwise and sql.ErrNoRows when the
// review does not exist.
func (r *ReviewRepo) Update(ctx context.Context, reviewID, userID uint64, rating uint8, content string) error {
	var authorID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM reviews WHERE review_id=? LIMIT 1",
		reviewID).Scan(&authorID)
	if err != nil {
		return err
	}
	if authorID != userID {
		return ErrForbidden
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE reviews SET rating=?, content=? WHERE review_id=?",
		rating, content, reviewID)
	return err
}

// Delete removes a review. The author may always delete their own
// review; admins may delete any. Returns sql.ErrNoRows when the review
// does not exist and ErrForbidden when the caller may not delete it.
func (r *ReviewRepo) Delete(ctx context.Context, reviewID, userID uint64, isAdmin bool) error {
	var authorID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM reviews WHERE review_id=? LIMIT 1",
		reviewID).Scan(&authorID)
	if err != nil {
		return err
	}
	if authorID != userID && !isAdmin {
		return ErrForbidden
	}
	_, err = r.DB.ExecContext(ctx,
		"DELETE FROM reviews WHERE review_id=?",
		reviewID)
	return err
}
