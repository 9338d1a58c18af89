package model

// Review is a customer review of a product, stored in the `reviews`
// table. Rating is constrained to 1..5 at the database level.
type Review struct {
	ReviewID  uint64 // reviews.review_id
	UserID    uint64 // reviews.user_id
	ProductID uint64 // reviews.product_id
	Rating    uint8  // reviews.rating (1..5)
	Content   string // reviews.content
	Status    string // reviews.status
}
