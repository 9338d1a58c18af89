package model

// ShippingDetail is a saved delivery address belonging to a user.
// A user may keep several; orders reference none directly yet.
type ShippingDetail struct {
	ShippingDetailID uint64 // shipping_details.shipping_detail_id
	UserID           uint64 // shipping_details.user_id
	Country          string // shipping_details.country
	City             string // shipping_details.city
	Street           string // shipping_details.street
	PostalCode       string // shipping_details.postal_code
	Phone            string // shipping_details.phone
	FirstName        string // shipping_details.first_name
	LastName         string // shipping_details.last_name
}
