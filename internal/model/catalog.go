package model

// Category groups products for browsing. Maps to the `categories` table.
type Category struct {
	CategoryID   uint64 // categories.category_id
	CategoryName string // categories.category_name (unique)
	Description  string // categories.description
}

// Product represents a catalog item as stored in the `products` table.
//
// Fields:
//
//	ProductID     – primary key identifier.
//	CategoryID    – foreign key into categories.
//	Name          – display name.
//	UnitPrice     – current catalog price. Order details capture their own
//	                copy of this value at purchase time, so later price
//	                changes never affect existing orders.
//	Description   – long-form description text.
//	Functionality – short feature summary shown in listings.
//	PhotoPath     – relative path of the product photo asset.
//	UnitsInStock  – remaining stock; only the order transactor decrements it.
//	Discontinued  – discontinued items stay visible but cannot be restocked.
type Product struct {
	ProductID     uint64  // products.product_id
	CategoryID    uint64  // products.category_id
	Name          string  // products.name
	UnitPrice     float64 // products.unit_price
	Description   string  // products.description
	Functionality string  // products.functionality
	PhotoPath     string  // products.photo_path
	UnitsInStock  uint32  // products.units_in_stock
	Discontinued  bool    // products.discontinued
}
