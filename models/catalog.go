// api/models/catalog.go
package models

import "time"

// Products are owned by exactly one vendor but have no model of their own
// here: the analytics paths only ever need product IDs and joined names, so
// the products table is read through store.CatalogStore and the ownership
// resolver.

// OrderItem carries the unit price at time of sale; line revenue is
// Price * Quantity. Product name and vendor are joined in at read time.
type OrderItem struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	VendorID    int64   `json:"vendorId"`
	Price       float64 `json:"price"`
	Quantity    int64   `json:"quantity"`
}

// Order is immutable after creation in this scope. No cancellation or
// refund semantics are modeled.
type Order struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"userId"`
	CreatedAt time.Time   `json:"createdAt"`
	Items     []OrderItem `json:"items"`
}

func (o *Order) Total() float64 {
	var sum float64
	for _, it := range o.Items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}
