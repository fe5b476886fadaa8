package domain

import "time"

// Product prices are integer minor currency units. Order items snapshot the
// price at placement time; later edits never touch past orders.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SizeStock struct {
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

// CatalogProduct is a product together with its per-size stock, as served by
// the public catalog endpoints.
type CatalogProduct struct {
	Product
	Sizes []SizeStock `json:"sizes"`
}
