package product

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("price must not be negative")
)

// Product is an immutable catalog entry. Stores hold it by value and never
// modify it.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  int64           `json:"category_id"`
	ImageURL    string          `json:"image_url"`
	DownloadURL string          `json:"download_url"`
}

// Validate checks the catalog invariants of a product
func (p Product) Validate() error {
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
