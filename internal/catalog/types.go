package catalog

import (
	"github.com/shopspring/decimal"
)

// Product is one entry of the session's working set. The working set is
// owned by the Loader; everything downstream treats products as read-only.
type Product struct {
	ID          string          `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Category    string          `json:"category,omitempty"`
	Brand       string          `json:"brand,omitempty"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image,omitempty"`
}

// InStock reports whether the product can be added to a cart at all.
func (p Product) InStock() bool {
	return p.Stock > 0
}

type Brand struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	LogoURL string `json:"logoUrl,omitempty"`
}

type Category struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}
