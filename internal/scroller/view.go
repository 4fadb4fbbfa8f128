package scroller

import (
	"fmt"

	"github.com/northbay-wholesale/storefront/internal/catalog"
)

// Placeholder shown in an image slot until the observer swaps in the real
// source.
const placeholderImage = `data:image/svg+xml,%3Csvg xmlns='http://www.w3.org/2000/svg' width='400' height='300'%3E%3Crect fill='%23f3f4f6' width='400' height='300'/%3E%3C/svg%3E`

// lowStockCutoff marks cards whose remaining stock deserves a warning badge.
const lowStockCutoff = 10

// ImageRef is a deferred image: the card renders Placeholder and the
// observer swaps in Source when the slot first comes near the viewport.
type ImageRef struct {
	ProductID   string
	Placeholder string
	Source      string
}

// Deferred reports whether there is a real source to lazily load.
func (r ImageRef) Deferred() bool {
	return r.Source != ""
}

// Card is the pure view descriptor for one product. The surface adapter
// turns it into whatever the UI tree needs.
type Card struct {
	ProductID   string
	Title       string
	Category    string
	Brand       string
	Description string
	PriceLabel  string
	Stock       int
	StockLabel  string
	LowStock    bool
	OutOfStock  bool
	Image       ImageRef
	QtyMin      int
	QtyMax      int
	Disabled    bool
}

// Surface is the adapter the renderer drives; it applies descriptors to the
// real UI tree. All calls arrive from the renderer's event handlers.
type Surface interface {
	Clear()
	Append(cards []Card)
	SetLoaderVisible(visible bool)
	SetCount(showing, total int)
	SetQty(productID string, qty int)
}

func (s *Scroller) buildCard(p catalog.Product) Card {
	card := Card{
		ProductID:   p.ID,
		Title:       p.Name,
		Category:    p.Category,
		Brand:       p.Brand,
		Description: p.Description,
		PriceLabel:  "$" + p.Price.StringFixed(2),
		Stock:       p.Stock,
		QtyMin:      1,
		QtyMax:      p.Stock,
		Image: ImageRef{
			ProductID:   p.ID,
			Placeholder: placeholderImage,
			Source:      s.resolveImage(p.Image),
		},
	}

	switch {
	case p.Stock == 0:
		card.OutOfStock = true
		card.Disabled = true
		card.StockLabel = "Out of stock"
	case p.Stock < lowStockCutoff:
		card.LowStock = true
		card.StockLabel = fmt.Sprintf("%d in stock", p.Stock)
	default:
		card.StockLabel = fmt.Sprintf("%d in stock", p.Stock)
	}

	return card
}

func (s *Scroller) resolveImage(ref string) string {
	if ref == "" || s.resolve == nil {
		return ref
	}
	return s.resolve(ref)
}
