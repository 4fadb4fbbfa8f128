// Package ui renders the storefront's view descriptors as plain text. The
// console adapters stand where a real UI toolkit would; the core never
// learns which one is attached.
package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/northbay-wholesale/storefront/internal/cart"
	"github.com/northbay-wholesale/storefront/internal/scroller"
)

// ConsoleSurface implements the renderer's surface over a text writer.
type ConsoleSurface struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleSurface(w io.Writer) *ConsoleSurface {
	return &ConsoleSurface{w: w}
}

func (s *ConsoleSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, "--- catalog ---")
}

func (s *ConsoleSurface) Append(cards []scroller.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, card := range cards {
		tag := ""
		switch {
		case card.OutOfStock:
			tag = " [out of stock]"
		case card.LowStock:
			tag = " [low stock]"
		}
		fmt.Fprintf(s.w, "%s  %s  %s%s\n", card.ProductID, card.Title, card.PriceLabel, tag)
	}
}

func (s *ConsoleSurface) SetLoaderVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if visible {
		fmt.Fprintln(s.w, "... scroll for more ...")
	}
}

func (s *ConsoleSurface) SetCount(showing, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "showing %d of %d products\n", showing, total)
}

func (s *ConsoleSurface) SetQty(productID string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "qty[%s] = %d\n", productID, qty)
}

// LoadImage satisfies the lazy-image loader; the console just notes the
// swap.
func (s *ConsoleSurface) LoadImage(ref scroller.ImageRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "image[%s] -> %s\n", ref.ProductID, ref.Source)
}

// ConsoleCartView prints the cart state whenever it changes.
type ConsoleCartView struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleCartView(w io.Writer) *ConsoleCartView {
	return &ConsoleCartView{w: w}
}

func (v *ConsoleCartView) Render(state cart.ViewState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if state.Empty {
		fmt.Fprintln(v.w, "cart: empty")
		return
	}
	fmt.Fprintf(v.w, "cart: %d items\n", state.Count)
	for _, row := range state.Rows {
		fmt.Fprintf(v.w, "  %d x %s @ %s\n", row.Quantity, row.Name, row.UnitPrice)
	}
	fmt.Fprintf(v.w, "  total %s\n", state.Total)
}

// ConsoleFilterPanel prints filter options and result counts.
type ConsoleFilterPanel struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleFilterPanel(w io.Writer) *ConsoleFilterPanel {
	return &ConsoleFilterPanel{w: w}
}

func (p *ConsoleFilterPanel) SetOptions(categories, brands []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "categories: %v\n", categories)
	fmt.Fprintf(p.w, "brands: %v\n", brands)
}

func (p *ConsoleFilterPanel) SetResultCount(count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%d results\n", count)
}
