package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/northbay-wholesale/storefront/internal/cart"
	"github.com/northbay-wholesale/storefront/internal/scroller"
	"github.com/stretchr/testify/assert"
)

func TestConsoleSurfaceRendersCards(t *testing.T) {
	var buf bytes.Buffer
	surface := NewConsoleSurface(&buf)

	surface.Clear()
	surface.Append([]scroller.Card{
		{ProductID: "p1", Title: "Red Mug", PriceLabel: "$12.50", LowStock: true},
		{ProductID: "p2", Title: "Blue Bowl", PriceLabel: "$7.25", OutOfStock: true},
	})
	surface.SetCount(2, 45)
	surface.SetLoaderVisible(true)

	out := buf.String()
	assert.Contains(t, out, "p1  Red Mug  $12.50 [low stock]")
	assert.Contains(t, out, "p2  Blue Bowl  $7.25 [out of stock]")
	assert.Contains(t, out, "showing 2 of 45 products")
	assert.Contains(t, out, "scroll for more")
}

func TestConsoleSurfaceHidesLoaderSilently(t *testing.T) {
	var buf bytes.Buffer
	surface := NewConsoleSurface(&buf)

	surface.SetLoaderVisible(false)
	assert.Empty(t, buf.String())
}

func TestConsoleCartView(t *testing.T) {
	var buf bytes.Buffer
	view := NewConsoleCartView(&buf)

	view.Render(cart.ViewState{Empty: true})
	assert.Contains(t, buf.String(), "cart: empty")

	buf.Reset()
	view.Render(cart.ViewState{
		Count: 3,
		Rows: []cart.Row{
			{ProductID: "p1", Name: "Red Mug", UnitPrice: "12.50", Quantity: 2},
			{ProductID: "p2", Name: "Blue Bowl", UnitPrice: "7.25", Quantity: 1},
		},
		Total: "32.25",
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "cart: 3 items", lines[0])
	assert.Contains(t, buf.String(), "2 x Red Mug @ 12.50")
	assert.Contains(t, buf.String(), "total 32.25")
}

func TestConsoleFilterPanel(t *testing.T) {
	var buf bytes.Buffer
	panel := NewConsoleFilterPanel(&buf)

	panel.SetOptions([]string{"Kitchen", "Pets"}, []string{"Acme"})
	panel.SetResultCount(3)

	out := buf.String()
	assert.Contains(t, out, "categories: [Kitchen Pets]")
	assert.Contains(t, out, "brands: [Acme]")
	assert.Contains(t, out, "3 results")
}
