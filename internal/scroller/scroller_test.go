package scroller

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/northbay-wholesale/storefront/internal/cart"
	"github.com/northbay-wholesale/storefront/internal/catalog"
	"github.com/northbay-wholesale/storefront/pkg/config"
	"github.com/northbay-wholesale/storefront/pkg/localstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type qtyChange struct {
	productID string
	qty       int
}

type recordingSurface struct {
	cards      []Card
	appends    int
	clears     int
	loaderLog  []bool
	counts     [][2]int
	qtyChanges []qtyChange

	// onAppend, when set, runs inside Append to simulate handlers firing
	// mid-render.
	onAppend func()
}

func (s *recordingSurface) Clear() {
	s.clears++
	s.cards = nil
}

func (s *recordingSurface) Append(cards []Card) {
	s.appends++
	s.cards = append(s.cards, cards...)
	if s.onAppend != nil {
		fn := s.onAppend
		s.onAppend = nil
		fn()
	}
}

func (s *recordingSurface) SetLoaderVisible(visible bool) {
	s.loaderLog = append(s.loaderLog, visible)
}

func (s *recordingSurface) SetCount(showing, total int) {
	s.counts = append(s.counts, [2]int{showing, total})
}

func (s *recordingSurface) SetQty(productID string, qty int) {
	s.qtyChanges = append(s.qtyChanges, qtyChange{productID: productID, qty: qty})
}

func (s *recordingSurface) lastCount() [2]int {
	return s.counts[len(s.counts)-1]
}

func (s *recordingSurface) lastLoader() bool {
	return s.loaderLog[len(s.loaderLog)-1]
}

type recordingLoader struct {
	loaded []ImageRef
}

func (l *recordingLoader) LoadImage(ref ImageRef) { l.loaded = append(l.loaded, ref) }

type recordingNotifier struct {
	successes []string
	warnings  []string
	errors    []string
}

func (r *recordingNotifier) Success(_ context.Context, msg string) {
	r.successes = append(r.successes, msg)
}
func (r *recordingNotifier) Warning(_ context.Context, msg string) {
	r.warnings = append(r.warnings, msg)
}
func (r *recordingNotifier) Error(_ context.Context, msg string) { r.errors = append(r.errors, msg) }

type stubViewport struct {
	scrollOffset   int
	viewportHeight int
	contentHeight  int
}

func (v *stubViewport) ScrollOffset() int   { return v.scrollOffset }
func (v *stubViewport) ViewportHeight() int { return v.viewportHeight }
func (v *stubViewport) ContentHeight() int  { return v.contentHeight }

func testCart(t *testing.T) *cart.Store {
	t.Helper()
	storage, err := localstore.Open(context.Background(), config.LocalStoreConfig{
		Path: filepath.Join(t.TempDir(), "cart.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	store, err := cart.New(context.Background(), storage, config.CartConfig{StorageKey: "storefront_cart"}, nil, nil)
	require.NoError(t, err)
	return store
}

func products(n int) []catalog.Product {
	out := make([]catalog.Product, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, catalog.Product{
			ID:    fmt.Sprintf("p%03d", i),
			Name:  fmt.Sprintf("Product %d", i),
			Price: decimal.NewFromInt(int64(i + 1)),
			Stock: 10,
			Image: fmt.Sprintf("images/p%03d.png", i),
		})
	}
	return out
}

func rendererConfig() config.RendererConfig {
	return config.RendererConfig{
		PageSize:          20,
		LoadMoreThreshold: 500,
		ScrollDebounce:    0,
		PreloadMargin:     50,
	}
}

func newTestScroller(t *testing.T, cfg config.RendererConfig, surface *recordingSurface, viewport Viewport, notifier *recordingNotifier, loader ImageLoader) *Scroller {
	t.Helper()
	s, err := New(cfg, surface, viewport, testCart(t), notifier, loader, nil)
	require.NoError(t, err)
	return s
}

func TestPaginationRunsToExhaustion(t *testing.T) {
	surface := &recordingSurface{}
	s := newTestScroller(t, rendererConfig(), surface, nil, &recordingNotifier{}, nil)

	s.SetProducts(products(45))
	assert.Equal(t, 20, s.Displayed())
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, [2]int{20, 45}, surface.lastCount())
	assert.True(t, surface.lastLoader())

	s.LoadNextPage()
	assert.Equal(t, 40, s.Displayed())
	assert.Equal(t, StateIdle, s.State())

	s.LoadNextPage()
	assert.Equal(t, 45, s.Displayed())
	assert.Equal(t, StateExhausted, s.State())
	assert.Equal(t, [2]int{45, 45}, surface.lastCount())
	assert.False(t, surface.lastLoader())

	// Further triggers do nothing once exhausted.
	appends := surface.appends
	s.LoadNextPage()
	assert.Equal(t, appends, surface.appends)
	assert.Len(t, surface.cards, 45)
}

func TestEmptyCandidateListExhaustsImmediately(t *testing.T) {
	surface := &recordingSurface{}
	s := newTestScroller(t, rendererConfig(), surface, nil, &recordingNotifier{}, nil)

	s.SetProducts(nil)
	assert.Equal(t, StateExhausted, s.State())
	assert.Equal(t, 0, s.Displayed())
	assert.Equal(t, [2]int{0, 0}, surface.lastCount())
	assert.False(t, surface.lastLoader())
	assert.Zero(t, surface.appends)
}

func TestReentrantTriggerDuringAppendIsDropped(t *testing.T) {
	surface := &recordingSurface{}
	s := newTestScroller(t, rendererConfig(), surface, nil, &recordingNotifier{}, nil)

	// A scroll handler firing while the first page is still appending must
	// not start a second load.
	surface.onAppend = func() { s.LoadNextPage() }
	s.SetProducts(products(45))

	assert.Equal(t, 1, surface.appends)
	assert.Equal(t, 20, s.Displayed())
}

func TestSetProductsMidAppendWinsTheSurface(t *testing.T) {
	surface := &recordingSurface{}
	s := newTestScroller(t, rendererConfig(), surface, nil, &recordingNotifier{}, nil)

	replacement := products(5)
	surface.onAppend = func() { s.SetProducts(replacement) }
	s.SetProducts(products(45))

	// The stale append must not advance the cursor past the replacement's
	// own first page.
	assert.Equal(t, 5, s.Displayed())
	assert.Equal(t, StateExhausted, s.State())
	assert.Equal(t, [2]int{5, 5}, surface.lastCount())
}

func TestScrollTriggerRespectsThreshold(t *testing.T) {
	surface := &recordingSurface{}
	viewport := &stubViewport{scrollOffset: 0, viewportHeight: 800, contentHeight: 4000}
	s := newTestScroller(t, rendererConfig(), surface, viewport, &recordingNotifier{}, nil)
	s.SetProducts(products(45))
	require.Equal(t, 20, s.Displayed())

	// 4000 - (0 + 800) = 3200 remaining, well above the threshold.
	s.OnScroll()
	assert.Equal(t, 20, s.Displayed())

	// 4000 - (2800 + 800) = 400 remaining, inside the threshold.
	viewport.scrollOffset = 2800
	s.OnScroll()
	assert.Equal(t, 40, s.Displayed())
}

func TestScrollBurstDebouncesToOneCheck(t *testing.T) {
	surface := &recordingSurface{}
	viewport := &stubViewport{scrollOffset: 2800, viewportHeight: 800, contentHeight: 4000}
	cfg := rendererConfig()
	cfg.ScrollDebounce = 20 * time.Millisecond
	s := newTestScroller(t, cfg, surface, viewport, &recordingNotifier{}, nil)
	s.SetProducts(products(45))
	require.Equal(t, 20, s.Displayed())

	for i := 0; i < 10; i++ {
		s.OnScroll()
	}

	assert.Eventually(t, func() bool { return s.Displayed() == 40 }, time.Second, 5*time.Millisecond)
	// One debounced check loads exactly one page.
	assert.Equal(t, 2, surface.appends)
	s.Flush()
}

func TestCardDescriptors(t *testing.T) {
	surface := &recordingSurface{}
	s := newTestScroller(t, rendererConfig(), surface, nil, &recordingNotifier{}, nil)

	s.SetProducts([]catalog.Product{
		{ID: "p1", Name: "Red Mug", Category: "Kitchen", Brand: "Acme", Price: decimal.RequireFromString("12.5"), Stock: 4, Image: "images/mug.png"},
		{ID: "p2", Name: "Blue Bowl", Price: decimal.RequireFromString("7"), Stock: 0},
		{ID: "p3", Name: "Dog Leash", Price: decimal.RequireFromString("15.99"), Stock: 25},
	})
	require.Len(t, surface.cards, 3)

	mug := surface.cards[0]
	assert.Equal(t, "$12.50", mug.PriceLabel)
	assert.Equal(t, "4 in stock", mug.StockLabel)
	assert.True(t, mug.LowStock)
	assert.False(t, mug.Disabled)
	assert.Equal(t, 1, mug.QtyMin)
	assert.Equal(t, 4, mug.QtyMax)
	assert.Equal(t, placeholderImage, mug.Image.Placeholder)
	assert.Equal(t, "images/mug.png", mug.Image.Source)

	bowl := surface.cards[1]
	assert.Equal(t, "Out of stock", bowl.StockLabel)
	assert.True(t, bowl.OutOfStock)
	assert.True(t, bowl.Disabled)
	assert.False(t, bowl.Image.Deferred())

	leash := surface.cards[2]
	assert.False(t, leash.LowStock)
	assert.Equal(t, "25 in stock", leash.StockLabel)
}

func TestImageResolverRewritesSources(t *testing.T) {
	surface := &recordingSurface{}
	cartSvc := testCart(t)
	s, err := New(rendererConfig(), surface, nil, cartSvc, &recordingNotifier{}, nil, nil,
		WithImageResolver(func(ref string) string { return "https://img.example.com/" + ref }))
	require.NoError(t, err)

	s.SetProducts(products(1))
	require.Len(t, surface.cards, 1)
	assert.Equal(t, "https://img.example.com/images/p000.png", surface.cards[0].Image.Source)
}

func TestAddToCartRejectsOutOfStock(t *testing.T) {
	surface := &recordingSurface{}
	notifier := &recordingNotifier{}
	s := newTestScroller(t, rendererConfig(), surface, nil, notifier, nil)
	s.SetProducts([]catalog.Product{{ID: "p1", Name: "Red Mug", Price: decimal.NewFromInt(12), Stock: 0}})

	ok := s.AddToCart(context.Background(), "p1", 1)
	assert.False(t, ok)
	require.Len(t, notifier.errors, 1)
	assert.Equal(t, "This product is currently out of stock.", notifier.errors[0])
	assert.Empty(t, surface.qtyChanges)
}

func TestAddToCartClampsOverStockRequests(t *testing.T) {
	surface := &recordingSurface{}
	notifier := &recordingNotifier{}
	s := newTestScroller(t, rendererConfig(), surface, nil, notifier, nil)
	s.SetProducts([]catalog.Product{{ID: "p1", Name: "Red Mug", Price: decimal.NewFromInt(12), Stock: 3}})

	ok := s.AddToCart(context.Background(), "p1", 5)
	assert.False(t, ok)
	require.Len(t, notifier.warnings, 1)
	assert.Equal(t, "Only 3 units available in stock. Please adjust the quantity.", notifier.warnings[0])
	require.Len(t, surface.qtyChanges, 1)
	assert.Equal(t, qtyChange{productID: "p1", qty: 3}, surface.qtyChanges[0])
}

func TestAddToCartAcceptsWithinStock(t *testing.T) {
	surface := &recordingSurface{}
	notifier := &recordingNotifier{}
	s := newTestScroller(t, rendererConfig(), surface, nil, notifier, nil)
	s.SetProducts([]catalog.Product{{ID: "p1", Name: "Red Mug", Price: decimal.RequireFromString("12.50"), Stock: 3}})

	ok := s.AddToCart(context.Background(), "p1", 3)
	assert.True(t, ok)
	assert.Equal(t, 3, s.cartSvc.ItemCount())
	// The card's stepper resets to 1 after a successful add.
	require.Len(t, surface.qtyChanges, 1)
	assert.Equal(t, qtyChange{productID: "p1", qty: 1}, surface.qtyChanges[0])
}
