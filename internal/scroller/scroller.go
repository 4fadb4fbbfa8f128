package scroller

import (
	"context"
	"fmt"
	"sync"

	"github.com/northbay-wholesale/storefront/internal/cart"
	"github.com/northbay-wholesale/storefront/internal/catalog"
	"github.com/northbay-wholesale/storefront/internal/notify"
	"github.com/northbay-wholesale/storefront/pkg/config"
	"github.com/northbay-wholesale/storefront/pkg/errors"
	"github.com/northbay-wholesale/storefront/pkg/logger"
	"github.com/northbay-wholesale/storefront/pkg/metrics"
)

// State is the renderer's load phase.
type State int

const (
	// StateIdle means a page load may begin.
	StateIdle State = iota
	// StateLoading means a page append is in flight; further triggers are
	// dropped.
	StateLoading
	// StateExhausted means every candidate is on screen.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Scroller renders a candidate list one page at a time, appending the next
// page when the scroll position nears the end of the content.
type Scroller struct {
	mu         sync.Mutex
	candidates []catalog.Product
	displayed  int
	state      State
	generation uint64

	opts     config.RendererConfig
	surface  Surface
	viewport Viewport
	cartSvc  *cart.Store
	notifier notify.Notifier
	images   *ImageObserver
	mets     *metrics.RenderMetrics
	resolve  func(ref string) string
	debounce *debouncer
	logg     *logger.Logger
}

// Option tweaks optional collaborators on the scroller.
type Option func(*Scroller)

// WithImageResolver sets the function that turns a product image reference
// into a fetchable URL.
func WithImageResolver(resolve func(ref string) string) Option {
	return func(s *Scroller) { s.resolve = resolve }
}

// WithMetrics attaches render counters.
func WithMetrics(m *metrics.RenderMetrics) Option {
	return func(s *Scroller) {
		s.mets = m
		s.images.mets = m
	}
}

// New wires a scroller over its surface. The viewport may be nil when scroll
// proximity is driven externally through LoadNextPage.
func New(cfg config.RendererConfig, surface Surface, viewport Viewport, cartSvc *cart.Store, notifier notify.Notifier, loader ImageLoader, logg *logger.Logger, opts ...Option) (*Scroller, error) {
	if surface == nil {
		return nil, errors.New(errors.CodeInternal, "scroller requires a surface")
	}
	if cartSvc == nil {
		return nil, errors.New(errors.CodeInternal, "scroller requires a cart store")
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logg)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}

	s := &Scroller{
		opts:     cfg,
		surface:  surface,
		viewport: viewport,
		cartSvc:  cartSvc,
		notifier: notifier,
		images:   newImageObserver(loader, cfg.PreloadMargin),
		logg:     logg,
		state:    StateIdle,
	}
	s.debounce = newDebouncer(cfg.ScrollDebounce, s.checkProximity)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetProducts replaces the candidate list, clears the surface, and renders
// the first page. A replacement abandons any page load still in flight.
func (s *Scroller) SetProducts(candidates []catalog.Product) {
	s.mu.Lock()
	s.generation++
	s.candidates = append([]catalog.Product(nil), candidates...)
	s.displayed = 0
	s.state = StateIdle
	s.mu.Unlock()

	s.surface.Clear()
	s.LoadNextPage()
}

// LoadNextPage appends the next page of cards. Calls while a load is in
// flight, or after the list is exhausted, are no-ops.
func (s *Scroller) LoadNextPage() {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	gen := s.generation
	start := s.displayed
	end := start + s.opts.PageSize
	if end > len(s.candidates) {
		end = len(s.candidates)
	}
	if start >= end {
		s.state = StateExhausted
		s.mu.Unlock()
		s.surface.SetLoaderVisible(false)
		s.surface.SetCount(start, start)
		return
	}
	s.state = StateLoading
	batch := s.candidates[start:end]
	total := len(s.candidates)
	s.mu.Unlock()

	cards := make([]Card, 0, len(batch))
	refs := make([]ImageRef, 0, len(batch))
	for _, p := range batch {
		card := s.buildCard(p)
		cards = append(cards, card)
		refs = append(refs, card.Image)
	}
	s.surface.Append(cards)
	s.images.Observe(refs)

	s.mu.Lock()
	if s.generation != gen {
		// A SetProducts raced this append; the new list owns the surface.
		s.mu.Unlock()
		return
	}
	s.displayed = end
	hasMore := end < total
	if hasMore {
		s.state = StateIdle
	} else {
		s.state = StateExhausted
	}
	s.mu.Unlock()

	s.surface.SetLoaderVisible(hasMore)
	s.surface.SetCount(end, total)
	s.mets.IncPage(len(cards))
	if s.logg != nil {
		s.logg.Debug(context.Background(), fmt.Sprintf("rendered page: showing %d of %d", end, total))
	}
}

// OnScroll registers a scroll event. The proximity check runs once the
// debounce window elapses without another event.
func (s *Scroller) OnScroll() {
	s.debounce.Trigger()
}

// Flush cancels any pending debounce timer. Called on teardown.
func (s *Scroller) Flush() {
	s.debounce.Stop()
}

func (s *Scroller) checkProximity() {
	if s.viewport == nil {
		return
	}
	remaining := s.viewport.ContentHeight() - (s.viewport.ScrollOffset() + s.viewport.ViewportHeight())
	if remaining < s.opts.LoadMoreThreshold {
		s.LoadNextPage()
	}
}

// ImageVisible reports that a card's image slot came within the preload
// margin of the viewport.
func (s *Scroller) ImageVisible(productID string) {
	s.images.Visible(productID)
}

// AddToCart validates the requested quantity against current stock before
// handing the product to the cart. Rejections raise a notification and, for
// over-stock requests, clamp the card's displayed quantity.
func (s *Scroller) AddToCart(ctx context.Context, productID string, qty int) bool {
	product, ok := s.lookup(productID)
	if !ok {
		if s.logg != nil {
			s.logg.Warn(ctx, "add to cart for unknown product: "+productID)
		}
		return false
	}

	if product.Stock == 0 {
		s.notifier.Error(ctx, "This product is currently out of stock.")
		return false
	}
	if qty > product.Stock {
		s.notifier.Warning(ctx, fmt.Sprintf("Only %d units available in stock. Please adjust the quantity.", product.Stock))
		s.surface.SetQty(productID, product.Stock)
		return false
	}

	s.cartSvc.Add(ctx, product, qty)
	s.surface.SetQty(productID, 1)
	return true
}

// State returns the current load phase.
func (s *Scroller) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Displayed returns how many candidates are currently on screen.
func (s *Scroller) Displayed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayed
}

func (s *Scroller) lookup(productID string) (catalog.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.candidates {
		if p.ID == productID {
			return p, true
		}
	}
	return catalog.Product{}, false
}
