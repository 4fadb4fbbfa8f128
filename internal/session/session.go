// Package session orchestrates one storefront page session: wait for the
// identity layer, load the catalog, feed the filter engine, and keep the
// renderer's candidate list current as filters change.
package session

import (
	"context"
	"sync"

	"github.com/northbay-wholesale/storefront/internal/catalog"
	"github.com/northbay-wholesale/storefront/internal/identity"
	"github.com/northbay-wholesale/storefront/internal/scroller"
	"github.com/northbay-wholesale/storefront/pkg/errors"
	"github.com/northbay-wholesale/storefront/pkg/logger"
	"go.uber.org/multierr"
)

// Renderer is the slice of the scroller the session drives.
type Renderer interface {
	SetProducts(candidates []catalog.Product)
	Flush()
}

// FilterPanel receives the selectable filter options discovered in the
// loaded catalog.
type FilterPanel interface {
	SetOptions(categories, brands []string)
	SetResultCount(count int)
}

// Closer releases a session-owned resource on shutdown.
type Closer interface {
	Close() error
}

// Session owns the page lifecycle. All filter mutations funnel through it so
// the renderer always sees a fully filtered candidate list.
type Session struct {
	loader   *catalog.Loader
	renderer Renderer
	panel    FilterPanel
	provider identity.Provider
	logg     *logger.Logger
	closers  []Closer

	mu         sync.Mutex
	generation uint64
	products   []catalog.Product
	filter     catalog.FilterState
}

// Option configures optional session collaborators.
type Option func(*Session)

// WithIdentity attaches the identity provider awaited during Start.
func WithIdentity(provider identity.Provider) Option {
	return func(s *Session) { s.provider = provider }
}

// WithFilterPanel attaches the surface that shows filter options and the
// result count.
func WithFilterPanel(panel FilterPanel) Option {
	return func(s *Session) { s.panel = panel }
}

// WithCloser registers a resource to release in Close, in registration
// order.
func WithCloser(c Closer) Option {
	return func(s *Session) { s.closers = append(s.closers, c) }
}

func New(loader *catalog.Loader, renderer Renderer, logg *logger.Logger, opts ...Option) (*Session, error) {
	if loader == nil {
		return nil, errors.New(errors.CodeInternal, "session requires a catalog loader")
	}
	if renderer == nil {
		return nil, errors.New(errors.CodeInternal, "session requires a renderer")
	}
	s := &Session{
		loader:   loader,
		renderer: renderer,
		logg:     logg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start waits for identity initialization (when a provider is attached),
// loads the catalog, publishes filter options, and renders the first page.
// Catalog reads never require a signed-in user, so identity failures only
// log.
func (s *Session) Start(ctx context.Context) error {
	if s.provider != nil {
		select {
		case <-s.provider.Ready():
		case <-ctx.Done():
			return errors.Wrap(errors.CodeInternal, ctx.Err(), "session start cancelled")
		}
		if user, ok := s.provider.CurrentUser(); ok && s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "username", user.Username), "session user signed in")
		}
	}

	return s.Reload(ctx)
}

// Reload refetches the catalog and reapplies the current filter. A reload
// that finishes after a newer one started is dropped.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	products := s.loader.FetchProducts(ctx)
	brands := s.loader.FetchBrands(ctx)
	categories := s.loader.FetchCategories(ctx)

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		if s.logg != nil {
			s.logg.Warn(ctx, "dropping superseded catalog load")
		}
		return nil
	}
	s.products = products
	filtered := catalog.Apply(s.products, s.filter)
	s.mu.Unlock()

	if s.panel != nil {
		categoryNames := make([]string, 0, len(categories))
		for _, c := range categories {
			categoryNames = append(categoryNames, c.Name)
		}
		brandNames := make([]string, 0, len(brands))
		for _, b := range brands {
			brandNames = append(brandNames, b.Name)
		}
		if len(categoryNames) == 0 {
			categoryNames = catalog.DistinctCategories(products)
		}
		if len(brandNames) == 0 {
			brandNames = catalog.DistinctBrands(products)
		}
		s.panel.SetOptions(categoryNames, brandNames)
	}

	s.apply(ctx, filtered)
	return nil
}

// SetCategory selects an exact category; empty clears the constraint.
func (s *Session) SetCategory(ctx context.Context, category string) {
	s.updateFilter(ctx, func(f *catalog.FilterState) { f.Category = category })
}

// SetBrand selects an exact brand; empty clears the constraint.
func (s *Session) SetBrand(ctx context.Context, brand string) {
	s.updateFilter(ctx, func(f *catalog.FilterState) { f.Brand = brand })
}

// SetSearch sets the free-text term matched against name and description.
func (s *Session) SetSearch(ctx context.Context, term string) {
	s.updateFilter(ctx, func(f *catalog.FilterState) { f.Search = term })
}

// ClearFilters resets every constraint and re-renders the full catalog.
func (s *Session) ClearFilters(ctx context.Context) {
	s.updateFilter(ctx, func(f *catalog.FilterState) { *f = catalog.FilterState{} })
}

// Filter returns the current filter state.
func (s *Session) Filter() catalog.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

func (s *Session) updateFilter(ctx context.Context, mutate func(*catalog.FilterState)) {
	s.mu.Lock()
	mutate(&s.filter)
	filtered := catalog.Apply(s.products, s.filter)
	s.mu.Unlock()

	s.apply(ctx, filtered)
}

func (s *Session) apply(ctx context.Context, filtered []catalog.Product) {
	s.renderer.SetProducts(filtered)
	if s.panel != nil {
		s.panel.SetResultCount(len(filtered))
	}
	if s.logg != nil {
		s.logg.Debug(ctx, "candidate list applied")
	}
}

// Close flushes the renderer and releases registered resources, aggregating
// every failure.
func (s *Session) Close() error {
	s.renderer.Flush()

	var err error
	for _, c := range s.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

var _ Renderer = (*scroller.Scroller)(nil)
