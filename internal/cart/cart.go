// Package cart owns the session's shopping cart: its line items, their
// persistence in durable local storage, and the rendering of every mounted
// cart view.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/northbay-wholesale/storefront/internal/catalog"
	"github.com/northbay-wholesale/storefront/internal/notify"
	"github.com/northbay-wholesale/storefront/pkg/config"
	"github.com/northbay-wholesale/storefront/pkg/localstore"
	"github.com/northbay-wholesale/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// SchemaVersion stamps the persisted cart payload. Version 1 is the current
// shape; a bare legacy array (no envelope) is read as version 1.
const SchemaVersion = 1

// Item is one cart line: a snapshot of the product at add time plus the
// requested quantity. Stored quantities are always >= 1.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
	Quantity int             `json:"quantity"`
}

type envelope struct {
	Version int    `json:"version"`
	Items   []Item `json:"items"`
}

// Store is the cart's single source of truth. All mutations persist
// immediately and re-render every mounted view.
type Store struct {
	mu       sync.Mutex
	items    []Item
	views    []View
	storage  *localstore.Store
	key      string
	notifier notify.Notifier
	logg     *logger.Logger
}

// New loads the persisted cart (if any) and returns a ready store.
func New(ctx context.Context, storage *localstore.Store, cfg config.CartConfig, notifier notify.Notifier, logg *logger.Logger) (*Store, error) {
	if storage == nil {
		return nil, errors.New("local storage required")
	}
	key := cfg.StorageKey
	if key == "" {
		return nil, errors.New("cart storage key required")
	}

	s := &Store{
		storage:  storage,
		key:      key,
		notifier: notifier,
		logg:     logg,
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	raw, found, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("loading cart: %w", err)
	}
	if !found || len(raw) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Version >= SchemaVersion {
		s.items = sanitize(env.Items)
		return nil
	}

	// Pre-envelope payloads were a bare item array.
	var legacy []Item
	if err := json.Unmarshal(raw, &legacy); err != nil {
		s.warn(ctx, fmt.Sprintf("persisted cart unreadable, starting empty: %v", err))
		return nil
	}
	s.items = sanitize(legacy)
	return nil
}

func sanitize(items []Item) []Item {
	out := make([]Item, 0, len(items))
	seen := map[string]struct{}{}
	for _, item := range items {
		if item.ID == "" || item.Quantity <= 0 {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Add merges quantity into an existing line for the product or appends a new
// snapshot line. Quantities below 1 count as 1.
func (s *Store) Add(ctx context.Context, product catalog.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	merged := false
	for i := range s.items {
		if s.items[i].ID == product.ID {
			s.items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, Item{
			ID:       product.ID,
			Name:     product.Name,
			Price:    product.Price,
			Image:    product.Image,
			Quantity: quantity,
		})
	}
	s.mu.Unlock()

	s.save(ctx)
	s.renderAll()
	if s.notifier != nil {
		s.notifier.Success(ctx, fmt.Sprintf("%s added to cart", product.Name))
	}
}

// Remove deletes the line for productID; removing an absent line is a no-op.
func (s *Store) Remove(ctx context.Context, productID string) {
	s.mu.Lock()
	changed := false
	for i := range s.items {
		if s.items[i].ID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			changed = true
			break
		}
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	s.save(ctx)
	s.renderAll()
}

// SetQuantity sets a line's quantity exactly; zero or negative removes the
// line. Stock validation happens before this call, at the card.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) {
	if quantity <= 0 {
		s.Remove(ctx, productID)
		return
	}

	s.mu.Lock()
	changed := false
	for i := range s.items {
		if s.items[i].ID == productID {
			s.items[i].Quantity = quantity
			changed = true
			break
		}
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	s.save(ctx)
	s.renderAll()
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()

	s.save(ctx)
	s.renderAll()
}

// Total recomputes the cart total from the line items. Callers round for
// display with StringFixed(2); the internal sum stays exact.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// ItemCount returns the sum of quantities across lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Mount registers a view and renders the current state into it.
func (s *Store) Mount(view View) {
	if view == nil {
		return
	}
	s.mu.Lock()
	s.views = append(s.views, view)
	s.mu.Unlock()

	view.Render(s.viewState())
}

func (s *Store) save(ctx context.Context) {
	s.mu.Lock()
	env := envelope{Version: SchemaVersion, Items: s.items}
	if env.Items == nil {
		env.Items = []Item{}
	}
	s.mu.Unlock()

	payload, err := json.Marshal(env)
	if err != nil {
		s.warn(ctx, fmt.Sprintf("encoding cart failed: %v", err))
		return
	}
	// Persist failure (e.g. storage quota) never fails the mutation.
	if err := s.storage.Set(ctx, s.key, payload); err != nil {
		s.warn(ctx, fmt.Sprintf("persisting cart failed: %v", err))
	}
}

func (s *Store) renderAll() {
	state := s.viewState()

	s.mu.Lock()
	views := make([]View, len(s.views))
	copy(views, s.views)
	s.mu.Unlock()

	for _, view := range views {
		view.Render(state)
	}
}

func (s *Store) warn(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Warn(ctx, msg)
	}
}
