package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/northbay-wholesale/storefront/pkg/blob"
	"github.com/northbay-wholesale/storefront/pkg/config"
	"github.com/northbay-wholesale/storefront/pkg/localstore"
	"github.com/northbay-wholesale/storefront/pkg/logger"
	"github.com/northbay-wholesale/storefront/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Local cache keys for the last successfully fetched copy of each resource.
const (
	productsCacheKey   = "catalog_products_cache"
	brandsCacheKey     = "catalog_brands_cache"
	categoriesCacheKey = "catalog_categories_cache"
)

// Loader owns the authoritative in-memory catalog collections for the page
// session. Fetches never fail the caller: a missing resource is an empty
// collection, and any other remote failure degrades to the locally cached
// copy from a prior successful fetch.
type Loader struct {
	store    *blob.Client
	cache    *localstore.Store
	logg     *logger.Logger
	metrics  *metrics.RenderMetrics
	validate *validator.Validate

	container string
}

func NewLoader(store *blob.Client, cache *localstore.Store, cfg config.BlobConfig, logg *logger.Logger, m *metrics.RenderMetrics) (*Loader, error) {
	if store == nil {
		return nil, errors.New("blob client required")
	}
	if cache == nil {
		return nil, errors.New("local cache required")
	}
	return &Loader{
		store:     store,
		cache:     cache,
		logg:      logg,
		metrics:   m,
		validate:  validator.New(),
		container: cfg.DataContainer,
	}, nil
}

// rawProduct tolerates the loose shapes found in stored catalogs: a legacy
// imageUrl field and prices as numbers or strings.
type rawProduct struct {
	ID             string          `json:"id" validate:"required"`
	Name           string          `json:"name" validate:"required"`
	Category       string          `json:"category"`
	Brand          string          `json:"brand"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Stock          int             `json:"stock"`
	Image          string          `json:"image"`
	LegacyImageURL string          `json:"imageUrl"`
}

// FetchProducts loads and normalizes the product collection. It never
// returns an error; degraded results are logged.
func (l *Loader) FetchProducts(ctx context.Context) []Product {
	var raws []rawProduct
	if !l.fetch(ctx, config.ProductsResource, productsCacheKey, &raws) {
		return []Product{}
	}

	products := make([]Product, 0, len(raws))
	for i, raw := range raws {
		product, err := l.normalizeProduct(raw)
		if err != nil {
			l.warn(ctx, fmt.Sprintf("skipping malformed product at index %d: %v", i, err))
			continue
		}
		products = append(products, product)
	}
	return products
}

// FetchBrands loads the brand collection.
func (l *Loader) FetchBrands(ctx context.Context) []Brand {
	var brands []Brand
	if !l.fetch(ctx, config.BrandsResource, brandsCacheKey, &brands) {
		return []Brand{}
	}

	valid := brands[:0]
	for i, b := range brands {
		if err := l.validate.Struct(b); err != nil {
			l.warn(ctx, fmt.Sprintf("skipping malformed brand at index %d: %v", i, err))
			continue
		}
		valid = append(valid, b)
	}
	return valid
}

// FetchCategories loads the category collection.
func (l *Loader) FetchCategories(ctx context.Context) []Category {
	var categories []Category
	if !l.fetch(ctx, config.CategoriesResource, categoriesCacheKey, &categories) {
		return []Category{}
	}

	valid := categories[:0]
	for i, c := range categories {
		if err := l.validate.Struct(c); err != nil {
			l.warn(ctx, fmt.Sprintf("skipping malformed category at index %d: %v", i, err))
			continue
		}
		valid = append(valid, c)
	}
	return valid
}

// fetch retrieves resource into dest, reporting whether dest holds usable
// data. Success refreshes the local cache; remote failure other than
// not-found falls back to it.
func (l *Loader) fetch(ctx context.Context, resource, cacheKey string, dest any) bool {
	raw := json.RawMessage{}
	err := l.store.GetJSON(ctx, l.container, resource, &raw)
	switch {
	case err == nil:
		if unmarshalErr := json.Unmarshal(raw, dest); unmarshalErr != nil {
			l.warn(ctx, fmt.Sprintf("%s: malformed payload: %v", resource, unmarshalErr))
			return l.fromCache(ctx, resource, cacheKey, dest)
		}
		if cacheErr := l.cache.Set(ctx, cacheKey, raw); cacheErr != nil {
			l.warn(ctx, fmt.Sprintf("%s: caching payload failed: %v", resource, cacheErr))
		}
		return true

	case errors.Is(err, blob.ErrNotFound):
		// Absent resource is an empty catalog, not a failure.
		l.info(ctx, fmt.Sprintf("%s not found, using empty collection", resource))
		return false

	default:
		l.warn(ctx, fmt.Sprintf("%s: fetch failed: %v", resource, err))
		return l.fromCache(ctx, resource, cacheKey, dest)
	}
}

func (l *Loader) fromCache(ctx context.Context, resource, cacheKey string, dest any) bool {
	cached, found, err := l.cache.Get(ctx, cacheKey)
	if err != nil || !found {
		return false
	}
	if err := json.Unmarshal(cached, dest); err != nil {
		l.warn(ctx, fmt.Sprintf("%s: cached payload unreadable: %v", resource, err))
		return false
	}
	l.metrics.IncCacheFallback(resource)
	l.info(ctx, fmt.Sprintf("%s served from local cache", resource))
	return true
}

func (l *Loader) normalizeProduct(raw rawProduct) (Product, error) {
	if err := l.validate.Struct(raw); err != nil {
		return Product{}, err
	}
	if raw.Price.IsNegative() {
		return Product{}, fmt.Errorf("negative price %s", raw.Price)
	}
	if raw.Stock < 0 {
		return Product{}, fmt.Errorf("negative stock %d", raw.Stock)
	}

	image := raw.Image
	if image == "" {
		image = raw.LegacyImageURL
	}

	return Product{
		ID:          raw.ID,
		Name:        raw.Name,
		Category:    raw.Category,
		Brand:       raw.Brand,
		Description: raw.Description,
		Price:       raw.Price,
		Stock:       raw.Stock,
		Image:       image,
	}, nil
}

func (l *Loader) info(ctx context.Context, msg string) {
	if l.logg != nil {
		l.logg.Info(ctx, msg)
	}
}

func (l *Loader) warn(ctx context.Context, msg string) {
	if l.logg != nil {
		l.logg.Warn(ctx, msg)
	}
}
