// Package admin is the catalog write path: whole-array saves of products,
// brands, and categories plus image uploads, all against the remote object
// store with a bearer token from the identity provider. Writes are
// last-write-wins; the storefront read path stays token-free.
package admin

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/northbay-wholesale/storefront/internal/catalog"
	"github.com/northbay-wholesale/storefront/internal/identity"
	"github.com/northbay-wholesale/storefront/pkg/blob"
	"github.com/northbay-wholesale/storefront/pkg/config"
	pkgerrors "github.com/northbay-wholesale/storefront/pkg/errors"
	"github.com/northbay-wholesale/storefront/pkg/logger"
)

// Service performs catalog writes. Every operation resolves a fresh bearer
// token; the object store enforces the contributor role.
type Service struct {
	store    *blob.Client
	provider identity.Provider
	cfg      config.BlobConfig
	scope    string
	logg     *logger.Logger
	validate *validator.Validate
}

func NewService(store *blob.Client, provider identity.Provider, cfg config.BlobConfig, scope string, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "admin service requires a blob client")
	}
	if provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "admin service requires an identity provider")
	}
	return &Service{
		store:    store,
		provider: provider,
		cfg:      cfg,
		scope:    scope,
		logg:     logg,
		validate: validator.New(),
	}, nil
}

// SaveProducts replaces the whole product collection.
func (s *Service) SaveProducts(ctx context.Context, products []catalog.Product) error {
	return s.putJSON(ctx, config.ProductsResource, emptyNotNil(products))
}

// SaveBrands replaces the whole brand collection.
func (s *Service) SaveBrands(ctx context.Context, brands []catalog.Brand) error {
	return s.putJSON(ctx, config.BrandsResource, emptyNotNil(brands))
}

// SaveCategories replaces the whole category collection.
func (s *Service) SaveCategories(ctx context.Context, categories []catalog.Category) error {
	return s.putJSON(ctx, config.CategoriesResource, emptyNotNil(categories))
}

// UpsertProduct inserts the product or replaces the entry with the same ID.
// A product without an ID gets a generated one.
func (s *Service) UpsertProduct(ctx context.Context, product catalog.Product) (catalog.Product, error) {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if err := s.validate.Struct(product); err != nil {
		return catalog.Product{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product")
	}
	if product.Price.IsNegative() || product.Stock < 0 {
		return catalog.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "price and stock must not be negative")
	}

	products, err := s.fetchProducts(ctx)
	if err != nil {
		return catalog.Product{}, err
	}

	replaced := false
	for i := range products {
		if products[i].ID == product.ID {
			products[i] = product
			replaced = true
			break
		}
	}
	if !replaced {
		products = append(products, product)
	}

	if err := s.SaveProducts(ctx, products); err != nil {
		return catalog.Product{}, err
	}
	return product, nil
}

// DeleteProduct removes the product and, when it owns a store-hosted image,
// deletes that image too. Deleting an absent product is a no-op.
func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	products, err := s.fetchProducts(ctx)
	if err != nil {
		return err
	}

	image := ""
	kept := products[:0]
	found := false
	for _, p := range products {
		if p.ID == productID {
			found = true
			image = p.Image
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return nil
	}

	if err := s.SaveProducts(ctx, kept); err != nil {
		return err
	}
	if name, ok := s.ownedImageName(image); ok {
		if err := s.deleteImage(ctx, name); err != nil && s.logg != nil {
			// The product row is already gone; an orphaned image is not
			// worth failing the delete.
			s.logg.Warn(ctx, "deleting product image failed: "+name)
		}
	}
	return nil
}

// UploadImage stores the image under a generated name, preserving the
// original extension, and returns the store-relative reference to put on the
// product.
func (s *Service) UploadImage(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	token, err := s.token(ctx)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + strings.ToLower(path.Ext(filename))
	if err := s.store.PutBinary(ctx, s.cfg.ImagesContainer, name, contentType, r, token); err != nil {
		return "", s.storeError(err, "uploading image")
	}
	return s.cfg.ImagesContainer + "/" + name, nil
}

// AddCategory appends a new category. Names are unique case-insensitively.
func (s *Service) AddCategory(ctx context.Context, name string) (catalog.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return catalog.Category{}, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	categories, err := s.fetchCategories(ctx)
	if err != nil {
		return catalog.Category{}, err
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return catalog.Category{}, pkgerrors.New(pkgerrors.CodeConflict, "category already exists: "+c.Name)
		}
	}

	category := catalog.Category{ID: uuid.NewString(), Name: name}
	if err := s.SaveCategories(ctx, append(categories, category)); err != nil {
		return catalog.Category{}, err
	}
	return category, nil
}

// DeleteCategory removes the category; absent IDs are a no-op.
func (s *Service) DeleteCategory(ctx context.Context, categoryID string) error {
	categories, err := s.fetchCategories(ctx)
	if err != nil {
		return err
	}

	kept := categories[:0]
	found := false
	for _, c := range categories {
		if c.ID == categoryID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return nil
	}
	return s.SaveCategories(ctx, kept)
}

// AddBrand appends a new brand. Names are unique case-insensitively.
func (s *Service) AddBrand(ctx context.Context, name, logoURL string) (catalog.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return catalog.Brand{}, pkgerrors.New(pkgerrors.CodeValidation, "brand name is required")
	}

	brands, err := s.fetchBrands(ctx)
	if err != nil {
		return catalog.Brand{}, err
	}
	for _, b := range brands {
		if strings.EqualFold(b.Name, name) {
			return catalog.Brand{}, pkgerrors.New(pkgerrors.CodeConflict, "brand already exists: "+b.Name)
		}
	}

	brand := catalog.Brand{ID: uuid.NewString(), Name: name, LogoURL: logoURL}
	if err := s.SaveBrands(ctx, append(brands, brand)); err != nil {
		return catalog.Brand{}, err
	}
	return brand, nil
}

// DeleteBrand removes the brand; absent IDs are a no-op.
func (s *Service) DeleteBrand(ctx context.Context, brandID string) error {
	brands, err := s.fetchBrands(ctx)
	if err != nil {
		return err
	}

	kept := brands[:0]
	found := false
	for _, b := range brands {
		if b.ID == brandID {
			found = true
			continue
		}
		kept = append(kept, b)
	}
	if !found {
		return nil
	}
	return s.SaveBrands(ctx, kept)
}

func (s *Service) fetchProducts(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := s.fetch(ctx, config.ProductsResource, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Service) fetchBrands(ctx context.Context) ([]catalog.Brand, error) {
	var brands []catalog.Brand
	if err := s.fetch(ctx, config.BrandsResource, &brands); err != nil {
		return nil, err
	}
	return brands, nil
}

func (s *Service) fetchCategories(ctx context.Context) ([]catalog.Category, error) {
	var categories []catalog.Category
	if err := s.fetch(ctx, config.CategoriesResource, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// fetch reads the current collection for a read-modify-write cycle. Unlike
// the storefront loader, admin reads fail loudly; writing on top of stale or
// unknown state would lose data. A missing resource is an empty collection.
func (s *Service) fetch(ctx context.Context, resource string, dest any) error {
	err := s.store.GetJSON(ctx, s.cfg.DataContainer, resource, dest)
	if errors.Is(err, blob.ErrNotFound) {
		return nil
	}
	if err != nil {
		return s.storeError(err, "reading "+resource)
	}
	return nil
}

func (s *Service) putJSON(ctx context.Context, resource string, body any) error {
	token, err := s.token(ctx)
	if err != nil {
		return err
	}
	if err := s.store.PutJSON(ctx, s.cfg.DataContainer, resource, body, token); err != nil {
		return s.storeError(err, "writing "+resource)
	}
	return nil
}

func (s *Service) deleteImage(ctx context.Context, name string) error {
	token, err := s.token(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, s.cfg.ImagesContainer, name, token); err != nil {
		return s.storeError(err, "deleting image "+name)
	}
	return nil
}

func (s *Service) token(ctx context.Context) (string, error) {
	token, err := s.provider.AccessToken(ctx, s.scope)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "sign-in required for catalog writes")
	}
	return token, nil
}

// ownedImageName extracts the blob name for images hosted in this store's
// images container. External URLs are never deleted.
func (s *Service) ownedImageName(ref string) (string, bool) {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return "", false
	}
	prefix := s.cfg.ImagesContainer + "/"
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, prefix)
	if name == "" {
		return "", false
	}
	return name, true
}

func (s *Service) storeError(err error, msg string) error {
	var terr *blob.TransportError
	if errors.As(err, &terr) {
		switch terr.StatusCode() {
		case 401:
			return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "the store rejected the credentials")
		case 403:
			return pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "the account lacks write access to the catalog")
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func emptyNotNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
