package product

import (
	"context"

	"github.com/example/ec-storefront/internal/infrastructure/fixture"
	"go.uber.org/zap"
)

// Catalog reads products and categories from the fixture source.
// A failed fetch is logged and yields an empty result.
type Catalog struct {
	source fixture.Source
	logger *zap.Logger
}

func NewCatalog(source fixture.Source, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{source: source, logger: logger.Named("catalog")}
}

// Products returns every valid product of the catalog
func (c *Catalog) Products(ctx context.Context) []Product {
	products, err := fixture.FetchJSON[[]Product](ctx, c.source, fixture.ProductsPath)
	if err != nil {
		c.logger.Error("failed to load products", zap.Error(err))
		return []Product{}
	}

	valid := make([]Product, 0, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			c.logger.Warn("skipping invalid product", zap.Int64("product_id", p.ID), zap.Error(err))
			continue
		}
		valid = append(valid, p)
	}
	c.logger.Debug("loaded products", zap.Int("count", len(valid)))
	return valid
}

// ProductsByCategory returns the products of one category
func (c *Catalog) ProductsByCategory(ctx context.Context, categoryID int64) []Product {
	filtered := make([]Product, 0)
	for _, p := range c.Products(ctx) {
		if p.CategoryID == categoryID {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Product looks up a single product by id
func (c *Catalog) Product(ctx context.Context, id int64) (Product, error) {
	for _, p := range c.Products(ctx) {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrProductNotFound
}

// Categories returns every category
func (c *Catalog) Categories(ctx context.Context) []Category {
	categories, err := fixture.FetchJSON[[]Category](ctx, c.source, fixture.CategoriesPath)
	if err != nil {
		c.logger.Error("failed to load categories", zap.Error(err))
		return []Category{}
	}
	return categories
}
