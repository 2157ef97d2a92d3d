package assets

import (
	"context"
	"testing"

	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/i18n"
	"github.com/example/ec-storefront/internal/infrastructure/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedFixturesDecode(t *testing.T) {
	ctx := context.Background()
	source := fixture.NewFSSource(FS)

	catalog := product.NewCatalog(source, nil)
	products := catalog.Products(ctx)
	assert.NotEmpty(t, products)
	for _, c := range catalog.Categories(ctx) {
		assert.NotEmpty(t, catalog.ProductsByCategory(ctx, c.ID), "category %d has products", c.ID)
	}

	users, err := fixture.FetchJSON[[]map[string]any](ctx, source, fixture.UsersPath)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestEmbeddedTranslationsShareKeys(t *testing.T) {
	ctx := context.Background()
	loader := i18n.NewLoader(fixture.NewFSSource(FS), nil)

	pl, err := loader.Load(ctx, "pl")
	require.NoError(t, err)
	en, err := loader.Load(ctx, "en")
	require.NoError(t, err)

	for _, key := range []string{"app.title", "app.cart.title", "checkout.errors.required", "orders.status.shipped"} {
		assert.NotEqual(t, key, i18n.Lookup(pl, key), key)
		assert.NotEqual(t, key, i18n.Lookup(en, key), key)
	}
	assert.Equal(t, "Hello John, welcome!", i18n.Translate(en, "welcome.message", map[string]string{"name": "John"}))
}
