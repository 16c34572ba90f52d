package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"storefront-service/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.ProductColor{},
		&models.ProductPrice{},
		&models.ImageQueueEntry{},
	))
	return db
}

func TestFindExistingSKUs(t *testing.T) {
	repo := NewCatalogRepository(setupTestDB(t), nil)

	require.NoError(t, repo.CreateProduct(&models.Product{SKU: "MK-1", Name: "A", IsActive: true}))
	require.NoError(t, repo.CreateProduct(&models.Product{SKU: "MK-2", Name: "B", IsActive: true}))

	existing, err := repo.FindExistingSKUs([]string{"MK-1", "MK-2", "MK-3"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"MK-1", "MK-2"}, existing)

	existing, err = repo.FindExistingSKUs([]string{"MK-9"})
	require.NoError(t, err)
	assert.Empty(t, existing)

	existing, err = repo.FindExistingSKUs(nil)
	require.NoError(t, err)
	assert.Empty(t, existing)
}

func TestEnsureCategoryCreatesOnce(t *testing.T) {
	repo := NewCatalogRepository(setupTestDB(t), nil)

	category, created, err := repo.EnsureCategory("Bags", "bags")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "bags", category.Slug)

	again, created, err := repo.EnsureCategory("Bags", "bags")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, category.ID, again.ID)

	categories, err := repo.GetCategories()
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestUpsertPrice(t *testing.T) {
	repo := NewCatalogRepository(setupTestDB(t), nil)

	product := &models.Product{SKU: "MK-1", Name: "A", IsActive: true}
	require.NoError(t, repo.CreateProduct(product))

	max := 499
	require.NoError(t, repo.UpsertPrice(product.ID, 1, &max, 2.10))
	require.NoError(t, repo.UpsertPrice(product.ID, 5000, nil, 1.40))

	// Re-importing the same band overwrites instead of duplicating.
	require.NoError(t, repo.UpsertPrice(product.ID, 1, &max, 1.99))

	prices, err := repo.GetProductPrices(product.ID)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, 1, prices[0].QuantityMin)
	assert.InDelta(t, 1.99, prices[0].Price, 0.0001)
	assert.Equal(t, 5000, prices[1].QuantityMin)
	assert.Nil(t, prices[1].QuantityMax)
}

func TestGetProductsFilters(t *testing.T) {
	repo := NewCatalogRepository(setupTestDB(t), nil)

	category := &models.Category{Name: "Bags", Slug: "bags", IsActive: true}
	require.NoError(t, repo.CreateCategory(category))

	require.NoError(t, repo.CreateProduct(&models.Product{SKU: "MK-1", Name: "Cotton Tote", CategoryID: &category.ID, IsActive: true}))
	require.NoError(t, repo.CreateProduct(&models.Product{SKU: "MK-2", Name: "Steel Mug", IsActive: true}))
	require.NoError(t, repo.CreateProduct(&models.Product{SKU: "MK-3", Name: "Hidden Tote", IsActive: false}))

	query := "tote"
	products, total, err := repo.GetProducts(&models.SearchProductsRequest{Query: &query, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, products, 2)

	products, total, err = repo.GetProducts(&models.SearchProductsRequest{Query: &query, ActiveOnly: true, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "MK-1", products[0].SKU)

	catID := category.ID.String()
	_, total, err = repo.GetProducts(&models.SearchProductsRequest{CategoryID: &catID, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestSoftDeleteHidesProduct(t *testing.T) {
	repo := NewCatalogRepository(setupTestDB(t), nil)

	product := &models.Product{SKU: "MK-1", Name: "A", IsActive: true}
	require.NoError(t, repo.CreateProduct(product))
	require.NoError(t, repo.DeleteProduct(product.ID))

	_, err := repo.GetProductBySKU("MK-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	existing, err := repo.FindExistingSKUs([]string{"MK-1"})
	require.NoError(t, err)
	assert.Empty(t, existing)
}
