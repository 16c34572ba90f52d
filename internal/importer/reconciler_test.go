package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
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

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// stubDownloader records download calls and fails for configured URLs. A
// successful download writes a marker file so path handling is exercised.
type stubDownloader struct {
	calls   []string
	failFor map[string]bool
}

func (d *stubDownloader) Download(url, destPath string) error {
	d.calls = append(d.calls, url)
	if d.failFor[url] {
		return fmt.Errorf("download refused")
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(destPath, []byte("img"), 0o644)
}

type testEnv struct {
	db         *gorm.DB
	catalog    *repository.CatalogRepository
	queue      *repository.QueueRepository
	downloader *stubDownloader
	reconciler *Reconciler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	catalog := repository.NewCatalogRepository(db, nil)
	queueRepo := repository.NewQueueRepository(db)
	dl := &stubDownloader{failFor: map[string]bool{}}
	rc := NewReconciler(catalog, queueRepo, dl, testLogger(), t.TempDir(), 0, "Uncategorized")
	return &testEnv{db: db, catalog: catalog, queue: queueRepo, downloader: dl, reconciler: rc}
}

func basicMapping() models.ColumnMapping {
	return models.ColumnMapping{
		models.FieldReference:    "ref",
		models.FieldName:         "name",
		models.FieldDescription:  "desc",
		models.FieldColor:        "color",
		models.FieldWeight:       "weight",
		models.FieldStock:        "stock",
		models.FieldMainImage:    "main_img",
		models.FieldColorImage:   "color_img",
		models.FieldImageURL:     "img",
		models.FieldCategoryName: "cat",
		models.FieldCategoryID:   "cat_id",
	}
}

func TestImportCreatesProductWithCategoryColorsAndPrices(t *testing.T) {
	env := newTestEnv(t)

	req := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		Products: []models.MappedRow{
			{"ref": "MK-1", "name": "Tote Bag", "desc": "Cotton bag", "cat": "Bolsas Café", "stock": "150", "weight": "0.045", "color": "Red", "color_img": "http://cdn/red.jpg"},
			{"ref": "MK-1", "color": "Blue", "color_img": "http://cdn/blue.jpg"},
		},
		Prices: []models.MappedRow{
			{"ref": "MK-1", "price_1_499": "2,10", "price_500_1999": "1,85", "price_2000_4999": "1,60", "price_5000": "1,40"},
		},
		DuplicateAction: models.DuplicateActionSkip,
	}

	summary, err := env.reconciler.Run(req)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ProductsImported)
	assert.Equal(t, 1, summary.CategoriesCreated)
	assert.Equal(t, 2, summary.ColorsAggregated)
	assert.Equal(t, 4, summary.PricesMatched)
	assert.Equal(t, 1, summary.TotalProcessed)
	assert.Empty(t, summary.Errors)

	product, err := env.catalog.GetProductBySKU("MK-1")
	require.NoError(t, err)
	assert.Equal(t, "Tote Bag", product.Name)
	assert.Equal(t, "Cotton bag", product.Description)
	assert.Equal(t, 150, product.Stock)
	require.NotNil(t, product.Weight)
	assert.Equal(t, "0.045", *product.Weight)
	assert.True(t, product.IsActive)

	require.NotNil(t, product.CategoryID)
	category, err := env.catalog.GetCategoryByID(*product.CategoryID)
	require.NoError(t, err)
	assert.Equal(t, "Bolsas Café", category.Name)
	assert.Equal(t, "bolsas-cafe", category.Slug)

	colors, err := env.catalog.GetProductColors(product.ID)
	require.NoError(t, err)
	require.Len(t, colors, 2)
	assert.Equal(t, "Red", colors[0].Name)
	assert.True(t, colors[0].IsMain)
	assert.Equal(t, 0, colors[0].Position)
	assert.Equal(t, "Blue", colors[1].Name)
	assert.False(t, colors[1].IsMain)
	assert.Equal(t, 1, colors[1].Position)
	require.NotNil(t, colors[0].ImageURL)
	assert.Equal(t, "/uploads/products/mk-1-red.jpg", *colors[0].ImageURL)

	prices, err := env.catalog.GetProductPrices(product.ID)
	require.NoError(t, err)
	require.Len(t, prices, 4)
	assert.Equal(t, 1, prices[0].QuantityMin)
	assert.InDelta(t, 2.10, prices[0].Price, 0.0001)
	assert.Equal(t, 5000, prices[3].QuantityMin)
	assert.Nil(t, prices[3].QuantityMax)
}

func TestImportReusesExistingCategory(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.catalog.CreateCategory(&models.Category{Name: "Bags", Slug: "bags", IsActive: true}))

	req := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		Products: []models.MappedRow{
			{"ref": "MK-1", "name": "Tote", "desc": "d", "cat": "Bags"},
		},
	}

	summary, err := env.reconciler.Run(req)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.CategoriesCreated)

	categories, err := env.catalog.GetCategories()
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestImportFallbackCategory(t *testing.T) {
	env := newTestEnv(t)

	req := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		Products: []models.MappedRow{
			{"ref": "MK-1", "name": "Tote", "desc": "d"},
		},
	}

	summary, err := env.reconciler.Run(req)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CategoriesCreated)

	product, err := env.catalog.GetProductBySKU("MK-1")
	require.NoError(t, err)
	require.NotNil(t, product.CategoryID)
	category, err := env.catalog.GetCategoryByID(*product.CategoryID)
	require.NoError(t, err)
	assert.Equal(t, "Uncategorized", category.Name)
}

func TestImportSkipLeavesExistingUntouched(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.catalog.CreateProduct(&models.Product{
		SKU: "MK-1", Name: "Original", Description: "Original desc", Stock: 9, IsActive: true,
	}))

	req := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		Products: []models.MappedRow{
			{"ref": "MK-1", "name": "Replacement", "desc": "New desc", "stock": "100", "color": "Red"},
		},
		DuplicateAction: models.DuplicateActionSkip,
	}

	summary, err := env.reconciler.Run(req)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.ProductsImported)
	assert.Equal(t, 0, summary.ColorsAggregated)
	assert.Equal(t, 1, summary.TotalProcessed)

	product, err := env.catalog.GetProductBySKU("MK-1")
	require.NoError(t, err)
	assert.Equal(t, "Original", product.Name)
	assert.Equal(t, 9, product.Stock)

	colors, err := env.catalog.GetProductColors(product.ID)
	require.NoError(t, err)
	assert.Empty(t, colors)
}

func TestImportUpdateOverwritesScalars(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.catalog.CreateProduct(&models.Product{
		SKU: "MK-1", Name: "Original", Description: "Old", Stock: 9, IsActive: true,
	}))

	req := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		Products: []models.MappedRow{
			{"ref": "MK-1", "name": "Updated", "desc": "New", "stock": "42"},
		},
		DuplicateAction: models.DuplicateActionUpdate,
	}

	summary, err := env.reconciler.Run(req)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ProductsImported)

	product, err := env.catalog.GetProductBySKU("MK-1")
	require.NoError(t, err)
	assert.Equal(t, "Updated", product.Name)
	assert.Equal(t, "New", product.Description)
	assert.Equal(t, 42, product.Stock)
}

func TestImportMainImagePreferredOverGeneric(t *testing.T) {
	env := newTestEnv(t)

	req := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		Products: []models.MappedRow{
			{"ref": "MK-1", "name": "Tote", "desc": "d", "main_img": "http://cdn/main.jpg", "img": "http://cdn/generic.jpg"},
		},
	}

	_, err := env.reconciler.Run(req)
	require.NoError(t, err)

	assert.Contains(t, env.downloader.calls, "http://cdn/main.jpg")
	assert.NotContains(t, env.downloader.calls, "http://cdn/generic.jpg")

	product, err := env.catalog.GetProductBySKU("MK-1")
	require.NoError(t, err)
	require.NotNil(t, product.ImageURL)
	assert.Equal(t, "/uploads/products/mk-1.jpg", *product.ImageURL)
}

func TestImportPrimaryImageFailureIsNotQueued(t *testing.T) {
	env := newTestEnv(t)
	env.downloader.failFor["http://cdn/main.jpg"] = true

	req := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		Products: []models.MappedRow{
			{"ref": "MK-1", "name": "Tote", "desc": "d", "main_img": "http://cdn/main.jpg"},
		},
	}

	summary, err := env.reconciler.Run(req)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ProductsImported)
	assert.Equal(t, 0, summary.ImagesInQueue)
	assert.Empty(t, summary.Errors)

	product, err := env.catalog.GetProductBySKU("MK-1")
	require.NoError(t, err)
	assert.Nil(t, product.ImageURL)

	status, err := env.queue.Counts()
	require.NoError(t, err)
	assert.Equal(t, int64(0), status.Total)
}

func TestImportColorImageFailureIsQueued(t *testing.T) {
	env := newTestEnv(t)
	env.downloader.failFor["http://cdn/red.jpg"] = true

	req := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		Products: []models.MappedRow{
			{"ref": "MK-1", "name": "Tote", "desc": "d", "color": "Red", "color_img": "http://cdn/red.jpg"},
		},
	}

	summary, err := env.reconciler.Run(req)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ImagesInQueue)

	product, err := env.catalog.GetProductBySKU("MK-1")
	require.NoError(t, err)

	entry, err := env.queue.GetByProductID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/red.jpg", entry.ImageURL)
	require.NotNil(t, entry.ColorName)
	assert.Equal(t, "Red", *entry.ColorName)
	assert.Equal(t, models.ImageQueueStatusPending, entry.Status)
	assert.Equal(t, 0, entry.Attempts)
}

func TestImportIsolatesFailingReferences(t *testing.T) {
	env := newTestEnv(t)

	req := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		Products: []models.MappedRow{
			{"ref": "BAD-1", "desc": "no name"},
			{"ref": "MK-1", "name": "Tote", "desc": "d"},
		},
	}

	summary, err := env.reconciler.Run(req)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalProcessed)
	assert.Equal(t, 1, summary.ProductsImported)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "BAD-1")

	_, err = env.catalog.GetProductBySKU("MK-1")
	assert.NoError(t, err)
}

func TestImportRowsWithoutReferenceAreDropped(t *testing.T) {
	env := newTestEnv(t)

	req := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		Products: []models.MappedRow{
			{"ref": "", "name": "Nameless", "desc": "d"},
			{"name": "No ref column", "desc": "d"},
			{"ref": "MK-1", "name": "Tote", "desc": "d"},
		},
	}

	summary, err := env.reconciler.Run(req)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalProcessed)
	assert.Equal(t, 1, summary.ProductsImported)
}

func TestImportRejectsIncompleteMapping(t *testing.T) {
	env := newTestEnv(t)

	req := &models.AdvancedImportRequest{
		ColumnMapping: models.ColumnMapping{models.FieldReference: "ref"},
		Products:      []models.MappedRow{{"ref": "MK-1"}},
	}

	_, err := env.reconciler.Run(req)
	assert.Error(t, err)
}

func TestImportNonExternalImageValuesStoredVerbatim(t *testing.T) {
	env := newTestEnv(t)

	req := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		Products: []models.MappedRow{
			{"ref": "MK-1", "name": "Tote", "desc": "d", "main_img": "images/main.jpg", "color": "Red", "color_img": "images/red.jpg"},
		},
	}

	summary, err := env.reconciler.Run(req)
	require.NoError(t, err)

	// Local paths never reach the downloader or the queue.
	assert.Empty(t, env.downloader.calls)
	assert.Equal(t, 0, summary.ImagesInQueue)

	product, err := env.catalog.GetProductBySKU("MK-1")
	require.NoError(t, err)
	require.NotNil(t, product.ImageURL)
	assert.Equal(t, "images/main.jpg", *product.ImageURL)

	color, err := env.catalog.GetColorByName(product.ID, "Red")
	require.NoError(t, err)
	require.NotNil(t, color.ImageURL)
	assert.Equal(t, "images/red.jpg", *color.ImageURL)

	status, err := env.queue.Counts()
	require.NoError(t, err)
	assert.Equal(t, int64(0), status.Total)
}

func TestImportUpdateKeepsSingleMainVariant(t *testing.T) {
	env := newTestEnv(t)

	first := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		Products: []models.MappedRow{
			{"ref": "MK-1", "name": "Tote", "desc": "d", "color": "Red"},
		},
	}
	_, err := env.reconciler.Run(first)
	require.NoError(t, err)

	// A re-import whose first row carries a new color must not mint a
	// second main variant.
	second := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		Products: []models.MappedRow{
			{"ref": "MK-1", "name": "Tote", "desc": "d", "color": "Blue"},
			{"ref": "MK-1", "color": "Red"},
		},
		DuplicateAction: models.DuplicateActionUpdate,
	}
	_, err = env.reconciler.Run(second)
	require.NoError(t, err)

	product, err := env.catalog.GetProductBySKU("MK-1")
	require.NoError(t, err)
	colors, err := env.catalog.GetProductColors(product.ID)
	require.NoError(t, err)
	require.Len(t, colors, 2)

	mains := 0
	for _, color := range colors {
		if color.IsMain {
			mains++
			assert.Equal(t, "Red", color.Name)
		}
	}
	assert.Equal(t, 1, mains)
}

func TestImportCategoryNameWinsOverID(t *testing.T) {
	env := newTestEnv(t)

	other := &models.Category{Name: "Other", Slug: "other", IsActive: true}
	require.NoError(t, env.catalog.CreateCategory(other))

	req := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		Products: []models.MappedRow{
			{"ref": "MK-1", "name": "Tote", "desc": "d", "cat": "Bags", "cat_id": other.ID.String()},
		},
	}
	_, err := env.reconciler.Run(req)
	require.NoError(t, err)

	product, err := env.catalog.GetProductBySKU("MK-1")
	require.NoError(t, err)
	require.NotNil(t, product.CategoryID)
	category, err := env.catalog.GetCategoryByID(*product.CategoryID)
	require.NoError(t, err)
	assert.Equal(t, "Bags", category.Name)
}

func TestImportCategoryByIDOnly(t *testing.T) {
	env := newTestEnv(t)

	bags := &models.Category{Name: "Bags", Slug: "bags", IsActive: true}
	require.NoError(t, env.catalog.CreateCategory(bags))

	req := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		Products: []models.MappedRow{
			{"ref": "MK-1", "name": "Tote", "desc": "d", "cat_id": bags.ID.String()},
		},
	}
	summary, err := env.reconciler.Run(req)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.CategoriesCreated)

	product, err := env.catalog.GetProductBySKU("MK-1")
	require.NoError(t, err)
	require.NotNil(t, product.CategoryID)
	assert.Equal(t, bags.ID, *product.CategoryID)
}

func TestImportMainVariantInheritsPrimaryImage(t *testing.T) {
	env := newTestEnv(t)

	req := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		Products: []models.MappedRow{
			{"ref": "MK-1", "name": "Tote", "desc": "d", "main_img": "http://cdn/main.jpg", "color": "Red"},
			{"ref": "MK-1", "color": "Blue"},
		},
	}
	_, err := env.reconciler.Run(req)
	require.NoError(t, err)

	product, err := env.catalog.GetProductBySKU("MK-1")
	require.NoError(t, err)

	red, err := env.catalog.GetColorByName(product.ID, "Red")
	require.NoError(t, err)
	require.NotNil(t, red.ImageURL)
	assert.Equal(t, "/uploads/products/mk-1.jpg", *red.ImageURL)

	// Only the main variant inherits; others stay without an image.
	blue, err := env.catalog.GetColorByName(product.ID, "Blue")
	require.NoError(t, err)
	assert.Nil(t, blue.ImageURL)
}

func TestImportCombinedOnlyDescription(t *testing.T) {
	env := newTestEnv(t)

	mapping := basicMapping()
	delete(mapping, models.FieldDescription)

	req := &models.AdvancedImportRequest{
		ColumnMapping: mapping,
		CombinedFields: models.CombinedFields{
			models.FieldDescription: {"material", "gsm"},
		},
		Products: []models.MappedRow{
			{"ref": "MK-1", "name": "Tote", "material": "Cotton", "gsm": "140g"},
		},
	}

	summary, err := env.reconciler.Run(req)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ProductsImported)

	product, err := env.catalog.GetProductBySKU("MK-1")
	require.NoError(t, err)
	assert.Equal(t, "Cotton 140g", product.Description)
}

func TestImportCombinedFields(t *testing.T) {
	env := newTestEnv(t)

	req := &models.AdvancedImportRequest{
		ColumnMapping: basicMapping(),
		CombinedFields: models.CombinedFields{
			models.FieldDescription: {"material", "gsm"},
		},
		Products: []models.MappedRow{
			{"ref": "MK-1", "name": "Tote", "desc": "Natural bag", "material": "Cotton", "gsm": "140g"},
		},
	}

	_, err := env.reconciler.Run(req)
	require.NoError(t, err)

	product, err := env.catalog.GetProductBySKU("MK-1")
	require.NoError(t, err)
	assert.Equal(t, "Natural bag Cotton 140g", product.Description)
}
