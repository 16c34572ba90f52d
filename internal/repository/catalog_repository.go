package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"storefront-service/internal/models"
)

// Cache TTL constants
const (
	ProductCacheTTL  = 5 * time.Minute
	CategoryCacheTTL = 30 * time.Minute // Categories rarely change
)

const cacheKeyPrefix = "storefront:"

// CatalogRepository is the data access layer for products, colors, price
// tiers and categories. Redis is optional; when nil every read goes straight
// to the database.
type CatalogRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCatalogRepository(db *gorm.DB, redisClient *redis.Client) *CatalogRepository {
	return &CatalogRepository{
		db:    db,
		redis: redisClient,
	}
}

// DB exposes the underlying gorm handle for cross-repository transactions.
func (r *CatalogRepository) DB() *gorm.DB {
	return r.db
}

func (r *CatalogRepository) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if r.redis == nil {
		return false
	}
	val, err := r.redis.Get(ctx, cacheKeyPrefix+key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

func (r *CatalogRepository) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if r.redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	r.redis.Set(ctx, cacheKeyPrefix+key, data, ttl)
}

func (r *CatalogRepository) cacheDel(ctx context.Context, keys ...string) {
	if r.redis == nil {
		return
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = cacheKeyPrefix + k
	}
	r.redis.Del(ctx, prefixed...)
}

func (r *CatalogRepository) invalidateProduct(productID uuid.UUID) {
	r.cacheDel(context.Background(),
		fmt.Sprintf("product:%s:true", productID),
		fmt.Sprintf("product:%s:false", productID),
	)
}

func (r *CatalogRepository) invalidateCategories() {
	r.cacheDel(context.Background(), "categories:list")
}

// ============================================================================
// Products
// ============================================================================

// CreateProduct creates a new product
func (r *CatalogRepository) CreateProduct(product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()
	return r.db.Create(product).Error
}

// GetProductByID retrieves a product by ID with caching
func (r *CatalogRepository) GetProductByID(productID uuid.UUID, includeRelations bool) (*models.Product, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("product:%s:%v", productID, includeRelations)

	var cached models.Product
	if r.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var product models.Product
	query := r.db.Where("id = ?", productID)
	if includeRelations {
		query = query.
			Preload("Colors", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
			Preload("Prices", func(db *gorm.DB) *gorm.DB { return db.Order("quantity_min ASC") })
	}
	if err := query.First(&product).Error; err != nil {
		return nil, err
	}

	r.cacheSet(ctx, cacheKey, product, ProductCacheTTL)
	return &product, nil
}

// GetProductBySKU retrieves a product by its supplier reference
func (r *CatalogRepository) GetProductBySKU(sku string) (*models.Product, error) {
	var product models.Product
	if err := r.db.Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct applies a partial update to a product
func (r *CatalogRepository) UpdateProduct(productID uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	err := r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(updates).Error
	if err == nil {
		r.invalidateProduct(productID)
	}
	return err
}

// SetProductImage updates the product's primary image path
func (r *CatalogRepository) SetProductImage(productID uuid.UUID, imageURL string) error {
	return r.UpdateProduct(productID, map[string]interface{}{"image_url": imageURL})
}

// DeleteProduct soft deletes a product
func (r *CatalogRepository) DeleteProduct(productID uuid.UUID) error {
	err := r.db.Where("id = ?", productID).Delete(&models.Product{}).Error
	if err == nil {
		r.invalidateProduct(productID)
	}
	return err
}

// GetProducts retrieves products with filters and pagination
func (r *CatalogRepository) GetProducts(req *models.SearchProductsRequest) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.Model(&models.Product{})

	if req.Query != nil && *req.Query != "" {
		term := "%" + strings.ToLower(strings.TrimSpace(*req.Query)) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(description) LIKE ?", term, term, term)
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		query = query.Where("category_id = ?", *req.CategoryID)
	}
	if req.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if req.SortBy != nil && *req.SortBy != "" {
		sortOrder := "DESC"
		if req.SortOrder != nil && strings.ToUpper(*req.SortOrder) == "ASC" {
			sortOrder = "ASC"
		}
		query = query.Order(fmt.Sprintf("%s %s", *req.SortBy, sortOrder))
	} else {
		query = query.Order("created_at DESC")
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// FindExistingSKUs returns the subset of the given references that already
// exist as product SKUs. Input order is not preserved; duplicates in the
// input are resolved by the caller.
func (r *CatalogRepository) FindExistingSKUs(skus []string) ([]string, error) {
	if len(skus) == 0 {
		return []string{}, nil
	}
	var existing []string
	err := r.db.Model(&models.Product{}).
		Where("sku IN ?", skus).
		Pluck("sku", &existing).Error
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// ============================================================================
// Product colors
// ============================================================================

// GetProductColors lists a product's color variants in feed order
func (r *CatalogRepository) GetProductColors(productID uuid.UUID) ([]models.ProductColor, error) {
	var colors []models.ProductColor
	err := r.db.Where("product_id = ?", productID).
		Order("position ASC").
		Find(&colors).Error
	return colors, err
}

// GetColorByName fetches one color variant by its name
func (r *CatalogRepository) GetColorByName(productID uuid.UUID, name string) (*models.ProductColor, error) {
	var color models.ProductColor
	if err := r.db.Where("product_id = ? AND name = ?", productID, name).First(&color).Error; err != nil {
		return nil, err
	}
	return &color, nil
}

// CreateColor inserts a new color variant row
func (r *CatalogRepository) CreateColor(color *models.ProductColor) error {
	if color.ID == uuid.Nil {
		color.ID = uuid.New()
	}
	color.CreatedAt = time.Now()
	color.UpdatedAt = time.Now()
	err := r.db.Create(color).Error
	if err == nil {
		r.invalidateProduct(color.ProductID)
	}
	return err
}

// UpdateColorImage replaces the stored image URL of a color variant
func (r *CatalogRepository) UpdateColorImage(colorID uuid.UUID, productID uuid.UUID, imageURL string) error {
	err := r.db.Model(&models.ProductColor{}).
		Where("id = ?", colorID).
		Updates(map[string]interface{}{"image_url": imageURL, "updated_at": time.Now()}).Error
	if err == nil {
		r.invalidateProduct(productID)
	}
	return err
}

// ============================================================================
// Product prices
// ============================================================================

// UpsertPrice creates or updates the price tier keyed by (product, quantity_min)
func (r *CatalogRepository) UpsertPrice(productID uuid.UUID, quantityMin int, quantityMax *int, price float64) error {
	var existing models.ProductPrice
	err := r.db.Where("product_id = ? AND quantity_min = ?", productID, quantityMin).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		tier := models.ProductPrice{
			ID:          uuid.New(),
			ProductID:   productID,
			QuantityMin: quantityMin,
			QuantityMax: quantityMax,
			Price:       price,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		return r.db.Create(&tier).Error
	}

	return r.db.Model(&existing).
		Updates(map[string]interface{}{"price": price, "quantity_max": quantityMax, "updated_at": time.Now()}).Error
}

// GetProductPrices lists a product's price tiers ordered by band
func (r *CatalogRepository) GetProductPrices(productID uuid.UUID) ([]models.ProductPrice, error) {
	var prices []models.ProductPrice
	err := r.db.Where("product_id = ?", productID).
		Order("quantity_min ASC").
		Find(&prices).Error
	return prices, err
}

// ============================================================================
// Categories
// ============================================================================

// GetCategories lists all categories with caching
func (r *CatalogRepository) GetCategories() ([]models.Category, error) {
	ctx := context.Background()

	var cached []models.Category
	if r.cacheGet(ctx, "categories:list", &cached) {
		return cached, nil
	}

	var categories []models.Category
	if err := r.db.Order("position ASC, name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}

	r.cacheSet(ctx, "categories:list", categories, CategoryCacheTTL)
	return categories, nil
}

// GetCategoryByID fetches one category
func (r *CatalogRepository) GetCategoryByID(categoryID uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.Where("id = ?", categoryID).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// GetCategoryByName fetches a category by exact name
func (r *CatalogRepository) GetCategoryByName(name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.Where("name = ?", name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// GetCategoryBySlug fetches a category by its slug
func (r *CatalogRepository) GetCategoryBySlug(slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateCategory inserts a category row
func (r *CatalogRepository) CreateCategory(category *models.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	category.CreatedAt = time.Now()
	category.UpdatedAt = time.Now()
	err := r.db.Create(category).Error
	if err == nil {
		r.invalidateCategories()
	}
	return err
}

// UpdateCategory applies a partial update to a category
func (r *CatalogRepository) UpdateCategory(categoryID uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	err := r.db.Model(&models.Category{}).
		Where("id = ?", categoryID).
		Updates(updates).Error
	if err == nil {
		r.invalidateCategories()
	}
	return err
}

// DeleteCategory soft deletes a category; products keep a dangling category_id
// until re-imported or edited
func (r *CatalogRepository) DeleteCategory(categoryID uuid.UUID) error {
	err := r.db.Where("id = ?", categoryID).Delete(&models.Category{}).Error
	if err == nil {
		r.invalidateCategories()
	}
	return err
}

// EnsureCategory finds a category by name or creates it with the given slug.
// Returns the category and whether it was created.
func (r *CatalogRepository) EnsureCategory(name, slug string) (*models.Category, bool, error) {
	category, err := r.GetCategoryByName(name)
	if err == nil {
		return category, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	created := &models.Category{
		Name:     name,
		Slug:     slug,
		IsActive: true,
	}
	if err := r.CreateCategory(created); err != nil {
		// Concurrent import may have created it between lookup and insert;
		// the unique constraint surfaces here, so retry the lookup once.
		if retry, retryErr := r.GetCategoryByName(name); retryErr == nil {
			return retry, false, nil
		}
		return nil, false, fmt.Errorf("failed to create category %q: %w", name, err)
	}
	return created, true, nil
}
