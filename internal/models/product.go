package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product represents a catalog product. The SKU is the supplier reference and
// the reconciliation key for imports: products are created on first import of
// a new reference and are never deleted by the import pipeline.
type Product struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	SKU         string          `json:"sku" gorm:"not null;uniqueIndex:idx_products_sku"`
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description"`
	ImageURL    *string         `json:"imageUrl,omitempty" gorm:"column:image_url"`
	Stock       int             `json:"stock" gorm:"not null;default:0"`
	Weight      *string         `json:"weight,omitempty"`
	CategoryID  *uuid.UUID      `json:"categoryId,omitempty" gorm:"type:uuid;index"`
	IsActive    bool            `json:"isActive" gorm:"default:true"`
	Colors      []ProductColor  `json:"colors,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Prices      []ProductPrice  `json:"prices,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// ProductColor is one color variant of a product, unique per (product, name).
// Exactly one variant per product is flagged as main; Position preserves the
// order in which variants were first seen in the supplier feed.
type ProductColor struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;uniqueIndex:idx_product_colors_name"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex:idx_product_colors_name"`
	ImageURL  *string   `json:"imageUrl,omitempty" gorm:"column:image_url"`
	IsMain    bool      `json:"isMain" gorm:"column:is_main;default:false"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProductPrice is one quantity-band price tier, unique per (product, quantity_min).
// QuantityMax is nil for the open-ended top band.
type ProductPrice struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID   uuid.UUID `json:"productId" gorm:"type:uuid;not null;uniqueIndex:idx_product_prices_min"`
	QuantityMin int       `json:"quantityMin" gorm:"not null;uniqueIndex:idx_product_prices_min"`
	QuantityMax *int      `json:"quantityMax,omitempty"`
	Price       float64   `json:"price" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Category groups products. Name and slug are both unique; the slug is derived
// deterministically from the name (lowercased, accents stripped, hyphenated).
type Category struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string          `json:"name" gorm:"not null;uniqueIndex:idx_categories_name"`
	Slug        string          `json:"slug" gorm:"not null;uniqueIndex:idx_categories_slug"`
	Description *string         `json:"description,omitempty"`
	ImageURL    *string         `json:"imageUrl,omitempty" gorm:"column:image_url"`
	Position    int             `json:"position" gorm:"not null;default:0"`
	IsActive    bool            `json:"isActive" gorm:"default:true"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// TableName returns the table name for the ProductColor model
func (ProductColor) TableName() string {
	return "product_colors"
}

// TableName returns the table name for the ProductPrice model
func (ProductPrice) TableName() string {
	return "product_prices"
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	SKU         string  `json:"sku" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	Stock       *int    `json:"stock,omitempty"`
	Weight      *string `json:"weight,omitempty"`
	CategoryID  *string `json:"categoryId,omitempty"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	Stock       *int    `json:"stock,omitempty"`
	Weight      *string `json:"weight,omitempty"`
	CategoryID  *string `json:"categoryId,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	Position    *int    `json:"position,omitempty"`
}

// UpdateCategoryRequest represents a request to update a category
type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	Position    *int    `json:"position,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// SearchProductsRequest represents product list filters
type SearchProductsRequest struct {
	Query      *string `json:"query,omitempty" form:"query"`
	CategoryID *string `json:"categoryId,omitempty" form:"categoryId"`
	ActiveOnly bool    `json:"activeOnly,omitempty" form:"activeOnly"`
	SortBy     *string `json:"sortBy,omitempty" form:"sortBy"`
	SortOrder  *string `json:"sortOrder,omitempty" form:"sortOrder"`
	Page       int     `json:"page" form:"page"`
	Limit      int     `json:"limit" form:"limit"`
}
