package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Page is an admin-editable CMS page served on the storefront by slug.
type Page struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Slug      string          `json:"slug" gorm:"not null;uniqueIndex:idx_pages_slug"`
	Title     string          `json:"title" gorm:"not null"`
	Content   string          `json:"content"`
	Published bool            `json:"published" gorm:"default:false"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// MenuItem is one entry of the storefront navigation menu.
type MenuItem struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Label     string     `json:"label" gorm:"not null"`
	URL       string     `json:"url" gorm:"not null"`
	Position  int        `json:"position" gorm:"not null;default:0"`
	ParentID  *uuid.UUID `json:"parentId,omitempty" gorm:"type:uuid;index"`
	IsActive  bool       `json:"isActive" gorm:"default:true"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Setting is a key/value storefront configuration entry.
type Setting struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Key       string    `json:"key" gorm:"not null;uniqueIndex:idx_settings_key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderStatus values for the order lifecycle
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order is a storefront order with denormalized customer contact fields.
type Order struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Reference     string          `json:"reference" gorm:"not null;uniqueIndex:idx_orders_reference"`
	CustomerName  string          `json:"customerName" gorm:"not null"`
	CustomerEmail string          `json:"customerEmail" gorm:"not null"`
	CustomerPhone *string         `json:"customerPhone,omitempty"`
	Company       *string         `json:"company,omitempty"`
	Address       *string         `json:"address,omitempty"`
	Status        OrderStatus     `json:"status" gorm:"not null;default:'NEW';index"`
	Total         float64         `json:"total" gorm:"not null;default:0"`
	Notes         *string         `json:"notes,omitempty"`
	Items         []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	DeletedAt     *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// OrderItem is one product line of an order. Product fields are denormalized
// so the order survives later catalog changes.
type OrderItem struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID  `json:"orderId" gorm:"type:uuid;not null;index"`
	ProductID *uuid.UUID `json:"productId,omitempty" gorm:"type:uuid"`
	SKU       string     `json:"sku" gorm:"not null"`
	Name      string     `json:"name" gorm:"not null"`
	ColorName *string    `json:"colorName,omitempty"`
	Quantity  int        `json:"quantity" gorm:"not null"`
	UnitPrice float64    `json:"unitPrice" gorm:"not null"`
}

// QuoteStatus values for a quote request
type QuoteStatus string

const (
	QuoteStatusNew      QuoteStatus = "NEW"
	QuoteStatusAnswered QuoteStatus = "ANSWERED"
	QuoteStatusClosed   QuoteStatus = "CLOSED"
)

// QuoteRequest is a storefront quote inquiry for a product and quantity.
type QuoteRequest struct {
	ID        uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string      `json:"name" gorm:"not null"`
	Email     string      `json:"email" gorm:"not null"`
	Company   *string     `json:"company,omitempty"`
	ProductID *uuid.UUID  `json:"productId,omitempty" gorm:"type:uuid;index"`
	Quantity  int         `json:"quantity" gorm:"not null;default:1"`
	Message   *string     `json:"message,omitempty"`
	Status    QuoteStatus `json:"status" gorm:"not null;default:'NEW';index"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// TableName returns the table name for the Page model
func (Page) TableName() string {
	return "pages"
}

// TableName returns the table name for the MenuItem model
func (MenuItem) TableName() string {
	return "menu_items"
}

// TableName returns the table name for the Setting model
func (Setting) TableName() string {
	return "settings"
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// TableName returns the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// TableName returns the table name for the QuoteRequest model
func (QuoteRequest) TableName() string {
	return "quote_requests"
}

// CreatePageRequest represents a request to create a CMS page
type CreatePageRequest struct {
	Slug      string `json:"slug" binding:"required"`
	Title     string `json:"title" binding:"required"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
}

// UpdatePageRequest represents a request to update a CMS page
type UpdatePageRequest struct {
	Slug      *string `json:"slug,omitempty"`
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

// CreateMenuItemRequest represents a request to create a menu entry
type CreateMenuItemRequest struct {
	Label    string  `json:"label" binding:"required"`
	URL      string  `json:"url" binding:"required"`
	Position *int    `json:"position,omitempty"`
	ParentID *string `json:"parentId,omitempty"`
}

// UpdateMenuItemRequest represents a request to update a menu entry
type UpdateMenuItemRequest struct {
	Label    *string `json:"label,omitempty"`
	URL      *string `json:"url,omitempty"`
	Position *int    `json:"position,omitempty"`
	ParentID *string `json:"parentId,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// UpsertSettingRequest sets one configuration key
type UpsertSettingRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

// CreateOrderItemRequest is one line of an order placement
type CreateOrderItemRequest struct {
	ProductID string  `json:"productId" binding:"required"`
	ColorName *string `json:"colorName,omitempty"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest places a storefront order
type CreateOrderRequest struct {
	CustomerName  string                   `json:"customerName" binding:"required"`
	CustomerEmail string                   `json:"customerEmail" binding:"required,email"`
	CustomerPhone *string                  `json:"customerPhone,omitempty"`
	Company       *string                  `json:"company,omitempty"`
	Address       *string                  `json:"address,omitempty"`
	Notes         *string                  `json:"notes,omitempty"`
	Items         []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateOrderStatusRequest moves an order through its lifecycle
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}

// CreateQuoteRequest submits a storefront quote inquiry
type CreateQuoteRequest struct {
	Name      string  `json:"name" binding:"required"`
	Email     string  `json:"email" binding:"required,email"`
	Company   *string `json:"company,omitempty"`
	ProductID *string `json:"productId,omitempty"`
	Quantity  int     `json:"quantity"`
	Message   *string `json:"message,omitempty"`
}

// UpdateQuoteStatusRequest updates the handling status of a quote
type UpdateQuoteStatusRequest struct {
	Status QuoteStatus `json:"status" binding:"required"`
}
