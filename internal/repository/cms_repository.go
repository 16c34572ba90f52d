package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront-service/internal/models"
)

// CMSRepository is the data access layer for pages, menu items, settings,
// orders and quote requests.
type CMSRepository struct {
	db *gorm.DB
}

func NewCMSRepository(db *gorm.DB) *CMSRepository {
	return &CMSRepository{db: db}
}

// ============================================================================
// Pages
// ============================================================================

// GetPages lists CMS pages; publishedOnly limits to storefront-visible ones
func (r *CMSRepository) GetPages(publishedOnly bool) ([]models.Page, error) {
	var pages []models.Page
	query := r.db.Order("created_at DESC")
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	err := query.Find(&pages).Error
	return pages, err
}

// GetPageBySlug fetches one page by slug
func (r *CMSRepository) GetPageBySlug(slug string, publishedOnly bool) (*models.Page, error) {
	var page models.Page
	query := r.db.Where("slug = ?", slug)
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	if err := query.First(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

// CreatePage inserts a CMS page
func (r *CMSRepository) CreatePage(page *models.Page) error {
	if page.ID == uuid.Nil {
		page.ID = uuid.New()
	}
	page.CreatedAt = time.Now()
	page.UpdatedAt = time.Now()
	return r.db.Create(page).Error
}

// UpdatePage applies a partial update to a page
func (r *CMSRepository) UpdatePage(pageID uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return r.db.Model(&models.Page{}).Where("id = ?", pageID).Updates(updates).Error
}

// DeletePage soft deletes a page
func (r *CMSRepository) DeletePage(pageID uuid.UUID) error {
	return r.db.Where("id = ?", pageID).Delete(&models.Page{}).Error
}

// ============================================================================
// Menu items
// ============================================================================

// GetMenuItems lists menu entries in display order
func (r *CMSRepository) GetMenuItems(activeOnly bool) ([]models.MenuItem, error) {
	var items []models.MenuItem
	query := r.db.Order("position ASC, created_at ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&items).Error
	return items, err
}

// CreateMenuItem inserts a menu entry
func (r *CMSRepository) CreateMenuItem(item *models.MenuItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()
	return r.db.Create(item).Error
}

// UpdateMenuItem applies a partial update to a menu entry
func (r *CMSRepository) UpdateMenuItem(itemID uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return r.db.Model(&models.MenuItem{}).Where("id = ?", itemID).Updates(updates).Error
}

// DeleteMenuItem removes a menu entry
func (r *CMSRepository) DeleteMenuItem(itemID uuid.UUID) error {
	return r.db.Where("id = ?", itemID).Delete(&models.MenuItem{}).Error
}

// ============================================================================
// Settings
// ============================================================================

// GetSettings lists all configuration entries
func (r *CMSRepository) GetSettings() ([]models.Setting, error) {
	var settings []models.Setting
	err := r.db.Order("key ASC").Find(&settings).Error
	return settings, err
}

// GetSetting fetches one configuration entry by key
func (r *CMSRepository) GetSetting(key string) (*models.Setting, error) {
	var setting models.Setting
	if err := r.db.Where("key = ?", key).First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// UpsertSetting sets a configuration key, creating it on first write
func (r *CMSRepository) UpsertSetting(key, value string) error {
	setting := models.Setting{
		ID:        uuid.New(),
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": time.Now(),
		}),
	}).Create(&setting).Error
}

// ============================================================================
// Orders
// ============================================================================

// CreateOrder inserts an order with its items
func (r *CMSRepository) CreateOrder(order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	return r.db.Create(order).Error
}

// GetOrders lists orders newest first, optionally filtered by status
func (r *CMSRepository) GetOrders(status *models.OrderStatus, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.Model(&models.Order{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	return orders, total, err
}

// GetOrderByID fetches one order with its items
func (r *CMSRepository) GetOrderByID(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus moves an order to a new lifecycle state
func (r *CMSRepository) UpdateOrderStatus(orderID uuid.UUID, status models.OrderStatus) error {
	return r.db.Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

// ============================================================================
// Quote requests
// ============================================================================

// CreateQuoteRequest inserts a quote inquiry
func (r *CMSRepository) CreateQuoteRequest(quote *models.QuoteRequest) error {
	if quote.ID == uuid.Nil {
		quote.ID = uuid.New()
	}
	quote.CreatedAt = time.Now()
	quote.UpdatedAt = time.Now()
	return r.db.Create(quote).Error
}

// GetQuoteRequests lists quote inquiries newest first
func (r *CMSRepository) GetQuoteRequests(status *models.QuoteStatus, page, limit int) ([]models.QuoteRequest, int64, error) {
	var quotes []models.QuoteRequest
	var total int64

	query := r.db.Model(&models.QuoteRequest{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&quotes).Error
	return quotes, total, err
}

// UpdateQuoteStatus updates the handling status of a quote inquiry
func (r *CMSRepository) UpdateQuoteStatus(quoteID uuid.UUID, status models.QuoteStatus) error {
	return r.db.Model(&models.QuoteRequest{}).
		Where("id = ?", quoteID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}
