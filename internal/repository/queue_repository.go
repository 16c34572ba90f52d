package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront-service/internal/models"
)

// QueueRepository manages the persistent image download queue. The queue is a
// ledger: entries are re-targeted or marked completed but never deleted, so
// the status report stays auditable across imports.
type QueueRepository struct {
	db *gorm.DB
}

func NewQueueRepository(db *gorm.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Enqueue registers an image URL for later download. One entry is kept per
// product: if the product is already tracked the entry is re-targeted at the
// new URL and its attempt counter is reset, so the latest discovered image
// always wins.
func (r *QueueRepository) Enqueue(productID uuid.UUID, imageURL string, colorName *string) error {
	entry := models.ImageQueueEntry{
		ID:        uuid.New(),
		ProductID: productID,
		ImageURL:  imageURL,
		ColorName: colorName,
		Status:    models.ImageQueueStatusPending,
		Attempts:  0,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"image_url":     imageURL,
			"color_name":    colorName,
			"status":        models.ImageQueueStatusPending,
			"attempts":      0,
			"error_message": nil,
			"updated_at":    time.Now(),
		}),
	}).Create(&entry).Error
}

// NextBatch returns up to limit pending entries that still have attempts
// left, oldest first so drain order is deterministic.
func (r *QueueRepository) NextBatch(limit int) ([]models.ImageQueueEntry, error) {
	var entries []models.ImageQueueEntry
	err := r.db.Where("status = ? AND attempts < ?", models.ImageQueueStatusPending, models.MaxDownloadAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// MarkCompleted finalizes a successfully downloaded entry
func (r *QueueRepository) MarkCompleted(entryID uuid.UUID) error {
	return r.db.Model(&models.ImageQueueEntry{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"status":        models.ImageQueueStatusCompleted,
			"error_message": nil,
			"updated_at":    time.Now(),
		}).Error
}

// MarkFailed records one failed attempt. The entry stays pending; once it
// reaches the attempt cap the drain filter skips it and the status report
// counts it as failed.
func (r *QueueRepository) MarkFailed(entryID uuid.UUID, errMsg string) error {
	return r.db.Model(&models.ImageQueueEntry{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"attempts":      gorm.Expr("attempts + 1"),
			"error_message": errMsg,
			"updated_at":    time.Now(),
		}).Error
}

// PendingCount returns how many entries are still eligible for a drain
func (r *QueueRepository) PendingCount() (int64, error) {
	var count int64
	err := r.db.Model(&models.ImageQueueEntry{}).
		Where("status = ? AND attempts < ?", models.ImageQueueStatusPending, models.MaxDownloadAttempts).
		Count(&count).Error
	return count, err
}

// Counts aggregates the queue into the polled status buckets. Pending and
// failed split the pending rows on the shared attempt cap, so the three
// buckets always sum to total.
func (r *QueueRepository) Counts() (*models.QueueStatusResponse, error) {
	var status models.QueueStatusResponse

	err := r.db.Model(&models.ImageQueueEntry{}).
		Where("status = ? AND attempts < ?", models.ImageQueueStatusPending, models.MaxDownloadAttempts).
		Count(&status.Pending).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&models.ImageQueueEntry{}).
		Where("status = ?", models.ImageQueueStatusCompleted).
		Count(&status.Completed).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&models.ImageQueueEntry{}).
		Where("status = ? AND attempts >= ?", models.ImageQueueStatusPending, models.MaxDownloadAttempts).
		Count(&status.Failed).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&models.ImageQueueEntry{}).Count(&status.Total).Error
	if err != nil {
		return nil, err
	}

	return &status, nil
}

// GetByProductID fetches the queue entry tracking a product, if any
func (r *QueueRepository) GetByProductID(productID uuid.UUID) (*models.ImageQueueEntry, error) {
	var entry models.ImageQueueEntry
	if err := r.db.Where("product_id = ?", productID).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}
