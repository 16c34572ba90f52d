package queue

import (
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"storefront-service/internal/importer"
	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

// Worker drains the image download queue. It serves both the on-demand drain
// endpoint and, when scheduled, a cron-driven background drain; both paths run
// the same Drain so the endpoint contract and the background behavior cannot
// diverge.
type Worker struct {
	queue      *repository.QueueRepository
	catalog    *repository.CatalogRepository
	downloader importer.Downloader
	logger     *logrus.Logger
	uploadsDir string
	drainDelay time.Duration
	cron       *cron.Cron
}

func NewWorker(
	queue *repository.QueueRepository,
	catalog *repository.CatalogRepository,
	downloader importer.Downloader,
	logger *logrus.Logger,
	uploadsDir string,
	drainDelay time.Duration,
) *Worker {
	return &Worker{
		queue:      queue,
		catalog:    catalog,
		downloader: downloader,
		logger:     logger,
		uploadsDir: uploadsDir,
		drainDelay: drainDelay,
	}
}

// Drain processes one batch of pending entries, oldest first. Each drain
// touches at most the configured batch size so a huge backlog is worked off
// in small polite steps against the supplier CDN.
func (w *Worker) Drain() (*models.ProcessQueueResponse, error) {
	entries, err := w.queue.NextBatch(models.ImageQueueBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue batch: %w", err)
	}

	result := &models.ProcessQueueResponse{}

	for i, entry := range entries {
		if i > 0 && w.drainDelay > 0 {
			time.Sleep(w.drainDelay)
		}
		result.Processed++

		if err := w.processEntry(entry); err != nil {
			w.logger.WithFields(logrus.Fields{
				"product_id": entry.ProductID,
				"url":        entry.ImageURL,
				"attempts":   entry.Attempts + 1,
			}).WithError(err).Warn("Queued image download failed")
			if markErr := w.queue.MarkFailed(entry.ID, err.Error()); markErr != nil {
				w.logger.WithError(markErr).Error("Failed to record download failure")
			}
			continue
		}

		if err := w.queue.MarkCompleted(entry.ID); err != nil {
			w.logger.WithError(err).Error("Failed to finalize queue entry")
			continue
		}
		result.Successful++
	}

	remaining, err := w.queue.PendingCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count remaining entries: %w", err)
	}
	result.Remaining = int(remaining)

	return result, nil
}

// processEntry downloads one queued image and stores its path on the color
// variant it was queued for, or on the product itself when no variant is
// recorded.
func (w *Worker) processEntry(entry models.ImageQueueEntry) error {
	product, err := w.catalog.GetProductByID(entry.ProductID, false)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("product no longer exists")
		}
		return fmt.Errorf("failed to load product: %w", err)
	}

	localPath, publicPath := w.imagePaths(product.SKU, entry.ColorName)
	if err := w.downloader.Download(entry.ImageURL, localPath); err != nil {
		return err
	}

	if entry.ColorName != nil {
		color, err := w.catalog.GetColorByName(product.ID, *entry.ColorName)
		if err == nil {
			return w.catalog.UpdateColorImage(color.ID, product.ID, publicPath)
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to load color variant: %w", err)
		}
		// Variant was removed since enqueue; keep the image on the product.
	}
	return w.catalog.SetProductImage(product.ID, publicPath)
}

func (w *Worker) imagePaths(sku string, colorName *string) (string, string) {
	name := importer.Slugify(sku)
	if colorName != nil && *colorName != "" {
		name = name + "-" + importer.Slugify(*colorName)
	}
	file := name + ".jpg"
	return filepath.Join(w.uploadsDir, "products", file), path.Join("/uploads/products", file)
}

// Schedule starts a cron-driven background drain on the given spec
// (e.g. "@every 1m").
func (w *Worker) Schedule(spec string) error {
	if w.cron != nil {
		return fmt.Errorf("worker already scheduled")
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		result, err := w.Drain()
		if err != nil {
			w.logger.WithError(err).Error("Background queue drain failed")
			return
		}
		if result.Processed > 0 {
			w.logger.WithFields(logrus.Fields{
				"processed":  result.Processed,
				"successful": result.Successful,
				"remaining":  result.Remaining,
			}).Info("Background queue drain completed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid queue worker schedule %q: %w", spec, err)
	}
	c.Start()
	w.cron = c
	w.logger.WithField("schedule", spec).Info("Image queue worker scheduled")
	return nil
}

// Stop halts the background drain and waits for a running one to finish.
func (w *Worker) Stop() {
	if w.cron == nil {
		return
	}
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.cron = nil
}
