package importer

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

// maxSampledErrors caps the per-reference error strings carried back in the
// import summary. The counters still reflect every group.
const maxSampledErrors = 20

// Downloader fetches a remote image into a local file.
type Downloader interface {
	Download(url, destPath string) error
}

// Reconciler turns mapped supplier feed rows into catalog state. Each
// reference group is processed independently; a failing group is recorded and
// skipped so one bad row can never poison the rest of the feed.
type Reconciler struct {
	catalog          *repository.CatalogRepository
	queue            *repository.QueueRepository
	downloader       Downloader
	logger           *logrus.Logger
	uploadsDir       string
	downloadDelay    time.Duration
	fallbackCategory string
}

func NewReconciler(
	catalog *repository.CatalogRepository,
	queue *repository.QueueRepository,
	downloader Downloader,
	logger *logrus.Logger,
	uploadsDir string,
	downloadDelay time.Duration,
	fallbackCategory string,
) *Reconciler {
	return &Reconciler{
		catalog:          catalog,
		queue:            queue,
		downloader:       downloader,
		logger:           logger,
		uploadsDir:       uploadsDir,
		downloadDelay:    downloadDelay,
		fallbackCategory: fallbackCategory,
	}
}

// referenceGroup is all feed rows sharing one reference, in encounter order.
// The first row drives the product scalars and the primary image.
type referenceGroup struct {
	reference string
	rows      []models.MappedRow
}

// Run executes one import. Rows are grouped by reference in encounter order
// and reconciled group by group without a surrounding transaction.
func (rc *Reconciler) Run(req *models.AdvancedImportRequest) (*models.ImportSummary, error) {
	if err := ValidateMapping(req.ColumnMapping, req.CombinedFields); err != nil {
		return nil, err
	}

	action := req.DuplicateAction
	if action == "" {
		action = models.DuplicateActionSkip
	}

	groups := groupByReference(req.Products, req.ColumnMapping, req.CombinedFields)
	priceRows := indexPriceRows(req.Prices, req.ColumnMapping, req.CombinedFields)

	summary := &models.ImportSummary{Errors: []string{}}

	for _, group := range groups {
		summary.TotalProcessed++
		if err := rc.reconcileGroup(group, req, action, priceRows, summary); err != nil {
			rc.logger.WithFields(logrus.Fields{
				"reference": group.reference,
				"error":     err.Error(),
			}).Warn("Reference failed to import")
			if len(summary.Errors) < maxSampledErrors {
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", group.reference, err.Error()))
			}
		}
	}

	rc.logger.WithFields(logrus.Fields{
		"products_imported":  summary.ProductsImported,
		"categories_created": summary.CategoriesCreated,
		"colors_aggregated":  summary.ColorsAggregated,
		"prices_matched":     summary.PricesMatched,
		"images_in_queue":    summary.ImagesInQueue,
		"total_processed":    summary.TotalProcessed,
		"errors":             len(summary.Errors),
	}).Info("Import completed")

	return summary, nil
}

// groupByReference buckets rows by their resolved reference, preserving the
// order references are first encountered and the row order inside each group.
// Rows with no reference are dropped.
func groupByReference(rows []models.MappedRow, mapping models.ColumnMapping, combined models.CombinedFields) []referenceGroup {
	var order []string
	byRef := make(map[string]*referenceGroup)

	for _, row := range rows {
		ref := strings.TrimSpace(ResolveField(row, mapping, combined, models.FieldReference))
		if ref == "" {
			continue
		}
		group, ok := byRef[ref]
		if !ok {
			group = &referenceGroup{reference: ref}
			byRef[ref] = group
			order = append(order, ref)
		}
		group.rows = append(group.rows, row)
	}

	groups := make([]referenceGroup, 0, len(order))
	for _, ref := range order {
		groups = append(groups, *byRef[ref])
	}
	return groups
}

// indexPriceRows keys price rows by reference; the last row wins on duplicates.
func indexPriceRows(rows []models.MappedRow, mapping models.ColumnMapping, combined models.CombinedFields) map[string]models.MappedRow {
	index := make(map[string]models.MappedRow)
	for _, row := range rows {
		ref := strings.TrimSpace(ResolveField(row, mapping, combined, models.FieldReference))
		if ref == "" {
			continue
		}
		index[ref] = row
	}
	return index
}

func (rc *Reconciler) reconcileGroup(
	group referenceGroup,
	req *models.AdvancedImportRequest,
	action models.DuplicateAction,
	priceRows map[string]models.MappedRow,
	summary *models.ImportSummary,
) error {
	main := group.rows[0]
	resolve := func(row models.MappedRow, field string) string {
		return strings.TrimSpace(ResolveField(row, req.ColumnMapping, req.CombinedFields, field))
	}

	name := resolve(main, models.FieldName)
	if name == "" {
		return fmt.Errorf("missing product name")
	}
	description := resolve(main, models.FieldDescription)

	existing, err := rc.catalog.GetProductBySKU(group.reference)
	if err != nil && err != gorm.ErrRecordNotFound {
		return fmt.Errorf("failed to look up product: %w", err)
	}

	if existing != nil && action == models.DuplicateActionSkip {
		return nil
	}

	categoryID, err := rc.resolveCategory(main, req, summary)
	if err != nil {
		return err
	}

	var weight *string
	if w := resolve(main, models.FieldWeight); w != "" {
		weight = &w
	}
	stock := 0
	if s := resolve(main, models.FieldStock); s != "" {
		if parsed, perr := strconv.Atoi(strings.TrimSpace(s)); perr == nil && parsed >= 0 {
			stock = parsed
		}
	}

	var product *models.Product
	if existing != nil {
		updates := map[string]interface{}{
			"name":        name,
			"description": description,
			"stock":       stock,
			"weight":      weight,
			"category_id": categoryID,
		}
		if err := rc.catalog.UpdateProduct(existing.ID, updates); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		product = existing
	} else {
		product = &models.Product{
			SKU:         group.reference,
			Name:        name,
			Description: description,
			Stock:       stock,
			Weight:      weight,
			CategoryID:  categoryID,
			IsActive:    true,
		}
		if err := rc.catalog.CreateProduct(product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
	}
	summary.ProductsImported++

	primaryImage := rc.syncMainImage(product, main, req)
	rc.reconcileColors(product, group, req, summary, primaryImage)
	rc.reconcilePrices(product, group.reference, priceRows, summary)

	return nil
}

// resolveCategory returns the category to attach: a category resolved or
// created by name, else an explicit category_id when that is all the feed
// carries, else the fallback category.
func (rc *Reconciler) resolveCategory(row models.MappedRow, req *models.AdvancedImportRequest, summary *models.ImportSummary) (*uuid.UUID, error) {
	resolve := func(field string) string {
		return strings.TrimSpace(ResolveField(row, req.ColumnMapping, req.CombinedFields, field))
	}

	name := resolve(models.FieldCategoryName)
	if name == "" {
		if raw := resolve(models.FieldCategoryID); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid category id %q", raw)
			}
			if _, err := rc.catalog.GetCategoryByID(id); err != nil {
				return nil, fmt.Errorf("category %s not found", raw)
			}
			return &id, nil
		}
		name = rc.fallbackCategory
	}
	if name == "" {
		return nil, nil
	}

	category, created, err := rc.catalog.EnsureCategory(name, Slugify(name))
	if err != nil {
		return nil, err
	}
	if created {
		summary.CategoriesCreated++
	}
	return &category.ID, nil
}

// isExternalURL reports whether an image value points at a remote host.
// Anything else is a supplier-relative path that is stored verbatim.
func isExternalURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// syncMainImage resolves the primary image. External URLs are downloaded
// inline; a failure is logged and the product keeps its previous image, never
// the queue. Non-external values are stored verbatim. Returns the product's
// effective primary image path.
func (rc *Reconciler) syncMainImage(product *models.Product, row models.MappedRow, req *models.AdvancedImportRequest) string {
	current := ""
	if product.ImageURL != nil {
		current = *product.ImageURL
	}

	url := strings.TrimSpace(ResolveField(row, req.ColumnMapping, req.CombinedFields, models.FieldMainImage))
	if url == "" {
		url = strings.TrimSpace(ResolveField(row, req.ColumnMapping, req.CombinedFields, models.FieldImageURL))
	}
	if url == "" {
		return current
	}

	if !isExternalURL(url) {
		if err := rc.catalog.SetProductImage(product.ID, url); err != nil {
			rc.logger.WithField("sku", product.SKU).WithError(err).Warn("Failed to store primary image path")
			return current
		}
		return url
	}

	localPath, publicPath := rc.imagePaths(product.SKU, "")
	if err := rc.downloader.Download(url, localPath); err != nil {
		rc.logger.WithFields(logrus.Fields{
			"sku":   product.SKU,
			"url":   url,
			"error": err.Error(),
		}).Warn("Primary image download failed")
		return current
	}

	if err := rc.catalog.SetProductImage(product.ID, publicPath); err != nil {
		rc.logger.WithField("sku", product.SKU).WithError(err).Warn("Failed to store primary image path")
		return current
	}
	return publicPath
}

// reconcileColors walks every row of the group in order and upserts one color
// variant per distinct color name. At most one variant per product carries
// is_main, across imports. External variant images are downloaded inline with
// a throttle delay and queued on failure; non-external values are stored
// verbatim; the main variant without a dedicated image shows the primary one.
func (rc *Reconciler) reconcileColors(product *models.Product, group referenceGroup, req *models.AdvancedImportRequest, summary *models.ImportSummary, primaryImage string) {
	existing, err := rc.catalog.GetProductColors(product.ID)
	if err != nil {
		rc.logger.WithField("sku", product.SKU).WithError(err).Warn("Color listing failed")
		return
	}

	byName := make(map[string]*models.ProductColor, len(existing))
	hasMain := false
	for i := range existing {
		byName[existing[i].Name] = &existing[i]
		if existing[i].IsMain {
			hasMain = true
		}
	}
	position := len(existing)
	seen := make(map[string]bool)

	for _, row := range group.rows {
		colorName := strings.TrimSpace(ResolveField(row, req.ColumnMapping, req.CombinedFields, models.FieldColor))
		if colorName == "" || seen[colorName] {
			continue
		}
		seen[colorName] = true

		imageURL := strings.TrimSpace(ResolveField(row, req.ColumnMapping, req.CombinedFields, models.FieldColorImage))
		if imageURL == "" {
			imageURL = strings.TrimSpace(ResolveField(row, req.ColumnMapping, req.CombinedFields, models.FieldImageURL))
		}

		color, ok := byName[colorName]
		if !ok {
			color = &models.ProductColor{
				ProductID: product.ID,
				Name:      colorName,
				IsMain:    !hasMain,
				Position:  position,
			}
			if err := rc.catalog.CreateColor(color); err != nil {
				rc.logger.WithFields(logrus.Fields{
					"sku":   product.SKU,
					"color": colorName,
				}).WithError(err).Warn("Failed to create color variant")
				continue
			}
			if color.IsMain {
				hasMain = true
			}
			byName[colorName] = color
			position++
			summary.ColorsAggregated++
		}

		if imageURL == "" {
			if color.IsMain && primaryImage != "" && (color.ImageURL == nil || *color.ImageURL == "") {
				if err := rc.catalog.UpdateColorImage(color.ID, product.ID, primaryImage); err != nil {
					rc.logger.WithField("sku", product.SKU).WithError(err).Warn("Failed to store variant image path")
				}
			}
			continue
		}

		if !isExternalURL(imageURL) {
			if err := rc.catalog.UpdateColorImage(color.ID, product.ID, imageURL); err != nil {
				rc.logger.WithField("sku", product.SKU).WithError(err).Warn("Failed to store variant image path")
			}
			continue
		}

		if rc.downloadDelay > 0 {
			time.Sleep(rc.downloadDelay)
		}

		localPath, publicPath := rc.imagePaths(product.SKU, colorName)
		if err := rc.downloader.Download(imageURL, localPath); err != nil {
			rc.logger.WithFields(logrus.Fields{
				"sku":   product.SKU,
				"color": colorName,
				"url":   imageURL,
			}).WithError(err).Info("Variant image deferred to download queue")
			name := colorName
			if qerr := rc.queue.Enqueue(product.ID, imageURL, &name); qerr != nil {
				rc.logger.WithField("sku", product.SKU).WithError(qerr).Warn("Failed to enqueue variant image")
				continue
			}
			summary.ImagesInQueue++
			continue
		}

		if err := rc.catalog.UpdateColorImage(color.ID, product.ID, publicPath); err != nil {
			rc.logger.WithField("sku", product.SKU).WithError(err).Warn("Failed to store variant image path")
		}
	}
}

// reconcilePrices writes the fixed quantity-band tiers from the matching
// price row, if the feed supplied one.
func (rc *Reconciler) reconcilePrices(product *models.Product, reference string, priceRows map[string]models.MappedRow, summary *models.ImportSummary) {
	row, ok := priceRows[reference]
	if !ok {
		return
	}

	for _, bp := range MatchBands(row) {
		if err := rc.catalog.UpsertPrice(product.ID, bp.Band.QuantityMin, bp.Band.QuantityMax, bp.Price); err != nil {
			rc.logger.WithFields(logrus.Fields{
				"sku":  product.SKU,
				"band": bp.Band.QuantityMin,
			}).WithError(err).Warn("Failed to upsert price tier")
			continue
		}
		summary.PricesMatched++
	}
}

// imagePaths builds the local file path and the public URL path for a product
// image. colorName is empty for the primary image.
func (rc *Reconciler) imagePaths(sku, colorName string) (string, string) {
	name := Slugify(sku)
	if colorName != "" {
		name = name + "-" + Slugify(colorName)
	}
	file := name + ".jpg"
	return filepath.Join(rc.uploadsDir, "products", file), path.Join("/uploads/products", file)
}
