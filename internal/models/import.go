package models

import (
	"time"

	"github.com/google/uuid"
)

// Logical import fields. Supplier feeds use arbitrary column names; the column
// mapping translates them into this fixed schema before reconciliation.
const (
	FieldReference    = "reference"
	FieldName         = "name"
	FieldDescription  = "description"
	FieldColor        = "color"
	FieldWeight       = "weight"
	FieldMainImage    = "main_image"
	FieldColorImage   = "color_image"
	FieldImageURL     = "image_url"
	FieldCategoryID   = "category_id"
	FieldCategoryName = "category_name"
	FieldStock        = "stock"
)

// DuplicateAction is the operator's conflict policy for references that
// already exist in the catalog.
type DuplicateAction string

const (
	DuplicateActionSkip   DuplicateAction = "skip"
	DuplicateActionUpdate DuplicateAction = "update"
)

// Image queue tuning. MaxDownloadAttempts is shared by the drain filter and
// the failed bucket of the status report so the two can never drift apart.
const (
	ImageQueueBatchSize = 3
	MaxDownloadAttempts = 3
)

// ImageQueueStatus values for a queue entry
type ImageQueueStatus string

const (
	ImageQueueStatusPending   ImageQueueStatus = "pending"
	ImageQueueStatusCompleted ImageQueueStatus = "completed"
)

// ImageQueueEntry is one pending external image fetch for a product. At most
// one entry exists per product: re-enqueueing replaces the tracked URL, so the
// most recently discovered image wins. Entries that exhaust their attempts are
// reported as failed but never purged.
type ImageQueueEntry struct {
	ID           uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID    uuid.UUID        `json:"productId" gorm:"type:uuid;not null;uniqueIndex:idx_image_queue_product"`
	ImageURL     string           `json:"imageUrl" gorm:"column:image_url;not null"`
	ColorName    *string          `json:"colorName,omitempty"`
	Status       ImageQueueStatus `json:"status" gorm:"not null;default:'pending';index"`
	Attempts     int              `json:"attempts" gorm:"not null;default:0"`
	ErrorMessage *string          `json:"errorMessage,omitempty"`
	CreatedAt    time.Time        `json:"createdAt" gorm:"index"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// TableName returns the table name for the ImageQueueEntry model
func (ImageQueueEntry) TableName() string {
	return "image_download_queue"
}

// MappedRow is one raw feed record: source column name to string value.
type MappedRow map[string]string

// ColumnMapping maps a logical field to the source column that supplies it.
type ColumnMapping map[string]string

// CombinedFields lists, per logical field, extra source columns whose values
// are concatenated (space-joined, empties skipped) after the mapped column.
type CombinedFields map[string][]string

// AdvancedImportRequest is the payload of the supplier import endpoint.
type AdvancedImportRequest struct {
	Products        []MappedRow     `json:"products" binding:"required"`
	Prices          []MappedRow     `json:"prices,omitempty"`
	ColumnMapping   ColumnMapping   `json:"columnMapping" binding:"required"`
	CombinedFields  CombinedFields  `json:"combinedFields,omitempty"`
	DuplicateAction DuplicateAction `json:"duplicateAction"`
}

// ImportSummary aggregates the outcome of one reconciler run. Errors holds at
// most 20 sampled per-reference error strings.
type ImportSummary struct {
	ProductsImported  int      `json:"products_imported"`
	CategoriesCreated int      `json:"categories_created"`
	ColorsAggregated  int      `json:"colors_aggregated"`
	PricesMatched     int      `json:"prices_matched"`
	ImagesInQueue     int      `json:"images_in_queue"`
	TotalProcessed    int      `json:"total_processed"`
	Errors            []string `json:"errors"`
}

// CheckReferencesRequest asks which references already exist as product SKUs.
type CheckReferencesRequest struct {
	References []string `json:"references"`
}

// CheckReferencesResponse reports duplicate statistics for a candidate feed.
// Duplicates within the feed are preserved in the counts.
type CheckReferencesResponse struct {
	Total              int      `json:"total"`
	Existing           int      `json:"existing"`
	NewCount           int      `json:"new_count"`
	ExistingReferences []string `json:"existing_references"`
	DuplicatePct       int      `json:"duplicate_pct"`
}

// ProcessQueueResponse is the result of one queue drain call.
type ProcessQueueResponse struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Remaining  int `json:"remaining"`
}

// QueueStatusResponse is the polled progress report for the image queue.
type QueueStatusResponse struct {
	Pending   int64 `json:"pending"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Total     int64 `json:"total"`
}

// XMLImportRequest asks the server to fetch and flatten a remote XML feed.
type XMLImportRequest struct {
	XMLURL string `json:"xmlUrl" binding:"required"`
}

// XMLImportResponse carries the flattened feed rows for the mapping UI.
type XMLImportResponse struct {
	AllData []MappedRow `json:"all_data"`
	Total   int         `json:"total"`
}

// UploadFeedResponse is returned after a CSV/XLSX upload is parsed server-side.
type UploadFeedResponse struct {
	Headers          []string      `json:"headers"`
	Rows             []MappedRow   `json:"rows"`
	SuggestedMapping ColumnMapping `json:"suggestedMapping"`
	Total            int           `json:"total"`
}

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// ProductImportColumns returns the column definitions for the supplier feed
// template, one per logical field.
func ProductImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: FieldReference, Description: "Supplier reference / SKU (reconciliation key)", Required: true, Type: "string", Example: "MK-2041"},
		{Name: FieldName, Description: "Product name", Required: true, Type: "string", Example: "Cotton Tote Bag"},
		{Name: FieldDescription, Description: "Product description", Required: true, Type: "string", Example: "140g/m2 natural cotton"},
		{Name: FieldColor, Description: "Color variant name", Required: false, Type: "string", Example: "Red"},
		{Name: FieldWeight, Description: "Unit weight", Required: false, Type: "string", Example: "0.045"},
		{Name: FieldMainImage, Description: "Primary image URL", Required: false, Type: "string", Example: "https://cdn.supplier.com/mk2041.jpg"},
		{Name: FieldColorImage, Description: "Color-specific image URL", Required: false, Type: "string", Example: "https://cdn.supplier.com/mk2041-red.jpg"},
		{Name: FieldImageURL, Description: "Generic image URL fallback", Required: false, Type: "string", Example: ""},
		{Name: FieldCategoryName, Description: "Category name - auto-creates if not exists", Required: false, Type: "string", Example: "Bags"},
		{Name: FieldCategoryID, Description: "Category ID (use this OR category_name)", Required: false, Type: "uuid", Example: ""},
		{Name: FieldStock, Description: "Stock quantity", Required: false, Type: "number", Example: "1500"},
	}
}

// ProductImportTemplate returns the template definition for supplier feeds
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: ProductImportColumns(),
	}
}
