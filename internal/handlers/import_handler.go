package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"storefront-service/internal/events"
	"storefront-service/internal/importer"
	"storefront-service/internal/models"
	"storefront-service/internal/queue"
	"storefront-service/internal/repository"
)

// ImportHandler exposes the supplier import pipeline: feed upload and
// mapping, reference pre-checks, reconciliation and the image download queue.
type ImportHandler struct {
	catalog    *repository.CatalogRepository
	queueRepo  *repository.QueueRepository
	reconciler *importer.Reconciler
	xmlFetcher *importer.XMLFeedFetcher
	worker     *queue.Worker
	publisher  *events.Publisher
	logger     *logrus.Logger
}

func NewImportHandler(
	catalog *repository.CatalogRepository,
	queueRepo *repository.QueueRepository,
	reconciler *importer.Reconciler,
	xmlFetcher *importer.XMLFeedFetcher,
	worker *queue.Worker,
	publisher *events.Publisher,
	logger *logrus.Logger,
) *ImportHandler {
	return &ImportHandler{
		catalog:    catalog,
		queueRepo:  queueRepo,
		reconciler: reconciler,
		xmlFetcher: xmlFetcher,
		worker:     worker,
		publisher:  publisher,
		logger:     logger,
	}
}

// CheckReferences godoc
// @Summary Check which references already exist
// @Description Reports how many of the candidate feed references are already catalog SKUs
// @Tags import
// @Accept json
// @Produce json
// @Param request body models.CheckReferencesRequest true "References to check"
// @Success 200 {object} models.SuccessResponse{data=models.CheckReferencesResponse}
// @Failure 400 {object} models.ErrorResponse
// @Router /api/admin/products/check-references [post]
func (h *ImportHandler) CheckReferences(c *gin.Context) {
	var req models.CheckReferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	refs := make([]string, 0, len(req.References))
	for _, r := range req.References {
		if trimmed := strings.TrimSpace(r); trimmed != "" {
			refs = append(refs, trimmed)
		}
	}

	if len(refs) == 0 {
		h.badRequest(c, "EMPTY_REFERENCES", "At least one reference is required")
		return
	}

	resp := models.CheckReferencesResponse{
		Total:              len(refs),
		ExistingReferences: []string{},
	}

	existing, err := h.catalog.FindExistingSKUs(uniqueStrings(refs))
	if err != nil {
		h.internalError(c, "Failed to check references", err)
		return
	}

	existingSet := make(map[string]bool, len(existing))
	for _, sku := range existing {
		existingSet[sku] = true
	}

	// Feed duplicates count per occurrence so the percentage reflects the
	// feed the operator is about to import.
	for _, ref := range refs {
		if existingSet[ref] {
			resp.Existing++
		}
	}
	resp.ExistingReferences = existing
	resp.DuplicatePct = int(math.Round(float64(resp.Existing) * 100 / float64(resp.Total)))
	resp.NewCount = resp.Total - resp.Existing

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: resp})
}

// ImportAdvanced godoc
// @Summary Run a supplier feed import
// @Description Reconciles mapped feed rows into the catalog and returns a summary
// @Tags import
// @Accept json
// @Produce json
// @Param request body models.AdvancedImportRequest true "Mapped feed rows and conflict policy"
// @Success 200 {object} models.SuccessResponse{data=models.ImportSummary}
// @Failure 400 {object} models.ErrorResponse
// @Router /api/import/makito-advanced [post]
func (h *ImportHandler) ImportAdvanced(c *gin.Context) {
	var req models.AdvancedImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	summary, err := h.reconciler.Run(&req)
	if err != nil {
		h.badRequest(c, "INVALID_MAPPING", err.Error())
		return
	}

	h.publisher.Publish(events.SubjectImportCompleted, summary)

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: summary})
}

// ProcessImageQueue godoc
// @Summary Drain one batch of the image queue
// @Description Downloads up to the batch size of pending images and reports progress
// @Tags import
// @Produce json
// @Success 200 {object} models.SuccessResponse{data=models.ProcessQueueResponse}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/import/process-image-queue [post]
func (h *ImportHandler) ProcessImageQueue(c *gin.Context) {
	result, err := h.worker.Drain()
	if err != nil {
		h.internalError(c, "Failed to process image queue", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}

// ImageQueueStatus godoc
// @Summary Image queue progress
// @Description Returns pending, completed and failed counts for the image queue
// @Tags import
// @Produce json
// @Success 200 {object} models.SuccessResponse{data=models.QueueStatusResponse}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/import/image-queue-status [get]
func (h *ImportHandler) ImageQueueStatus(c *gin.Context) {
	status, err := h.queueRepo.Counts()
	if err != nil {
		h.internalError(c, "Failed to read image queue status", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: status})
}

// ImportXML godoc
// @Summary Fetch and flatten a supplier XML feed
// @Description Downloads the XML feed at the given URL and returns flat rows for mapping
// @Tags import
// @Accept json
// @Produce json
// @Param request body models.XMLImportRequest true "Feed URL"
// @Success 200 {object} models.SuccessResponse{data=models.XMLImportResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/import/makito-xml [post]
func (h *ImportHandler) ImportXML(c *gin.Context) {
	var req models.XMLImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	rows, err := h.xmlFetcher.Fetch(c.Request.Context(), req.XMLURL)
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "FEED_FETCH_FAILED", Message: err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    models.XMLImportResponse{AllData: rows, Total: len(rows)},
	})
}

// GetImportTemplate godoc
// @Summary Download the feed template
// @Description Returns the supplier feed template as csv, xlsx or json
// @Tags import
// @Produce json
// @Param format query string false "Template format: csv, xlsx or json" default(json)
// @Success 200 {object} models.SuccessResponse{data=models.ImportTemplate}
// @Failure 400 {object} models.ErrorResponse
// @Router /api/import/template [get]
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "json"))

	switch format {
	case "json":
		c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: models.ProductImportTemplate()})

	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		columns := models.ProductImportColumns()
		headers := make([]string, len(columns))
		examples := make([]string, len(columns))
		for i, col := range columns {
			headers[i] = col.Name
			examples[i] = col.Example
		}
		_ = w.Write(headers)
		_ = w.Write(examples)
		w.Flush()

		c.Header("Content-Disposition", `attachment; filename="product-import-template.csv"`)
		c.Data(http.StatusOK, "text/csv", buf.Bytes())

	case "xlsx":
		f := excelize.NewFile()
		sheet := "Products"
		f.SetSheetName("Sheet1", sheet)
		for i, col := range models.ProductImportColumns() {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			_ = f.SetCellValue(sheet, cell, col.Name)
			cell, _ = excelize.CoordinatesToCellName(i+1, 2)
			_ = f.SetCellValue(sheet, cell, col.Example)
		}

		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			h.internalError(c, "Failed to build template workbook", err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="product-import-template.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())

	default:
		h.badRequest(c, "INVALID_FORMAT", fmt.Sprintf("unsupported template format %q", format))
	}
}

// UploadFeed godoc
// @Summary Upload and parse a supplier feed file
// @Description Parses a CSV or XLSX feed and returns headers, rows and a suggested mapping
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Feed file (.csv or .xlsx)"
// @Success 200 {object} models.SuccessResponse{data=models.UploadFeedResponse}
// @Failure 400 {object} models.ErrorResponse
// @Router /api/import/upload [post]
func (h *ImportHandler) UploadFeed(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, "MISSING_FILE", "A feed file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.badRequest(c, "INVALID_FILE", "Failed to open uploaded file")
		return
	}
	defer file.Close()

	var headers []string
	var rows []models.MappedRow

	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".csv":
		headers, rows, err = parseCSVFeed(file)
	case ".xlsx":
		headers, rows, err = parseXLSXFeed(file)
	default:
		h.badRequest(c, "UNSUPPORTED_FORMAT", "Only .csv and .xlsx feeds are supported")
		return
	}
	if err != nil {
		h.badRequest(c, "PARSE_FAILED", err.Error())
		return
	}

	h.logger.WithFields(logrus.Fields{
		"file": fileHeader.Filename,
		"rows": len(rows),
	}).Info("Feed file parsed")

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: models.UploadFeedResponse{
			Headers:          headers,
			Rows:             rows,
			SuggestedMapping: importer.AutoDetectMapping(headers),
			Total:            len(rows),
		},
	})
}

// parseCSVFeed reads a CSV feed: first record is the header row, every other
// record becomes a column-name-keyed row. Separator is sniffed between comma
// and semicolon on the header line.
func parseCSVFeed(r io.Reader) ([]string, []models.MappedRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read feed: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffSeparator(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid CSV feed: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("feed file is empty")
	}

	headers := make([]string, len(records[0]))
	for i, hdr := range records[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(hdr, "\ufeff"))
	}

	rows := make([]models.MappedRow, 0, len(records)-1)
	for _, record := range records[1:] {
		row := models.MappedRow{}
		empty := true
		for i, value := range record {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			row[headers[i]] = strings.TrimSpace(value)
			if strings.TrimSpace(value) != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return headers, rows, nil
}

func sniffSeparator(data []byte) rune {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

// parseXLSXFeed reads the first sheet of an XLSX feed, header row first.
func parseXLSXFeed(r io.Reader) ([]string, []models.MappedRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid XLSX feed: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("feed file is empty")
	}

	headers := make([]string, len(records[0]))
	for i, hdr := range records[0] {
		headers[i] = strings.TrimSpace(hdr)
	}

	rows := make([]models.MappedRow, 0, len(records)-1)
	for _, record := range records[1:] {
		row := models.MappedRow{}
		empty := true
		for i, value := range record {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			row[headers[i]] = strings.TrimSpace(value)
			if strings.TrimSpace(value) != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return headers, rows, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func (h *ImportHandler) badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: code, Message: message},
	})
}

func (h *ImportHandler) internalError(c *gin.Context, message string, err error) {
	h.logger.WithError(err).Error(message)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: "INTERNAL_ERROR", Message: message},
	})
}
