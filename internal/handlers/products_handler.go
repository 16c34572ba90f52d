package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"storefront-service/internal/events"
	"storefront-service/internal/importer"
	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

// ProductsHandler exposes catalog CRUD for the backoffice and read-only
// browsing endpoints for the storefront.
type ProductsHandler struct {
	catalog   *repository.CatalogRepository
	publisher *events.Publisher
	logger    *logrus.Logger
}

func NewProductsHandler(catalog *repository.CatalogRepository, publisher *events.Publisher, logger *logrus.Logger) *ProductsHandler {
	return &ProductsHandler{
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
	}
}

// ListProducts godoc
// @Summary List products
// @Tags products
// @Produce json
// @Param query query string false "Search term"
// @Param categoryId query string false "Category filter"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} models.SuccessResponse
// @Router /api/admin/products [get]
func (h *ProductsHandler) ListProducts(c *gin.Context) {
	var req models.SearchProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "INVALID_QUERY", err.Error())
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	products, total, err := h.catalog.GetProducts(&req)
	if err != nil {
		h.internalError(c, "Failed to list products", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: gin.H{
			"products":   products,
			"pagination": models.NewPagination(req.Page, req.Limit, total),
		},
	})
}

// GetProduct godoc
// @Summary Get a product with colors and prices
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/admin/products/{id} [get]
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	product, err := h.catalog.GetProductByID(id, true)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			h.notFound(c, "Product not found")
			return
		}
		h.internalError(c, "Failed to load product", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: product})
}

// CreateProduct godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Param request body models.CreateProductRequest true "Product"
// @Success 201 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/admin/products [post]
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	if _, err := h.catalog.GetProductBySKU(req.SKU); err == nil {
		h.badRequest(c, "DUPLICATE_SKU", "A product with this SKU already exists")
		return
	}

	product := &models.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Weight:      req.Weight,
		IsActive:    true,
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			h.badRequest(c, "INVALID_CATEGORY", "Invalid category id")
			return
		}
		product.CategoryID = &categoryID
	}

	if err := h.catalog.CreateProduct(product); err != nil {
		h.internalError(c, "Failed to create product", err)
		return
	}

	h.publisher.Publish(events.SubjectProductCreated, product)

	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: product})
}

// UpdateProduct godoc
// @Summary Update a product
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body models.UpdateProductRequest true "Fields to update"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/admin/products/{id} [put]
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	if _, err := h.catalog.GetProductByID(id, false); err != nil {
		if err == gorm.ErrRecordNotFound {
			h.notFound(c, "Product not found")
			return
		}
		h.internalError(c, "Failed to load product", err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.Weight != nil {
		updates["weight"] = *req.Weight
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			h.badRequest(c, "INVALID_CATEGORY", "Invalid category id")
			return
		}
		updates["category_id"] = categoryID
	}

	if err := h.catalog.UpdateProduct(id, updates); err != nil {
		h.internalError(c, "Failed to update product", err)
		return
	}

	product, err := h.catalog.GetProductByID(id, true)
	if err != nil {
		h.internalError(c, "Failed to reload product", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: product})
}

// DeleteProduct godoc
// @Summary Delete a product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/admin/products/{id} [delete]
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if _, err := h.catalog.GetProductByID(id, false); err != nil {
		if err == gorm.ErrRecordNotFound {
			h.notFound(c, "Product not found")
			return
		}
		h.internalError(c, "Failed to load product", err)
		return
	}

	if err := h.catalog.DeleteProduct(id); err != nil {
		h.internalError(c, "Failed to delete product", err)
		return
	}

	msg := "Product deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

// ============================================================================
// Categories
// ============================================================================

// ListCategories godoc
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Router /api/admin/categories [get]
func (h *ProductsHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.GetCategories()
	if err != nil {
		h.internalError(c, "Failed to list categories", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: categories})
}

// CreateCategory godoc
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Param request body models.CreateCategoryRequest true "Category"
// @Success 201 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/admin/categories [post]
func (h *ProductsHandler) CreateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	category := &models.Category{
		Name:        req.Name,
		Slug:        importer.Slugify(req.Name),
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsActive:    true,
	}
	if req.Position != nil {
		category.Position = *req.Position
	}

	if err := h.catalog.CreateCategory(category); err != nil {
		h.badRequest(c, "DUPLICATE_CATEGORY", "A category with this name already exists")
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: category})
}

// UpdateCategory godoc
// @Summary Update a category
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param request body models.UpdateCategoryRequest true "Fields to update"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/admin/categories/{id} [put]
func (h *ProductsHandler) UpdateCategory(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	if _, err := h.catalog.GetCategoryByID(id); err != nil {
		if err == gorm.ErrRecordNotFound {
			h.notFound(c, "Category not found")
			return
		}
		h.internalError(c, "Failed to load category", err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
		updates["slug"] = importer.Slugify(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := h.catalog.UpdateCategory(id, updates); err != nil {
		h.internalError(c, "Failed to update category", err)
		return
	}

	category, err := h.catalog.GetCategoryByID(id)
	if err != nil {
		h.internalError(c, "Failed to reload category", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: category})
}

// DeleteCategory godoc
// @Summary Delete a category
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/admin/categories/{id} [delete]
func (h *ProductsHandler) DeleteCategory(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if _, err := h.catalog.GetCategoryByID(id); err != nil {
		if err == gorm.ErrRecordNotFound {
			h.notFound(c, "Category not found")
			return
		}
		h.internalError(c, "Failed to load category", err)
		return
	}

	if err := h.catalog.DeleteCategory(id); err != nil {
		h.internalError(c, "Failed to delete category", err)
		return
	}

	msg := "Category deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

// ============================================================================
// Storefront (read-only, active products only)
// ============================================================================

// StorefrontProducts godoc
// @Summary Browse active products
// @Tags storefront
// @Produce json
// @Param query query string false "Search term"
// @Param categoryId query string false "Category filter"
// @Success 200 {object} models.SuccessResponse
// @Router /api/storefront/products [get]
func (h *ProductsHandler) StorefrontProducts(c *gin.Context) {
	var req models.SearchProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "INVALID_QUERY", err.Error())
		return
	}
	req.ActiveOnly = true
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 24
	}

	products, total, err := h.catalog.GetProducts(&req)
	if err != nil {
		h.internalError(c, "Failed to list products", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: gin.H{
			"products":   products,
			"pagination": models.NewPagination(req.Page, req.Limit, total),
		},
	})
}

// StorefrontProduct godoc
// @Summary Product detail page data
// @Tags storefront
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/storefront/products/{id} [get]
func (h *ProductsHandler) StorefrontProduct(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	product, err := h.catalog.GetProductByID(id, true)
	if err != nil || !product.IsActive {
		h.notFound(c, "Product not found")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: product})
}

// StorefrontCategory godoc
// @Summary Category page data by slug
// @Tags storefront
// @Produce json
// @Param slug path string true "Category slug"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/storefront/categories/{slug} [get]
func (h *ProductsHandler) StorefrontCategory(c *gin.Context) {
	slug := c.Param("slug")

	category, err := h.catalog.GetCategoryBySlug(slug)
	if err != nil || !category.IsActive {
		h.notFound(c, "Category not found")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: category})
}

func (h *ProductsHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, "INVALID_ID", "Invalid id format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ProductsHandler) badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: code, Message: message},
	})
}

func (h *ProductsHandler) notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: "NOT_FOUND", Message: message},
	})
}

func (h *ProductsHandler) internalError(c *gin.Context, message string, err error) {
	h.logger.WithError(err).Error(message)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: "INTERNAL_ERROR", Message: message},
	})
}
