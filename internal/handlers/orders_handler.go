package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"storefront-service/internal/events"
	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

// OrdersHandler exposes storefront order placement and quote requests plus
// the backoffice views over both.
type OrdersHandler struct {
	cms       *repository.CMSRepository
	catalog   *repository.CatalogRepository
	publisher *events.Publisher
	logger    *logrus.Logger
}

func NewOrdersHandler(
	cms *repository.CMSRepository,
	catalog *repository.CatalogRepository,
	publisher *events.Publisher,
	logger *logrus.Logger,
) *OrdersHandler {
	return &OrdersHandler{
		cms:       cms,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
	}
}

// PlaceOrder godoc
// @Summary Place a storefront order
// @Description Creates an order; line prices come from the quantity band matching each line's quantity
// @Tags storefront
// @Accept json
// @Produce json
// @Param request body models.CreateOrderRequest true "Order"
// @Success 201 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/storefront/orders [post]
func (h *OrdersHandler) PlaceOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	order := &models.Order{
		Reference:     newOrderReference(),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Company:       req.Company,
		Address:       req.Address,
		Notes:         req.Notes,
		Status:        models.OrderStatusNew,
	}

	for _, line := range req.Items {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			h.badRequest(c, "INVALID_PRODUCT", "Invalid product id in order line")
			return
		}

		product, err := h.catalog.GetProductByID(productID, false)
		if err != nil || !product.IsActive {
			h.badRequest(c, "UNKNOWN_PRODUCT", fmt.Sprintf("Product %s is not available", line.ProductID))
			return
		}

		unitPrice := h.priceForQuantity(productID, line.Quantity)

		order.Items = append(order.Items, models.OrderItem{
			ProductID: &product.ID,
			SKU:       product.SKU,
			Name:      product.Name,
			ColorName: line.ColorName,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
		})
		order.Total += unitPrice * float64(line.Quantity)
	}

	if err := h.cms.CreateOrder(order); err != nil {
		h.internalError(c, "Failed to create order", err)
		return
	}

	h.publisher.Publish(events.SubjectOrderPlaced, order)

	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: order})
}

// priceForQuantity picks the price tier whose band contains the quantity.
// Products without tiers price at zero; the backoffice treats those orders as
// quote-first.
func (h *OrdersHandler) priceForQuantity(productID uuid.UUID, quantity int) float64 {
	tiers, err := h.catalog.GetProductPrices(productID)
	if err != nil || len(tiers) == 0 {
		return 0
	}
	price := 0.0
	for _, tier := range tiers {
		if quantity >= tier.QuantityMin {
			price = tier.Price
		}
	}
	return price
}

// ListOrders godoc
// @Summary List orders
// @Tags orders
// @Produce json
// @Param status query string false "Status filter"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} models.SuccessResponse
// @Router /api/admin/orders [get]
func (h *OrdersHandler) ListOrders(c *gin.Context) {
	page, limit := parsePaging(c)

	var status *models.OrderStatus
	if raw := c.Query("status"); raw != "" {
		s := models.OrderStatus(raw)
		status = &s
	}

	orders, total, err := h.cms.GetOrders(status, page, limit)
	if err != nil {
		h.internalError(c, "Failed to list orders", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: gin.H{
			"orders":     orders,
			"pagination": models.NewPagination(page, limit, total),
		},
	})
}

// GetOrder godoc
// @Summary Get an order with its items
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/admin/orders/{id} [get]
func (h *OrdersHandler) GetOrder(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	order, err := h.cms.GetOrderByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			h.notFound(c, "Order not found")
			return
		}
		h.internalError(c, "Failed to load order", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: order})
}

// UpdateOrderStatus godoc
// @Summary Update order status
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body models.UpdateOrderStatusRequest true "New status"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/admin/orders/{id}/status [put]
func (h *OrdersHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	if !validOrderStatus(req.Status) {
		h.badRequest(c, "INVALID_STATUS", "Unknown order status")
		return
	}

	if err := h.cms.UpdateOrderStatus(id, req.Status); err != nil {
		h.internalError(c, "Failed to update order status", err)
		return
	}

	msg := "Order status updated"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

// ============================================================================
// Quote requests
// ============================================================================

// SubmitQuote godoc
// @Summary Submit a quote request
// @Tags storefront
// @Accept json
// @Produce json
// @Param request body models.CreateQuoteRequest true "Quote request"
// @Success 201 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/storefront/quotes [post]
func (h *OrdersHandler) SubmitQuote(c *gin.Context) {
	var req models.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	quote := &models.QuoteRequest{
		Name:     req.Name,
		Email:    req.Email,
		Company:  req.Company,
		Message:  req.Message,
		Quantity: req.Quantity,
		Status:   models.QuoteStatusNew,
	}
	if quote.Quantity < 1 {
		quote.Quantity = 1
	}
	if req.ProductID != nil {
		productID, err := uuid.Parse(*req.ProductID)
		if err != nil {
			h.badRequest(c, "INVALID_PRODUCT", "Invalid product id")
			return
		}
		quote.ProductID = &productID
	}

	if err := h.cms.CreateQuoteRequest(quote); err != nil {
		h.internalError(c, "Failed to create quote request", err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: quote})
}

// ListQuotes godoc
// @Summary List quote requests
// @Tags orders
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {object} models.SuccessResponse
// @Router /api/admin/quotes [get]
func (h *OrdersHandler) ListQuotes(c *gin.Context) {
	page, limit := parsePaging(c)

	var status *models.QuoteStatus
	if raw := c.Query("status"); raw != "" {
		s := models.QuoteStatus(raw)
		status = &s
	}

	quotes, total, err := h.cms.GetQuoteRequests(status, page, limit)
	if err != nil {
		h.internalError(c, "Failed to list quote requests", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: gin.H{
			"quotes":     quotes,
			"pagination": models.NewPagination(page, limit, total),
		},
	})
}

// UpdateQuoteStatus godoc
// @Summary Update quote request status
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body models.UpdateQuoteStatusRequest true "New status"
// @Success 200 {object} models.SuccessResponse
// @Router /api/admin/quotes/{id}/status [put]
func (h *OrdersHandler) UpdateQuoteStatus(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req models.UpdateQuoteStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	if req.Status != models.QuoteStatusNew && req.Status != models.QuoteStatusAnswered && req.Status != models.QuoteStatusClosed {
		h.badRequest(c, "INVALID_STATUS", "Unknown quote status")
		return
	}

	if err := h.cms.UpdateQuoteStatus(id, req.Status); err != nil {
		h.internalError(c, "Failed to update quote status", err)
		return
	}

	msg := "Quote status updated"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

func (h *OrdersHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, "INVALID_ID", "Invalid id format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *OrdersHandler) badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: code, Message: message},
	})
}

func (h *OrdersHandler) notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: "NOT_FOUND", Message: message},
	})
}

func (h *OrdersHandler) internalError(c *gin.Context, message string, err error) {
	h.logger.WithError(err).Error(message)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: "INTERNAL_ERROR", Message: message},
	})
}

func newOrderReference() string {
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102"), uuid.New().String()[:8])
}

func validOrderStatus(s models.OrderStatus) bool {
	switch s {
	case models.OrderStatusNew, models.OrderStatusConfirmed, models.OrderStatusShipped, models.OrderStatusCancelled:
		return true
	}
	return false
}

func parsePaging(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
