package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

// CMSHandler exposes pages, menu items and settings for the backoffice plus
// the published views for the storefront.
type CMSHandler struct {
	cms    *repository.CMSRepository
	logger *logrus.Logger
}

func NewCMSHandler(cms *repository.CMSRepository, logger *logrus.Logger) *CMSHandler {
	return &CMSHandler{cms: cms, logger: logger}
}

// ============================================================================
// Pages
// ============================================================================

// ListPages godoc
// @Summary List CMS pages
// @Tags cms
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Router /api/admin/pages [get]
func (h *CMSHandler) ListPages(c *gin.Context) {
	pages, err := h.cms.GetPages(false)
	if err != nil {
		h.internalError(c, "Failed to list pages", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: pages})
}

// CreatePage godoc
// @Summary Create a CMS page
// @Tags cms
// @Accept json
// @Produce json
// @Param request body models.CreatePageRequest true "Page"
// @Success 201 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/admin/pages [post]
func (h *CMSHandler) CreatePage(c *gin.Context) {
	var req models.CreatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	page := &models.Page{
		Slug:      req.Slug,
		Title:     req.Title,
		Content:   req.Content,
		Published: req.Published,
	}
	if err := h.cms.CreatePage(page); err != nil {
		h.badRequest(c, "DUPLICATE_SLUG", "A page with this slug already exists")
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: page})
}

// UpdatePage godoc
// @Summary Update a CMS page
// @Tags cms
// @Accept json
// @Produce json
// @Param id path string true "Page ID"
// @Param request body models.UpdatePageRequest true "Fields to update"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/admin/pages/{id} [put]
func (h *CMSHandler) UpdatePage(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req models.UpdatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Slug != nil {
		updates["slug"] = *req.Slug
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}

	if err := h.cms.UpdatePage(id, updates); err != nil {
		h.internalError(c, "Failed to update page", err)
		return
	}

	msg := "Page updated"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

// DeletePage godoc
// @Summary Delete a CMS page
// @Tags cms
// @Produce json
// @Param id path string true "Page ID"
// @Success 200 {object} models.SuccessResponse
// @Router /api/admin/pages/{id} [delete]
func (h *CMSHandler) DeletePage(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.cms.DeletePage(id); err != nil {
		h.internalError(c, "Failed to delete page", err)
		return
	}

	msg := "Page deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

// StorefrontPage godoc
// @Summary Published page by slug
// @Tags storefront
// @Produce json
// @Param slug path string true "Page slug"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/storefront/pages/{slug} [get]
func (h *CMSHandler) StorefrontPage(c *gin.Context) {
	page, err := h.cms.GetPageBySlug(c.Param("slug"), true)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			h.notFound(c, "Page not found")
			return
		}
		h.internalError(c, "Failed to load page", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: page})
}

// ============================================================================
// Menu
// ============================================================================

// ListMenuItems godoc
// @Summary List menu items
// @Tags cms
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Router /api/admin/menu [get]
func (h *CMSHandler) ListMenuItems(c *gin.Context) {
	items, err := h.cms.GetMenuItems(false)
	if err != nil {
		h.internalError(c, "Failed to list menu items", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: items})
}

// CreateMenuItem godoc
// @Summary Create a menu item
// @Tags cms
// @Accept json
// @Produce json
// @Param request body models.CreateMenuItemRequest true "Menu item"
// @Success 201 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/admin/menu [post]
func (h *CMSHandler) CreateMenuItem(c *gin.Context) {
	var req models.CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	item := &models.MenuItem{
		Label:    req.Label,
		URL:      req.URL,
		IsActive: true,
	}
	if req.Position != nil {
		item.Position = *req.Position
	}
	if req.ParentID != nil {
		parentID, err := uuid.Parse(*req.ParentID)
		if err != nil {
			h.badRequest(c, "INVALID_PARENT", "Invalid parent id")
			return
		}
		item.ParentID = &parentID
	}

	if err := h.cms.CreateMenuItem(item); err != nil {
		h.internalError(c, "Failed to create menu item", err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: item})
}

// UpdateMenuItem godoc
// @Summary Update a menu item
// @Tags cms
// @Accept json
// @Produce json
// @Param id path string true "Menu item ID"
// @Param request body models.UpdateMenuItemRequest true "Fields to update"
// @Success 200 {object} models.SuccessResponse
// @Router /api/admin/menu/{id} [put]
func (h *CMSHandler) UpdateMenuItem(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req models.UpdateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Label != nil {
		updates["label"] = *req.Label
	}
	if req.URL != nil {
		updates["url"] = *req.URL
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.ParentID != nil {
		parentID, err := uuid.Parse(*req.ParentID)
		if err != nil {
			h.badRequest(c, "INVALID_PARENT", "Invalid parent id")
			return
		}
		updates["parent_id"] = parentID
	}

	if err := h.cms.UpdateMenuItem(id, updates); err != nil {
		h.internalError(c, "Failed to update menu item", err)
		return
	}

	msg := "Menu item updated"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

// DeleteMenuItem godoc
// @Summary Delete a menu item
// @Tags cms
// @Produce json
// @Param id path string true "Menu item ID"
// @Success 200 {object} models.SuccessResponse
// @Router /api/admin/menu/{id} [delete]
func (h *CMSHandler) DeleteMenuItem(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.cms.DeleteMenuItem(id); err != nil {
		h.internalError(c, "Failed to delete menu item", err)
		return
	}

	msg := "Menu item deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

// StorefrontMenu godoc
// @Summary Active navigation menu
// @Tags storefront
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Router /api/storefront/menu [get]
func (h *CMSHandler) StorefrontMenu(c *gin.Context) {
	items, err := h.cms.GetMenuItems(true)
	if err != nil {
		h.internalError(c, "Failed to load menu", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: items})
}

// ============================================================================
// Settings
// ============================================================================

// ListSettings godoc
// @Summary List settings
// @Tags cms
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Router /api/admin/settings [get]
func (h *CMSHandler) ListSettings(c *gin.Context) {
	settings, err := h.cms.GetSettings()
	if err != nil {
		h.internalError(c, "Failed to list settings", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: settings})
}

// UpsertSetting godoc
// @Summary Set a configuration key
// @Tags cms
// @Accept json
// @Produce json
// @Param request body models.UpsertSettingRequest true "Setting"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/admin/settings [put]
func (h *CMSHandler) UpsertSetting(c *gin.Context) {
	var req models.UpsertSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	if err := h.cms.UpsertSetting(req.Key, req.Value); err != nil {
		h.internalError(c, "Failed to save setting", err)
		return
	}

	msg := "Setting saved"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

func (h *CMSHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, "INVALID_ID", "Invalid id format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *CMSHandler) badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: code, Message: message},
	})
}

func (h *CMSHandler) notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: "NOT_FOUND", Message: message},
	})
}

func (h *CMSHandler) internalError(c *gin.Context, message string, err error) {
	h.logger.WithError(err).Error(message)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: "INTERNAL_ERROR", Message: message},
	})
}
