package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shoplyne/commerce-backend/internal/dto"
	"github.com/shoplyne/commerce-backend/internal/models"
	"gorm.io/gorm"
)

// CatalogHandler serves the public plugin catalog and the admin-only catalog
// CRUD. The entitlement engine reads this data but never writes it.
type CatalogHandler struct {
	db *gorm.DB
}

func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// ListPlugins returns all ACTIVE plugins with their active plans (public).
func (h *CatalogHandler) ListPlugins(c *fiber.Ctx) error {
	var plugins []models.Plugin
	err := h.db.
		Preload("Plans", "is_active = true").
		Where("status = ?", models.PluginStatusActive).
		Order("name ASC").
		Find(&plugins).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to fetch catalog"})
	}
	return c.JSON(plugins)
}

func (h *CatalogHandler) GetPlugin(c *fiber.Ctx) error {
	slug := c.Params("slug")

	var plugin models.Plugin
	err := h.db.Preload("Plans", "is_active = true").Where("slug = ?", slug).First(&plugin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Plugin not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to fetch plugin"})
	}
	return c.JSON(plugin)
}

// CreatePlugin registers a new catalog entry (admin only).
func (h *CatalogHandler) CreatePlugin(c *fiber.Ctx) error {
	var req dto.CreatePluginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}
	if req.Slug == "" || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Slug and name are required"})
	}

	plugin := models.Plugin{
		ID:          uuid.New(),
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		Status:      models.PluginStatusActive,
	}
	if err := h.db.Create(&plugin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: "Slug already in use"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to create plugin"})
	}
	return c.Status(fiber.StatusCreated).JSON(plugin)
}

// CreatePlan adds a subscription plan to a plugin (admin only).
func (h *CatalogHandler) CreatePlan(c *fiber.Ctx) error {
	slug := c.Params("slug")

	var plugin models.Plugin
	if err := h.db.Where("slug = ?", slug).First(&plugin).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Plugin not found"})
	}

	var req dto.CreatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}
	if req.PlanID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "plan_id is required"})
	}
	if req.TrialDays < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "trial_days must be >= 0"})
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	plan := models.SubscriptionPlan{
		ID:        uuid.New(),
		PluginID:  plugin.ID,
		PlanID:    req.PlanID,
		Name:      req.Name,
		Amount:    req.Amount,
		Currency:  currency,
		IsActive:  true,
		TrialDays: req.TrialDays,
	}
	if err := h.db.Create(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: "Plan already exists for this plugin"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to create plan"})
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

// UpdatePlugin changes catalog-admin mutable fields (status, name).
func (h *CatalogHandler) UpdatePlugin(c *fiber.Ctx) error {
	slug := c.Params("slug")

	var plugin models.Plugin
	if err := h.db.Where("slug = ?", slug).First(&plugin).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Plugin not found"})
	}

	var req dto.UpdatePluginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.Status != nil {
		if *req.Status != models.PluginStatusActive && *req.Status != models.PluginStatusInactive {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid status"})
		}
		updates["status"] = *req.Status
	}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if len(updates) == 0 {
		return c.JSON(plugin)
	}

	if err := h.db.Model(&plugin).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to update plugin"})
	}
	return c.JSON(plugin)
}

// UpdatePlan activates or deactivates a plan.
func (h *CatalogHandler) UpdatePlan(c *fiber.Ctx) error {
	slug := c.Params("slug")
	planID := c.Params("plan_id")

	var plugin models.Plugin
	if err := h.db.Where("slug = ?", slug).First(&plugin).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Plugin not found"})
	}

	var plan models.SubscriptionPlan
	if err := h.db.Where("plugin_id = ? AND plan_id = ?", plugin.ID, planID).First(&plan).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Plan not found"})
	}

	var req dto.UpdatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}
	if req.IsActive == nil {
		return c.JSON(plan)
	}

	if err := h.db.Model(&plan).Update("is_active", *req.IsActive).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to update plan"})
	}
	return c.JSON(plan)
}
