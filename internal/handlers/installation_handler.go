package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/shoplyne/commerce-backend/internal/dto"
	"github.com/shoplyne/commerce-backend/internal/entitlement"
	"github.com/shoplyne/commerce-backend/internal/models"
	"github.com/shoplyne/commerce-backend/internal/tenant"
	"gorm.io/gorm"
)

// InstallationHandler maps the entitlement facade onto HTTP. All business
// decisions happen behind the facade; this layer only parses bodies and
// translates error kinds to status codes.
type InstallationHandler struct {
	facade *entitlement.Facade
	db     *gorm.DB
}

func NewInstallationHandler(facade *entitlement.Facade, db *gorm.DB) *InstallationHandler {
	return &InstallationHandler{facade: facade, db: db}
}

func (h *InstallationHandler) Install(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	slug := c.Params("slug")

	var req dto.InstallRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
		}
	}

	result, err := h.facade.Install(c.Context(), tenantID, slug, entitlement.InstallOptions{
		PlanID:     req.PlanID,
		StartTrial: req.StartTrial,
		ConfigData: req.ConfigData,
	})
	if err != nil {
		return installError(c, tenantID, slug, err)
	}

	if result.RequiresSubscription {
		// Caller-driven continuation: the tenant has to pick a plan first.
		return c.JSON(result)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *InstallationHandler) Uninstall(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	slug := c.Params("slug")

	result, err := h.facade.Uninstall(c.Context(), tenantID, slug)
	if err != nil {
		return installError(c, tenantID, slug, err)
	}
	return c.JSON(result)
}

func (h *InstallationHandler) Toggle(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	slug := c.Params("slug")

	var req dto.ToggleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	result, err := h.facade.Toggle(c.Context(), tenantID, slug, req.Enabled)
	if err != nil {
		return installError(c, tenantID, slug, err)
	}
	return c.JSON(result)
}

func (h *InstallationHandler) Configure(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)
	slug := c.Params("slug")

	var req dto.ConfigureRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	result, err := h.facade.Configure(c.Context(), tenantID, slug, req)
	if err != nil {
		return installError(c, tenantID, slug, err)
	}
	return c.JSON(result)
}

// List returns the tenant's installations. Pure read, no engine involvement.
func (h *InstallationHandler) List(c *fiber.Ctx) error {
	tenantID := tenant.GetTenantID(c)

	var insts []models.PluginInstallation
	if err := h.db.Scopes(tenant.ForTenant(tenantID)).Order("installed_at DESC").Find(&insts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to fetch installations"})
	}
	return c.JSON(insts)
}

func installError(c *fiber.Ctx, tenantID, slug string, err error) error {
	switch {
	case errors.Is(err, entitlement.ErrPluginNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, entitlement.ErrNotInstalled):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, entitlement.ErrPluginUnavailable),
		errors.Is(err, entitlement.ErrAlreadyInstalled),
		errors.Is(err, entitlement.ErrCannotEnableExpired):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, entitlement.ErrPlanNotFound),
		errors.Is(err, entitlement.ErrMissingTenant),
		errors.Is(err, entitlement.ErrMissingSlug):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, entitlement.ErrBillingProvider):
		slog.Error("billing provider call failed", "tenant_id", tenantID, "plugin_slug", slug, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: true, Message: "Billing provider unavailable"})
	default:
		slog.Error("entitlement operation failed", "tenant_id", tenantID, "plugin_slug", slug, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Internal server error"})
	}
}
