package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shoplyne/commerce-backend/internal/dto"
	"github.com/shoplyne/commerce-backend/internal/tenant"
)

// Paths that don't require tenant identification.
var tenantSkipPaths = []string{
	"/api/health",
	"/api/catalog",   // public catalog browsing
	"/api/webhooks/", // webhooks use :tenant_id path param instead
}

// TenantMiddleware resolves the tenant from JWT claims, the X-Tenant-ID header
// (optionally with an X-API-Key for server-to-server calls), or a query param.
func TenantMiddleware(registry *tenant.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()

		for _, skip := range tenantSkipPaths {
			if strings.HasPrefix(path, skip) {
				return c.Next()
			}
		}

		// 1. JWT claim (already authenticated)
		if token, ok := c.Locals("user").(*jwt.Token); ok {
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if tenantID, ok := claims["tenant_id"].(string); ok && tenantID != "" {
					c.Locals("tenant_id", tenantID)
					return c.Next()
				}
			}
		}

		// 2. X-Tenant-ID header; an accompanying X-API-Key authenticates
		// server-to-server callers against the registry's bcrypt hash.
		tenantID := c.Get("X-Tenant-ID")
		if tenantID != "" {
			if !registry.Exists(tenantID) {
				return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
					Error:   true,
					Message: "Invalid X-Tenant-ID: " + tenantID,
				})
			}
			if apiKey := c.Get("X-API-Key"); apiKey != "" {
				if !registry.VerifyAPIKey(tenantID, apiKey) {
					return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
						Error:   true,
						Message: "Invalid API key",
					})
				}
				c.Locals("api_client", true)
			}
			c.Locals("tenant_id", tenantID)
			return c.Next()
		}

		// 3. Query param (backward compat)
		tenantID = c.Query("tenant_id")
		if tenantID != "" {
			if !registry.Exists(tenantID) {
				return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
					Error:   true,
					Message: "Invalid tenant_id: " + tenantID,
				})
			}
			c.Locals("tenant_id", tenantID)
			return c.Next()
		}

		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   true,
			Message: "X-Tenant-ID header is required",
		})
	}
}
