package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/shoplyne/commerce-backend/internal/config"
	"github.com/shoplyne/commerce-backend/internal/dto"
)

// AuthRequired admits API-key-authenticated server-to-server callers (already
// verified by the tenant middleware) and applies JWT protection to everyone
// else.
func AuthRequired(cfg *config.Config) fiber.Handler {
	jwtHandler := JWTProtected(cfg)
	return func(c *fiber.Ctx) error {
		if ok, _ := c.Locals("api_client").(bool); ok {
			return c.Next()
		}
		return jwtHandler(c)
	}
}

func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}
