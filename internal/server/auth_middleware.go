package server

import (
	"mesto/internal/auth"
	"mesto/internal/middleware"
	"mesto/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AuthRequired verifies the session token from the jwt cookie or a Bearer
// header and stores the user id in the request locals and context.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := auth.ParseToken(s.config.SigningKey(), auth.TokenFromRequest(c))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		if auth.IsRevoked(c.UserContext(), s.redis, claims.JTI) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		middleware.WithUserID(c, claims.UserID)
		return c.Next()
	}
}
