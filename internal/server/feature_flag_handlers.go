package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags returns the evaluated feature flags for the current user.
// @Summary Feature flags
// @Tags features
// @Produce json
// @Success 200 {object} object{evaluated=map[string]bool}
// @Security BearerAuth
// @Router /features [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"evaluated": s.featureFlags.Snapshot(currentUserID(c)),
	})
}

// FeatureRequired hides a route from users the flag is not rolled out to.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) FeatureRequired(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.featureFlags.Enabled(name, currentUserID(c)) {
			return s.NotFound(c)
		}
		return c.Next()
	}
}

