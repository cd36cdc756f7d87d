package server

import (
	"log/slog"

	"mesto/internal/auth"
	"mesto/internal/middleware"
	"mesto/internal/models"
	"mesto/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /signup
// @Summary User signup
// @Description Register a new user account. Empty profile fields take the defaults.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Signup request"
// @Success 201 {object} object{data=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.Register(ctx, req)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": user})
}

// Signin handles POST /signin
// @Summary User login
// @Description Authenticate and receive the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /signin [post]
func (s *Server) Signin(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	token, _, err := auth.IssueToken(s.config.SigningKey(), user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	c.Cookie(auth.SessionCookie(token, s.config.IsProduction()))
	return c.JSON(fiber.Map{"message": "Authorization successful"})
}

// Signout handles POST /signout
// @Summary User logout
// @Description Clear the session cookie and revoke the current token
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /signout [post]
func (s *Server) Signout(c *fiber.Ctx) error {
	// An unreadable token has nothing to revoke; the cookie is cleared regardless.
	if claims, err := auth.ParseToken(s.config.SigningKey(), auth.TokenFromRequest(c)); err == nil {
		ctx, cancel := requestContext(c)
		defer cancel()
		if err := auth.Revoke(ctx, s.redis, claims.JTI, claims.ExpiresAt); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "failed to revoke token",
				slog.Uint64("user_id", uint64(claims.UserID)), slog.String("error", err.Error()))
		}
	}

	c.Cookie(auth.ClearedCookie(s.config.IsProduction()))
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(fiber.Map{"message": "Signed out"})
}
