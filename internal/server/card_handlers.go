package server

import (
	"mesto/internal/models"
	"mesto/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetCards handles GET /cards
// @Summary List cards, newest first
// @Tags cards
// @Produce json
// @Success 200 {array} models.Card
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /cards [get]
func (s *Server) GetCards(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	cards, err := s.cardService.ListCards(ctx)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(cards)
}

// CreateCard handles POST /cards
// @Summary Create a card
// @Tags cards
// @Accept json
// @Produce json
// @Param request body object{name=string,link=string} true "Card"
// @Success 201 {object} models.Card
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /cards [post]
func (s *Server) CreateCard(c *fiber.Ctx) error {
	var req service.CreateCardInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	req.OwnerID = currentUserID(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	card, err := s.cardService.CreateCard(ctx, req)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(card)
}

// DeleteCard handles DELETE /cards/:id
// @Summary Delete own card
// @Tags cards
// @Produce json
// @Param id path int true "Card ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /cards/{id} [delete]
func (s *Server) DeleteCard(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.cardService.DeleteCard(ctx, id, currentUserID(c)); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Card deleted"})
}

// LikeCard handles PUT /cards/:id/likes
// @Summary Like a card
// @Tags cards
// @Produce json
// @Param id path int true "Card ID"
// @Success 200 {object} models.Card
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /cards/{id}/likes [put]
func (s *Server) LikeCard(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	card, err := s.cardService.LikeCard(ctx, id, currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(card)
}

// UnlikeCard handles DELETE /cards/:id/likes
// @Summary Remove a like
// @Tags cards
// @Produce json
// @Param id path int true "Card ID"
// @Success 200 {object} models.Card
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /cards/{id}/likes [delete]
func (s *Server) UnlikeCard(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	card, err := s.cardService.UnlikeCard(ctx, id, currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(card)
}
