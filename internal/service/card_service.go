package service

import (
	"context"
	"log/slog"
	"strings"

	"mesto/internal/middleware"
	"mesto/internal/models"
	"mesto/internal/notifications"
	"mesto/internal/observability"
	"mesto/internal/repository"
	"mesto/internal/validation"
)

// CardEventPublisher receives card writes for the live feed.
type CardEventPublisher interface {
	PublishCardEvent(ctx context.Context, eventType string, payload any) error
}

type CardService struct {
	cardRepo  repository.CardRepository
	publisher CardEventPublisher
}

// CreateCardInput is the new-card payload.
type CreateCardInput struct {
	OwnerID uint   `json:"-"`
	Name    string `json:"name" validate:"required,min=2,max=30"`
	Link    string `json:"link" validate:"required,httpurl"`
}

// NewCardService builds the service. publisher may be nil.
func NewCardService(cardRepo repository.CardRepository, publisher CardEventPublisher) *CardService {
	return &CardService{cardRepo: cardRepo, publisher: publisher}
}

func (s *CardService) ListCards(ctx context.Context) ([]models.Card, error) {
	return s.cardRepo.List(ctx)
}

func (s *CardService) CreateCard(ctx context.Context, in CreateCardInput) (*models.Card, error) {
	ctx, span := observability.StartSpan(ctx, "CardService", "CreateCard")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	in.Name = strings.TrimSpace(in.Name)
	in.Link = strings.TrimSpace(in.Link)
	if err = validation.Struct(in); err != nil {
		return nil, err
	}

	card := &models.Card{Name: in.Name, Link: in.Link, OwnerID: in.OwnerID}
	if err = s.cardRepo.Create(ctx, card); err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.EventCardCreated, card)
	return card, nil
}

// DeleteCard removes a card owned by userID.
func (s *CardService) DeleteCard(ctx context.Context, cardID, userID uint) error {
	ctx, span := observability.StartSpan(ctx, "CardService", "DeleteCard")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return err
	}
	if card.OwnerID != userID {
		err = models.NewForbiddenError("You can only delete your own cards")
		return err
	}
	if err = s.cardRepo.Delete(ctx, cardID); err != nil {
		return err
	}
	s.publish(ctx, notifications.EventCardDeleted, map[string]uint{"_id": cardID})
	return nil
}

func (s *CardService) LikeCard(ctx context.Context, cardID, userID uint) (*models.Card, error) {
	card, err := s.cardRepo.AddLike(ctx, cardID, userID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.EventCardLiked, card)
	return card, nil
}

func (s *CardService) UnlikeCard(ctx context.Context, cardID, userID uint) (*models.Card, error) {
	card, err := s.cardRepo.RemoveLike(ctx, cardID, userID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.EventCardLiked, card)
	return card, nil
}

// publish is best effort; a feed outage never fails the write.
func (s *CardService) publish(ctx context.Context, eventType string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCardEvent(ctx, eventType, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish card event",
			slog.String("type", eventType), slog.String("error", err.Error()))
	}
}
