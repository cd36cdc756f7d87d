package service

import (
	"context"
	"testing"

	"mesto/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userRepoStub struct {
	getByIDFn                func(ctx context.Context, id uint) (*models.User, error)
	getByEmailWithPasswordFn func(ctx context.Context, email string) (*models.User, error)
	createFn                 func(ctx context.Context, user *models.User) error
	updateFieldsFn           func(ctx context.Context, id uint, fields map[string]any) (*models.User, error)
	listFn                   func(ctx context.Context, limit, offset int) ([]models.User, error)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return nil, models.NewNotFoundError("User", id)
		},
		getByEmailWithPasswordFn: func(_ context.Context, email string) (*models.User, error) {
			return nil, models.NewNotFoundError("User", email)
		},
		createFn: func(_ context.Context, _ *models.User) error { return nil },
		updateFieldsFn: func(_ context.Context, id uint, _ map[string]any) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		listFn: func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
	}
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}

func (s *userRepoStub) GetByEmailWithPassword(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailWithPasswordFn(ctx, email)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}

func (s *userRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]any) (*models.User, error) {
	return s.updateFieldsFn(ctx, id, fields)
}

func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}

type cardRepoStub struct {
	cards   map[uint]*models.Card
	deleted []uint
}

func newCardRepoStub(cards ...*models.Card) *cardRepoStub {
	s := &cardRepoStub{cards: map[uint]*models.Card{}}
	for _, c := range cards {
		s.cards[c.ID] = c
	}
	return s
}

func (s *cardRepoStub) List(_ context.Context) ([]models.Card, error) {
	out := make([]models.Card, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, *c)
	}
	return out, nil
}

func (s *cardRepoStub) GetByID(_ context.Context, id uint) (*models.Card, error) {
	c, ok := s.cards[id]
	if !ok {
		return nil, models.NewNotFoundError("Card", id)
	}
	return c, nil
}

func (s *cardRepoStub) Create(_ context.Context, card *models.Card) error {
	card.ID = uint(len(s.cards) + 1)
	card.LikeIDs = []uint{}
	s.cards[card.ID] = card
	return nil
}

func (s *cardRepoStub) Delete(_ context.Context, id uint) error {
	delete(s.cards, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *cardRepoStub) AddLike(ctx context.Context, cardID, userID uint) (*models.Card, error) {
	c, err := s.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if !c.IsLikedBy(userID) {
		c.LikeIDs = append(c.LikeIDs, userID)
	}
	return c, nil
}

func (s *cardRepoStub) RemoveLike(ctx context.Context, cardID, userID uint) (*models.Card, error) {
	c, err := s.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	kept := c.LikeIDs[:0]
	for _, id := range c.LikeIDs {
		if id != userID {
			kept = append(kept, id)
		}
	}
	c.LikeIDs = kept
	return c, nil
}

type recordingPublisher struct {
	events []string
	err    error
}

func (p *recordingPublisher) PublishCardEvent(_ context.Context, eventType string, _ any) error {
	p.events = append(p.events, eventType)
	return p.err
}

func assertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, models.ErrorCode(err), "unexpected error: %v", err)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertErrorCode(t, err, models.CodeValidation)
}
