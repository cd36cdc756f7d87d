package repository

import (
	"context"

	"mesto/internal/cache"
	"mesto/internal/models"
	"mesto/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CardRepository defines persistence operations for cards and their likes.
type CardRepository interface {
	List(ctx context.Context) ([]models.Card, error)
	GetByID(ctx context.Context, id uint) (*models.Card, error)
	Create(ctx context.Context, card *models.Card) error
	Delete(ctx context.Context, id uint) error
	AddLike(ctx context.Context, cardID, userID uint) (*models.Card, error)
	RemoveLike(ctx context.Context, cardID, userID uint) (*models.Card, error)
}

type cardRepository struct {
	db *gorm.DB
}

// NewCardRepository returns a new CardRepository implementation.
func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepository{db: db}
}

func preloadLikes(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// List returns every card, newest first.
func (r *cardRepository) List(ctx context.Context) ([]models.Card, error) {
	cards := []models.Card{}
	err := cache.Aside(ctx, cache.CardsListKey, &cards, cache.CardsListTTL, func() error {
		defer observability.TrackQuery("select", "cards")()
		if err := r.db.WithContext(ctx).
			Preload("Likes", preloadLikes).
			Order("created_at DESC, id DESC").
			Find(&cards).Error; err != nil {
			return models.NewInternalError(err)
		}
		for i := range cards {
			cards[i].SyncLikeIDs()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *cardRepository) GetByID(ctx context.Context, id uint) (*models.Card, error) {
	defer observability.TrackQuery("select", "cards")()
	var card models.Card
	if err := r.db.WithContext(ctx).Preload("Likes", preloadLikes).First(&card, id).Error; err != nil {
		return nil, translateError(err, "Card", id)
	}
	card.SyncLikeIDs()
	return &card, nil
}

func (r *cardRepository) Create(ctx context.Context, card *models.Card) error {
	defer observability.TrackQuery("insert", "cards")()
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(card).Error; err != nil {
		return translateError(err, "Card", card.Name)
	}
	card.LikeIDs = []uint{}
	cache.InvalidateCards(ctx)
	return nil
}

// Delete removes the card and its likes in one transaction.
func (r *cardRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "cards")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("card_id = ?", id).Delete(&models.CardLike{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Card{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return translateError(err, "Card", id)
	}
	cache.InvalidateCards(ctx)
	return nil
}

// AddLike inserts the like unless it already exists.
func (r *cardRepository) AddLike(ctx context.Context, cardID, userID uint) (*models.Card, error) {
	if _, err := r.GetByID(ctx, cardID); err != nil {
		return nil, err
	}

	done := observability.TrackQuery("insert", "card_likes")
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "card_id"}},
			DoNothing: true,
		}).
		Create(&models.CardLike{UserID: userID, CardID: cardID}).Error
	done()
	if err != nil {
		return nil, translateError(err, "Card", cardID)
	}
	cache.InvalidateCards(ctx)
	return r.GetByID(ctx, cardID)
}

// RemoveLike deletes the like if present.
func (r *cardRepository) RemoveLike(ctx context.Context, cardID, userID uint) (*models.Card, error) {
	if _, err := r.GetByID(ctx, cardID); err != nil {
		return nil, err
	}

	done := observability.TrackQuery("delete", "card_likes")
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND card_id = ?", userID, cardID).
		Delete(&models.CardLike{}).Error
	done()
	if err != nil {
		return nil, translateError(err, "Card", cardID)
	}
	cache.InvalidateCards(ctx)
	return r.GetByID(ctx, cardID)
}
