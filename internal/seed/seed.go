package seed

import (
	"fmt"

	"mesto/internal/middleware"
	"mesto/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options control a seeding run.
type Options struct {
	Users      int
	Cards      int
	Clean      bool
	SkipBcrypt bool
	// RandSeed makes runs reproducible; zero picks a random seed.
	RandSeed int64
	// MaxLikes caps the likes given to a single card.
	MaxLikes int
}

// Summary reports what a run created.
type Summary struct {
	Users int
	Cards int
	Likes int
}

// Seed fills db with fake users, cards and likes.
func Seed(db *gorm.DB, opts Options) (Summary, error) {
	var summary Summary
	if opts.Users <= 0 {
		return summary, fmt.Errorf("at least one user is required")
	}
	if opts.MaxLikes <= 0 {
		opts.MaxLikes = 10
	}

	if opts.Clean {
		if err := ClearAll(db); err != nil {
			return summary, fmt.Errorf("clear data: %w", err)
		}
	}

	f, err := NewFactory(db, opts.RandSeed, opts.SkipBcrypt)
	if err != nil {
		return summary, err
	}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		users = append(users, f.BuildUser())
	}
	if err := f.CreateUsersBatch(users); err != nil {
		return summary, fmt.Errorf("create users: %w", err)
	}
	summary.Users = len(users)
	middleware.Logger.Info("seeded users", "count", summary.Users)

	cards := make([]*models.Card, 0, opts.Cards)
	for i := 0; i < opts.Cards; i++ {
		cards = append(cards, f.BuildCard(users[f.rand.Intn(len(users))]))
	}
	if err := f.CreateCardsBatch(cards); err != nil {
		return summary, fmt.Errorf("create cards: %w", err)
	}
	summary.Cards = len(cards)
	middleware.Logger.Info("seeded cards", "count", summary.Cards)

	var likes []models.CardLike
	for _, card := range cards {
		n := f.rand.Intn(min(opts.MaxLikes, len(users)) + 1)
		for _, idx := range f.rand.Perm(len(users))[:n] {
			likes = append(likes, models.CardLike{UserID: users[idx].ID, CardID: card.ID})
		}
	}
	if len(likes) > 0 {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&likes, 500).Error; err != nil {
			return summary, fmt.Errorf("create likes: %w", err)
		}
	}
	summary.Likes = len(likes)
	middleware.Logger.Info("seeded likes", "count", summary.Likes)

	return summary, nil
}

// ClearAll deletes every card, like and user.
func ClearAll(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.CardLike{}, &models.Card{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
