// Package seed creates demo users, cards and likes. It is intended for
// development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"mesto/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db     *gorm.DB
	faker  *gofakeit.Faker
	rand   *rand.Rand
	hashed string
}

// NewFactory creates a Factory bound to db. A zero seed picks a random one.
func NewFactory(db *gorm.DB, seed int64, skipBcrypt bool) (*Factory, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	hashed := DefaultPassword
	if !skipBcrypt {
		raw, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		hashed = string(raw)
	}

	return &Factory{
		db:     db,
		faker:  gofakeit.New(seed),
		rand:   rand.New(rand.NewSource(seed)),
		hashed: hashed,
	}, nil
}

// BuildUser returns an unsaved user with a unique-looking email.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	user := &models.User{
		Name:     clamp(f.faker.Name(), 2, 30),
		About:    clamp(f.faker.JobTitle(), 2, 30),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		Email:    strings.ToLower(fmt.Sprintf("%s.%d@%s", f.faker.Username(), f.faker.Number(1000, 9999), f.faker.DomainName())),
		Password: f.hashed,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// BuildCard returns an unsaved card owned by owner, created within the last 90 days.
func (f *Factory) BuildCard(owner *models.User, overrides ...func(*models.Card)) *models.Card {
	card := &models.Card{
		Name:      clamp(f.faker.City(), 2, 30),
		Link:      fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()),
		OwnerID:   owner.ID,
		CreatedAt: time.Now().Add(-time.Duration(f.rand.Intn(90*24*60)) * time.Minute),
	}
	for _, override := range overrides {
		override(card)
	}
	return card
}

// CreateUsersBatch persists users in one statement.
func (f *Factory) CreateUsersBatch(users []*models.User) error {
	if len(users) == 0 {
		return nil
	}
	return f.db.Create(&users).Error
}

// CreateCardsBatch persists cards in one statement.
func (f *Factory) CreateCardsBatch(cards []*models.Card) error {
	if len(cards) == 0 {
		return nil
	}
	return f.db.Omit("Likes", "Owner").Create(&cards).Error
}

// clamp pads or trims s to fit the [min, max] rune length.
func clamp(s string, min, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > max {
		r = []rune(strings.TrimSpace(string(r[:max])))
	}
	for len(r) < min {
		r = append(r, '_')
	}
	return string(r)
}
