package repository

import (
	"context"

	"mesto/internal/cache"
	"mesto/internal/models"
	"mesto/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmailWithPassword(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id uint, fields map[string]any) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		defer observability.TrackQuery("select", "users")()
		err := r.db.WithContext(ctx).Omit("password").First(&user, id).Error
		return translateError(err, "User", id)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmailWithPassword is the only read that loads the password hash.
func (r *userRepository) GetByEmailWithPassword(ctx context.Context, email string) (*models.User, error) {
	defer observability.TrackQuery("select", "users")()
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateError(err, "User", email)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("insert", "users")()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateError(err, "User", user.Email)
	}
	return nil
}

// UpdateFields writes only the named columns and returns the fresh row.
func (r *userRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) (*models.User, error) {
	if len(fields) > 0 {
		done := observability.TrackQuery("update", "users")
		columns := make([]string, 0, len(fields))
		for col := range fields {
			columns = append(columns, col)
		}
		result := r.db.WithContext(ctx).
			Model(&models.User{ID: id}).
			Select(columns).
			Updates(fields)
		done()
		if result.Error != nil {
			return nil, translateError(result.Error, "User", id)
		}
		if result.RowsAffected == 0 {
			return nil, models.NewNotFoundError("User", id)
		}
		cache.InvalidateUser(ctx, id)
	}
	return r.GetByID(ctx, id)
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	defer observability.TrackQuery("select", "users")()
	users := []models.User{}
	if err := r.db.WithContext(ctx).
		Omit("password").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
