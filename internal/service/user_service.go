// Package service holds the business rules between handlers and repositories.
package service

import (
	"context"
	"strings"

	"mesto/internal/models"
	"mesto/internal/observability"
	"mesto/internal/repository"
	"mesto/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 10

// ErrInvalidCredentials is returned for every failed sign-in, whether the
// email is unknown or the password does not match.
var ErrInvalidCredentials = models.NewUnauthorizedError("Incorrect email or password")

type UserService struct {
	userRepo repository.UserRepository
}

// RegisterInput is the signup payload. Empty profile fields take defaults.
type RegisterInput struct {
	Name     string `json:"name" validate:"omitempty,min=2,max=30"`
	About    string `json:"about" validate:"omitempty,min=2,max=30"`
	Avatar   string `json:"avatar" validate:"omitempty,httpurl"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password"`
}

// UpdateProfileInput carries the profile fields to change; nil means keep.
type UpdateProfileInput struct {
	UserID uint
	Name   *string `json:"name" validate:"omitempty,min=2,max=30"`
	About  *string `json:"about" validate:"omitempty,min=2,max=30"`
}

type updateAvatarInput struct {
	Avatar string `json:"avatar" validate:"required,httpurl"`
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Register validates the input, hashes the password and stores the user.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	ctx, span := observability.StartSpan(ctx, "UserService", "Register")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	in.Email = validation.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.About = strings.TrimSpace(in.About)
	in.Avatar = strings.TrimSpace(in.Avatar)

	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	if pwErr := validation.ValidatePassword(in.Password); pwErr != nil {
		err = models.NewValidationError(pwErr.Error())
		return nil, err
	}

	hash, hashErr := bcrypt.GenerateFromPassword([]byte(in.Password), BcryptCost)
	if hashErr != nil {
		err = models.NewInternalError(hashErr)
		return nil, err
	}

	user := &models.User{
		Name:     in.Name,
		About:    in.About,
		Avatar:   in.Avatar,
		Email:    in.Email,
		Password: string(hash),
	}
	user.ApplyDefaults()

	if err = s.userRepo.Create(ctx, user); err != nil {
		if models.ErrorCode(err) == models.CodeConflict {
			err = models.NewConflictError("A user with this email already exists")
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials and returns the user without its hash.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		observability.AuthAttempts.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmailWithPassword(ctx, email)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			observability.AuthAttempts.WithLabelValues("invalid").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		observability.AuthAttempts.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}

	observability.AuthAttempts.WithLabelValues("success").Inc()
	user.Password = ""
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile changes name and/or about. Nothing else is writable here.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
		fields["name"] = name
	}
	if in.About != nil {
		about := strings.TrimSpace(*in.About)
		in.About = &about
		fields["about"] = about
	}
	if len(fields) == 0 {
		return user, nil
	}
	if in.Name != nil && *in.Name == "" {
		return nil, models.NewValidationError("name is required")
	}
	if in.About != nil && *in.About == "" {
		return nil, models.NewValidationError("about is required")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	return s.userRepo.UpdateFields(ctx, in.UserID, fields)
}

// UpdateAvatar replaces the avatar URL.
func (s *UserService) UpdateAvatar(ctx context.Context, userID uint, avatar string) (*models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	in := updateAvatarInput{Avatar: strings.TrimSpace(avatar)}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	return s.userRepo.UpdateFields(ctx, userID, map[string]any{"avatar": in.Avatar})
}
