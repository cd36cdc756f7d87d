// Package repository implements the data access layer for the application.
package repository

import (
	"errors"

	"mesto/internal/database"
	"mesto/internal/models"

	"gorm.io/gorm"
)

// translateError maps GORM errors onto the application error kinds.
func translateError(err error, resource string, id any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError(resource, id)
	case database.IsUniqueViolation(err):
		return models.NewConflictError(resource + " already exists")
	default:
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
}
