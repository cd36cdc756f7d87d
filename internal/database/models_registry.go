package database

import "mesto/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Card{},
		&models.CardLike{},
	}
}
