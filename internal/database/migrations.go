package database

import (
	"gorm.io/gorm"

	"github.com/assemblage/asm/internal/models"
)

// AutoMigrate creates or updates the schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.PendingAccount{},
		&models.ProvisionedAccount{},
	)
}
