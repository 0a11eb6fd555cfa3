package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/assemblage/asm/internal/models"
)

// AuditService records successfully provisioned accounts and prunes old rows.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService constructs an AuditService.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db}, nil
}

// RecordProvisioned stores an audit row for a created OS account.
func (s *AuditService) RecordProvisioned(ctx context.Context, username, studentEmail, studentNo string) error {
	entry := models.ProvisionedAccount{
		Username:     username,
		StudentEmail: studentEmail,
		StudentNo:    studentNo,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("audit service: record provisioned: %w", err)
	}
	return nil
}

// CleanupOlderThan removes audit rows older than the retention period and
// returns the number of rows removed.
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ProvisionedAccount{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup: %w", result.Error)
	}
	return result.RowsAffected, nil
}
