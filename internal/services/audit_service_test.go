package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/assemblage/asm/internal/models"
)

func openAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ProvisionedAccount{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func TestAuditServiceRecordAndCleanup(t *testing.T) {
	db := openAuditTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	require.NoError(t, svc.RecordProvisioned(context.Background(), "ada", "ada@school.edu", "123"))

	// Backdate the row past the retention period.
	require.NoError(t, db.Model(&models.ProvisionedAccount{}).
		Where("username = ?", "ada").
		Update("created_at", time.Now().AddDate(0, 0, -120)).Error)

	require.NoError(t, svc.RecordProvisioned(context.Background(), "bob.smith", "bob.smith@school.edu", "456"))

	removed, err := svc.CleanupOlderThan(context.Background(), 90)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var remaining []models.ProvisionedAccount
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "bob.smith", remaining[0].Username)
}

func TestAuditServiceCleanupDisabledRetention(t *testing.T) {
	svc, err := NewAuditService(openAuditTestDB(t))
	require.NoError(t, err)

	removed, err := svc.CleanupOlderThan(context.Background(), 0)
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestNewAuditServiceRequiresDB(t *testing.T) {
	_, err := NewAuditService(nil)
	require.Error(t, err)
}
