package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/assemblage/asm/internal/models"
)

var (
	// ErrDuplicateToken indicates an insert collided with an existing token.
	ErrDuplicateToken = errors.New("pending store: duplicate token")
	// ErrNotFound indicates no pending record matches the token.
	ErrNotFound = errors.New("pending store: not found")
)

// PendingStore persists pending registrations keyed by verification token.
// All operations are single-record; Consume is the only multi-statement one
// and runs in a transaction so that concurrent verifications of the same
// token produce exactly one winner.
type PendingStore struct {
	db *gorm.DB
}

// NewPendingStore wraps a database handle.
func NewPendingStore(db *gorm.DB) (*PendingStore, error) {
	if db == nil {
		return nil, errors.New("pending store: db is required")
	}
	return &PendingStore{db: db}, nil
}

// Put inserts a new pending record. Tokens are random, so a collision is
// practically impossible but still surfaced as ErrDuplicateToken.
func (s *PendingStore) Put(ctx context.Context, rec *models.PendingAccount) error {
	if rec == nil || strings.TrimSpace(rec.Token) == "" {
		return errors.New("pending store: token is required")
	}

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateToken
		}
		return fmt.Errorf("pending store: insert: %w", err)
	}
	return nil
}

// Get retrieves a pending record by token.
func (s *PendingStore) Get(ctx context.Context, token string) (*models.PendingAccount, error) {
	var rec models.PendingAccount
	err := s.db.WithContext(ctx).
		Where("token = ?", token).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("pending store: find: %w", err)
	}
	return &rec, nil
}

// Delete removes a pending record; absent tokens are a no-op.
func (s *PendingStore) Delete(ctx context.Context, token string) error {
	if err := s.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&models.PendingAccount{}).Error; err != nil {
		return fmt.Errorf("pending store: delete: %w", err)
	}
	return nil
}

// Consume atomically removes the record and returns its prior value. When two
// requests race on the same token, the loser's delete affects zero rows and
// it receives ErrNotFound.
func (s *PendingStore) Consume(ctx context.Context, token string) (*models.PendingAccount, error) {
	var rec models.PendingAccount

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token = ?", token).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("pending store: find: %w", err)
		}

		result := tx.Where("token = ?", token).Delete(&models.PendingAccount{})
		if result.Error != nil {
			return fmt.Errorf("pending store: consume delete: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteExpired removes every record created at or before the cutoff and
// returns how many rows were swept.
func (s *PendingStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.PendingAccount{})
	if result.Error != nil {
		return 0, fmt.Errorf("pending store: delete expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Driver-specific texts; sqlite reports "UNIQUE constraint failed".
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
