package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/assemblage/asm/internal/services"
	"github.com/assemblage/asm/internal/store"
	"github.com/assemblage/asm/pkg/logger"
)

const (
	defaultAuditRetentionDays = 90
	defaultSweepSpec          = "@every 5m"
	defaultAuditSpec          = "@daily"
	defaultCodeTTL            = 15 * time.Minute
)

// Cleaner coordinates background maintenance: sweeping stale pending
// registrations (including delivery orphans whose email never arrived) and
// pruning old provisioning audit rows.
type Cleaner struct {
	pending   *store.PendingStore
	audit     *services.AuditService
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	enabled   bool
	retention int
	codeTTL   time.Duration

	sweepSchedule string
	auditSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithCodeTTL sets the verification window used to decide when a pending
// registration counts as stale.
func WithCodeTTL(ttl time.Duration) Option {
	return func(cleaner *Cleaner) {
		if ttl > 0 {
			cleaner.codeTTL = ttl
		}
	}
}

// WithAuditRetentionDays adjusts how long audit rows are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithSweepSchedule overrides the cron specification for the pending sweep.
func WithSweepSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sweepSchedule = spec
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency
// results in the corresponding cleanup job being skipped.
func NewCleaner(pending *store.PendingStore, audit *services.AuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		pending:       pending,
		audit:         audit,
		now:           time.Now,
		retention:     defaultAuditRetentionDays,
		codeTTL:       defaultCodeTTL,
		sweepSchedule: defaultSweepSpec,
		auditSchedule: defaultAuditSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.pending != nil || cleaner.audit != nil

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at
// least one cleanup is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.pending != nil {
		if _, err := c.cron.AddFunc(c.sweepSchedule, func() {
			if _, err := c.sweepPending(context.Background()); err != nil {
				c.log.Warn("pending registration sweep failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.audit != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			if _, err := c.audit.CleanupOlderThan(context.Background(), c.retention); err != nil {
				c.log.Warn("audit cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily
// used in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.pending != nil {
		if _, err := c.sweepPending(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.audit != nil && c.retention > 0 {
		if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

func (c *Cleaner) sweepPending(ctx context.Context) (int64, error) {
	cutoff := c.now().UTC().Add(-c.codeTTL)
	removed, err := c.pending.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		c.log.Info("swept expired pending registrations", zap.Int64("removed", removed))
	}
	return removed, nil
}
