package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/assemblage/asm/internal/models"
	"github.com/assemblage/asm/internal/provision"
	"github.com/assemblage/asm/internal/store"
	"github.com/assemblage/asm/pkg/crypto"
	"github.com/assemblage/asm/pkg/logger"
	"github.com/assemblage/asm/pkg/mail"
)

const (
	defaultCodeLength     = 6
	defaultPasswordLength = 12
	defaultCodeTTL        = 15 * time.Minute
)

var (
	// ErrMissingFields indicates a registration with an empty required field.
	ErrMissingFields = errors.New("registration: missing required fields")
	// ErrInvalidDomain indicates the email does not contain the configured domain.
	ErrInvalidDomain = errors.New("registration: email outside configured domain")
	// ErrCodeNotFound indicates the submitted code matches no pending record.
	ErrCodeNotFound = errors.New("registration: code not found")
	// ErrCodeExpired indicates the code's validity window has lapsed.
	ErrCodeExpired = errors.New("registration: code expired")
)

// DeliveryError wraps a failed verification-email send. The pending record
// is intentionally left in place; the expiry sweeper collects it.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("registration: send verification email: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ProvisionError wraps a failed OS account creation. The consumed record is
// restored so the same code can be retried until it expires.
type ProvisionError struct {
	Err error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("registration: provision account: %v", e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// RegistrationInput carries the fields of a registration request.
type RegistrationInput struct {
	FirstName    string
	LastName     string
	StudentEmail string
	StudentNo    string
}

// Credentials are returned to the caller exactly once, after provisioning.
type Credentials struct {
	Username string
	Password string
}

// Option customises the RegistrationService.
type Option func(*RegistrationService)

// WithClock injects a custom time source, primarily for testing.
func WithClock(clock func() time.Time) Option {
	return func(s *RegistrationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithCodeTTL overrides the verification window.
func WithCodeTTL(d time.Duration) Option {
	return func(s *RegistrationService) {
		if d > 0 {
			s.codeTTL = d
		}
	}
}

// WithCodeLength overrides the verification code length.
func WithCodeLength(n int) Option {
	return func(s *RegistrationService) {
		if n > 0 {
			s.codeLength = n
		}
	}
}

// WithPasswordLength overrides the generated password length.
func WithPasswordLength(n int) Option {
	return func(s *RegistrationService) {
		if n > 0 {
			s.passwordLength = n
		}
	}
}

// WithAudit attaches a provisioning audit log. Best effort: audit failures
// never fail a verification.
func WithAudit(audit *AuditService) Option {
	return func(s *RegistrationService) {
		s.audit = audit
	}
}

// RegistrationService drives the pending-account lifecycle:
// Submitted -> PendingVerification -> {Provisioned, Expired, Rejected}.
type RegistrationService struct {
	pending     *store.PendingStore
	mailer      mail.Mailer
	provisioner provision.Provisioner
	audit       *AuditService
	domain      string

	codeLength     int
	passwordLength int
	codeTTL        time.Duration
	now            func() time.Time
	log            *zap.Logger
}

// NewRegistrationService wires the store, notifier and provisioner together.
// domain is the substring a registration email must contain.
func NewRegistrationService(
	pending *store.PendingStore,
	mailer mail.Mailer,
	provisioner provision.Provisioner,
	domain string,
	opts ...Option,
) (*RegistrationService, error) {
	if pending == nil {
		return nil, errors.New("registration service: pending store is required")
	}
	if provisioner == nil {
		return nil, errors.New("registration service: provisioner is required")
	}

	service := &RegistrationService{
		pending:        pending,
		mailer:         mailer,
		provisioner:    provisioner,
		domain:         strings.ToLower(strings.TrimSpace(domain)),
		codeLength:     defaultCodeLength,
		passwordLength: defaultPasswordLength,
		codeTTL:        defaultCodeTTL,
		now:            time.Now,
		log:            logger.WithModule("registration"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// CodeTTL exposes the verification window, e.g. for the expiry sweeper.
func (s *RegistrationService) CodeTTL() time.Duration {
	return s.codeTTL
}

// Register validates the input, persists a pending record under a fresh
// verification code, and emails the code to the student.
func (s *RegistrationService) Register(ctx context.Context, input RegistrationInput) (*models.PendingAccount, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	email := strings.TrimSpace(input.StudentEmail)
	studentNo := strings.TrimSpace(input.StudentNo)

	if firstName == "" || lastName == "" || email == "" || studentNo == "" {
		return nil, ErrMissingFields
	}
	if s.domain == "" || !strings.Contains(strings.ToLower(email), s.domain) {
		return nil, ErrInvalidDomain
	}

	username := models.UsernameFromEmail(email)
	s.log.Debug("registration accepted",
		zap.String("email", email),
		zap.String("username", username),
	)
	s.previewExistingUser(ctx, username)

	code, err := crypto.GenerateCode(s.codeLength)
	if err != nil {
		return nil, fmt.Errorf("registration: generate code: %w", err)
	}

	rec := &models.PendingAccount{
		Token:        code,
		FirstName:    firstName,
		LastName:     lastName,
		StudentEmail: email,
		StudentNo:    studentNo,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.pending.Put(ctx, rec); err != nil {
		return nil, err
	}
	s.log.Debug("pending registration stored", zap.String("username", username))

	if s.mailer != nil {
		msg := mail.Message{
			To:      email,
			Subject: "Your Assemblage Code",
			Body:    s.verificationBody(code),
		}
		if mailErr := s.mailer.Send(ctx, msg); mailErr != nil && !errors.Is(mailErr, mail.ErrSMTPDisabled) {
			s.log.Error("verification email failed", zap.String("email", email), zap.Error(mailErr))
			// The record stays; the sweeper removes it once the window lapses.
			return nil, &DeliveryError{Err: mailErr}
		}
	}

	s.log.Info("verification code sent", zap.String("username", username))
	return rec, nil
}

// Verify consumes the code, checks the validity window, and provisions the
// OS account. The returned credentials are shown to the caller exactly once.
func (s *RegistrationService) Verify(ctx context.Context, code string) (*Credentials, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrCodeNotFound
	}

	rec, err := s.pending.Consume(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	if rec.Expired(s.now().UTC(), s.codeTTL) {
		// Already removed by Consume, which is exactly what expiry requires.
		s.log.Info("verification code expired", zap.String("username", rec.Username()))
		return nil, ErrCodeExpired
	}

	username := rec.Username()

	password, err := crypto.GeneratePassword(s.passwordLength)
	if err != nil {
		s.restore(ctx, rec)
		return nil, fmt.Errorf("registration: generate password: %w", err)
	}

	if err := s.provisioner.CreateUser(ctx, username, password); err != nil {
		s.log.Error("account provisioning failed", zap.String("username", username), zap.Error(err))
		s.restore(ctx, rec)
		return nil, &ProvisionError{Err: err}
	}

	if s.audit != nil {
		if auditErr := s.audit.RecordProvisioned(ctx, username, rec.StudentEmail, rec.StudentNo); auditErr != nil {
			s.log.Warn("audit record failed", zap.String("username", username), zap.Error(auditErr))
		}
	}

	s.log.Info("account provisioned", zap.String("username", username))
	return &Credentials{Username: username, Password: password}, nil
}

// restore puts a consumed record back so the code stays redeemable until it
// expires. Losing the restore only costs the client a re-registration.
func (s *RegistrationService) restore(ctx context.Context, rec *models.PendingAccount) {
	if err := s.pending.Put(ctx, rec); err != nil && !errors.Is(err, store.ErrDuplicateToken) {
		s.log.Error("failed to restore pending record", zap.String("token", rec.Token), zap.Error(err))
	}
}

func (s *RegistrationService) previewExistingUser(ctx context.Context, username string) {
	exists, err := s.provisioner.UserExists(ctx, username)
	if err != nil {
		s.log.Debug("user existence probe failed", zap.String("username", username), zap.Error(err))
		return
	}
	if exists {
		// The provisioning script makes the final call at verification time.
		s.log.Warn("username already exists on this host", zap.String("username", username))
	}
}

func (s *RegistrationService) verificationBody(code string) string {
	minutes := int(s.codeTTL.Minutes())
	return fmt.Sprintf("Hello,\n\nYour verification code is:\n\n%s\n\nIt will expire in %d minutes.\n\nThank you.\n", code, minutes)
}
