package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/assemblage/asm/internal/models"
	"github.com/assemblage/asm/internal/store"
	"github.com/assemblage/asm/pkg/mail"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

type recordingMailer struct {
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeProvisioner struct {
	created map[string]string // username -> password
	exists  map[string]bool
	err     error
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{created: map[string]string{}, exists: map[string]bool{}}
}

func (p *fakeProvisioner) CreateUser(ctx context.Context, username, password string) error {
	if p.err != nil {
		return p.err
	}
	p.created[username] = password
	return nil
}

func (p *fakeProvisioner) UserExists(ctx context.Context, username string) (bool, error) {
	return p.exists[username], nil
}

type fixture struct {
	svc         *RegistrationService
	pending     *store.PendingStore
	mailer      *recordingMailer
	provisioner *fakeProvisioner
	db          *gorm.DB
	clock       *time.Time
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PendingAccount{}, &models.ProvisionedAccount{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	pending, err := store.NewPendingStore(db)
	require.NoError(t, err)

	mailer := &recordingMailer{}
	provisioner := newFakeProvisioner()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &now

	allOpts := append([]Option{WithClock(func() time.Time { return *clock })}, opts...)

	svc, err := NewRegistrationService(pending, mailer, provisioner, "school.edu", allOpts...)
	require.NoError(t, err)

	return &fixture{svc: svc, pending: pending, mailer: mailer, provisioner: provisioner, db: db, clock: clock}
}

func validInput() RegistrationInput {
	return RegistrationInput{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		StudentEmail: "ada@school.edu",
		StudentNo:    "123",
	}
}

func TestRegisterStoresPendingAndSendsCode(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	require.Regexp(t, codePattern, rec.Token)

	stored, err := f.pending.Get(context.Background(), rec.Token)
	require.NoError(t, err)
	require.Equal(t, "ada@school.edu", stored.StudentEmail)

	require.Len(t, f.mailer.sent, 1)
	require.Equal(t, "ada@school.edu", f.mailer.sent[0].To)
	require.Contains(t, f.mailer.sent[0].Body, rec.Token)
	require.Contains(t, f.mailer.sent[0].Body, "expire in 15 minutes")
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	f := newFixture(t)

	for _, mutate := range []func(*RegistrationInput){
		func(in *RegistrationInput) { in.FirstName = "" },
		func(in *RegistrationInput) { in.LastName = "  " },
		func(in *RegistrationInput) { in.StudentEmail = "" },
		func(in *RegistrationInput) { in.StudentNo = "\t" },
	} {
		input := validInput()
		mutate(&input)
		_, err := f.svc.Register(context.Background(), input)
		require.ErrorIs(t, err, ErrMissingFields)
	}

	require.Empty(t, f.mailer.sent)

	var count int64
	require.NoError(t, f.db.Model(&models.PendingAccount{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestRegisterRejectsForeignDomain(t *testing.T) {
	f := newFixture(t)

	input := validInput()
	input.StudentEmail = "ada@elsewhere.org"
	_, err := f.svc.Register(context.Background(), input)
	require.ErrorIs(t, err, ErrInvalidDomain)
	require.Empty(t, f.mailer.sent)
}

func TestRegisterDomainCheckIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)

	input := validInput()
	input.StudentEmail = "Ada@SCHOOL.EDU"
	_, err := f.svc.Register(context.Background(), input)
	require.NoError(t, err)
}

func TestRegisterDeliveryFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("relay refused")

	_, err := f.svc.Register(context.Background(), validInput())

	var deliveryErr *DeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	require.Contains(t, deliveryErr.Err.Error(), "relay refused")

	// Orphaned record stays until the sweeper collects it.
	var count int64
	require.NoError(t, f.db.Model(&models.PendingAccount{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRegisterToleratesDisabledSMTP(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = mail.ErrSMTPDisabled

	_, err := f.svc.Register(context.Background(), validInput())
	require.NoError(t, err)
}

func TestVerifyProvisionsAndConsumes(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	creds, err := f.svc.Verify(context.Background(), rec.Token)
	require.NoError(t, err)
	require.Equal(t, "ada", creds.Username)
	require.Regexp(t, `^[A-Za-z0-9]{12}$`, creds.Password)
	require.Equal(t, creds.Password, f.provisioner.created["ada"])

	// Consumed: the same code cannot be redeemed twice.
	_, err = f.svc.Verify(context.Background(), rec.Token)
	require.ErrorIs(t, err, ErrCodeNotFound)

	// Audit is optional and was not attached here.
	var count int64
	require.NoError(t, f.db.Model(&models.ProvisionedAccount{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestVerifyUsernameKeepsDots(t *testing.T) {
	f := newFixture(t)

	input := validInput()
	input.StudentEmail = "bob.smith@school.edu"
	rec, err := f.svc.Register(context.Background(), input)
	require.NoError(t, err)

	creds, err := f.svc.Verify(context.Background(), rec.Token)
	require.NoError(t, err)
	require.Equal(t, "bob.smith", creds.Username)
}

func TestVerifyUnknownCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Verify(context.Background(), "AAAAAA")
	require.ErrorIs(t, err, ErrCodeNotFound)

	_, err = f.svc.Verify(context.Background(), "   ")
	require.ErrorIs(t, err, ErrCodeNotFound)
}

func TestVerifyExpiryBoundary(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	// One second short of the window: still valid.
	*f.clock = f.clock.Add(14*time.Minute + 59*time.Second)
	creds, err := f.svc.Verify(context.Background(), rec.Token)
	require.NoError(t, err)
	require.NotNil(t, creds)
}

func TestVerifyExactBoundaryStillValid(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	*f.clock = f.clock.Add(15 * time.Minute)
	_, err = f.svc.Verify(context.Background(), rec.Token)
	require.NoError(t, err)
}

func TestVerifyExpiredCodeIsDeleted(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	*f.clock = f.clock.Add(15*time.Minute + time.Second)
	_, err = f.svc.Verify(context.Background(), rec.Token)
	require.ErrorIs(t, err, ErrCodeExpired)

	// Expiry removes the record; nothing was provisioned.
	_, err = f.pending.Get(context.Background(), rec.Token)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Empty(t, f.provisioner.created)
}

func TestVerifyProvisionFailureRestoresRecord(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	f.provisioner.err = errors.New("useradd: permission denied")
	_, err = f.svc.Verify(context.Background(), rec.Token)

	var provisionErr *ProvisionError
	require.ErrorAs(t, err, &provisionErr)

	// The code is redeemable again once the underlying failure clears.
	f.provisioner.err = nil
	creds, err := f.svc.Verify(context.Background(), rec.Token)
	require.NoError(t, err)
	require.Equal(t, "ada", creds.Username)
}

func TestVerifyWritesAuditRecord(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PendingAccount{}, &models.ProvisionedAccount{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	pending, err := store.NewPendingStore(db)
	require.NoError(t, err)
	audit, err := NewAuditService(db)
	require.NoError(t, err)

	svc, err := NewRegistrationService(pending, &recordingMailer{}, newFakeProvisioner(), "school.edu", WithAudit(audit))
	require.NoError(t, err)

	rec, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), rec.Token)
	require.NoError(t, err)

	var entries []models.ProvisionedAccount
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	require.Equal(t, "ada", entries[0].Username)
	require.Equal(t, "ada@school.edu", entries[0].StudentEmail)
	require.NotEmpty(t, entries[0].ID)
}
