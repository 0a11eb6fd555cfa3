package models

import (
	"strings"
	"time"
)

// PendingAccount is a registration awaiting email verification. The
// verification code doubles as the primary key; the row lives only between
// submission and verification or expiry and is never updated in place.
type PendingAccount struct {
	Token        string    `gorm:"primaryKey" json:"token"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	StudentEmail string    `json:"student_email"`
	StudentNo    string    `json:"student_no"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// Username derives the OS account name from the stored email: everything
// before the first '@'.
func (p PendingAccount) Username() string {
	return UsernameFromEmail(p.StudentEmail)
}

// ExpiresAt returns the instant the verification window closes.
func (p PendingAccount) ExpiresAt(window time.Duration) time.Time {
	return p.CreatedAt.Add(window)
}

// Expired reports whether the record's window has lapsed at the given time.
// The boundary itself is still valid; only strictly-later instants expire.
func (p PendingAccount) Expired(now time.Time, window time.Duration) bool {
	return now.After(p.ExpiresAt(window))
}

// UsernameFromEmail returns the local part of an email address, lowercased
// and trimmed. The same derivation runs at registration (preview) and at
// verification (authoritative).
func UsernameFromEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}
