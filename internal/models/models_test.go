package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUsernameFromEmail(t *testing.T) {
	cases := map[string]string{
		"ada@school.edu":        "ada",
		"bob.smith@school.edu":  "bob.smith",
		" Ada@School.EDU ":      "ada",
		"no-at-sign":            "no-at-sign",
		"double@at@school.edu":  "double",
		"":                      "",
	}
	for email, want := range cases {
		require.Equal(t, want, UsernameFromEmail(email), "email %q", email)
	}
}

func TestPendingAccountExpiryBoundary(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := PendingAccount{Token: "AB12CD", CreatedAt: created}
	window := 15 * time.Minute

	require.False(t, rec.Expired(created.Add(14*time.Minute+59*time.Second), window))
	require.False(t, rec.Expired(created.Add(window), window), "boundary instant is still valid")
	require.True(t, rec.Expired(created.Add(window+time.Second), window))
}
