package crypto

import (
	"strings"
	"testing"
)

func TestGenerateCodeAlphabet(t *testing.T) {
	code, err := GenerateCode(6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 characters, got %d", len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			t.Fatalf("code %q contains %q outside the uppercase alphanumeric alphabet", code, r)
		}
	}
}

func TestGeneratePasswordAlphabet(t *testing.T) {
	password, err := GeneratePassword(12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(password) != 12 {
		t.Fatalf("expected 12 characters, got %d", len(password))
	}
	for _, r := range password {
		if !strings.ContainsRune(passwordAlphabet, r) {
			t.Fatalf("password %q contains %q outside the alphanumeric alphabet", password, r)
		}
	}
}

func TestGenerateCodeUniqueness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		code, err := GenerateCode(6)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen[code] = struct{}{}
	}
	// 36^6 possibilities; 64 draws colliding down to a handful would mean a
	// broken random source.
	if len(seen) < 60 {
		t.Fatalf("suspiciously many duplicate codes: %d unique of 64", len(seen))
	}
}

func TestRandomStringRejectsNonPositiveLength(t *testing.T) {
	if _, err := GenerateCode(0); err == nil {
		t.Fatal("expected error for zero length")
	}
	if _, err := GeneratePassword(-1); err == nil {
		t.Fatal("expected error for negative length")
	}
}
