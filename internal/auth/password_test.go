package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("changeme1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Fatalf("unexpected hash prefix: %s", hash)
	}
	if NeedsRehash(hash) {
		t.Error("fresh hash should not need rehash")
	}

	other, err := HashPassword("changeme1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == other {
		t.Error("hashes of the same password should differ by salt")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("changeme1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"correct", "changeme1", true},
		{"wrong", "wrongpassword", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckPassword(tt.password, hash)
			if err != nil {
				t.Fatalf("CheckPassword error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckPassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	tests := []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$!!$aGFzaA",
	}

	for _, hash := range tests {
		if _, err := CheckPassword("x", hash); err == nil {
			t.Errorf("CheckPassword with hash %q should fail", hash)
		}
		if !NeedsRehash(hash) {
			t.Errorf("NeedsRehash(%q) should be true", hash)
		}
	}
}

func TestNeedsRehash_OldParameters(t *testing.T) {
	old := "$argon2id$v=19$m=65536,t=1,p=4$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g"
	if !NeedsRehash(old) {
		t.Error("hash with old parameters should need rehash")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     error
	}{
		{"short", ErrPasswordTooShort},
		{"longenough", nil},
		{"كلمةسرطويلة", nil},
		{strings.Repeat("a", MaxPasswordLength+1), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		if err := ValidatePassword(tt.password); !errors.Is(err, tt.want) {
			t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, err, tt.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ali@Example.COM "); got != "ali@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}
