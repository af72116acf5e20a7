package security

import (
	"strings"
	"testing"
	"time"

	"github.com/mroshb/friends_api/pkg/errors"
)

const testSecret = "test_secret_key_minimum_32_chars"

func newTestManager() *TokenManager {
	return NewTokenManager(testSecret, 120*time.Hour, 15*time.Minute)
}

func TestIssueToken(t *testing.T) {
	tests := []struct {
		name    string
		userID  uint
		email   string
		purpose Purpose
		ttl     time.Duration
	}{
		{
			name:    "Session token",
			userID:  1,
			email:   "alice@x.com",
			purpose: PurposeSession,
			ttl:     120 * time.Hour,
		},
		{
			name:    "Verification token",
			userID:  2,
			email:   "bob@x.com",
			purpose: PurposeEmailVerification,
			ttl:     15 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager()
			issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			m.now = func() time.Time { return issued }

			token, err := m.IssueToken(tt.userID, tt.email, tt.purpose)
			if err != nil {
				t.Fatalf("IssueToken() error = %v", err)
			}
			if strings.Count(token, ".") != 2 {
				t.Fatalf("IssueToken() returned malformed token %q", token)
			}

			claims, err := m.DecodeToken(token, tt.purpose)
			if err != nil {
				t.Fatalf("DecodeToken() error = %v", err)
			}

			if claims.UserID != tt.userID {
				t.Errorf("UserID = %d, want %d", claims.UserID, tt.userID)
			}
			if claims.Email != tt.email {
				t.Errorf("Email = %q, want %q", claims.Email, tt.email)
			}
			if claims.ID == "" {
				t.Error("token carries no jti")
			}
			if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != tt.ttl {
				t.Errorf("lifetime = %v, want %v", got, tt.ttl)
			}
		})
	}
}

func TestIssueToken_UniqueIDs(t *testing.T) {
	m := newTestManager()
	a, _ := m.IssueToken(1, "alice@x.com", PurposeSession)
	b, _ := m.IssueToken(1, "alice@x.com", PurposeSession)
	if a == b {
		t.Error("two tokens issued in the same second are identical")
	}
}

func TestDecodeToken_Invalid(t *testing.T) {
	m := newTestManager()
	other := NewTokenManager("another_secret_key_minimum_32_chars", time.Hour, time.Minute)
	forged, _ := other.IssueToken(1, "alice@x.com", PurposeSession)

	tests := []struct {
		name  string
		token string
	}{
		{name: "Empty token", token: ""},
		{name: "Invalid format", token: "invalid.token.here"},
		{name: "Random string", token: "randomstring"},
		{name: "Wrong secret", token: forged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.DecodeToken(tt.token, PurposeSession)
			if !errors.HasCode(err, errors.ErrCodeInvalidToken) {
				t.Errorf("DecodeToken() error = %v, want %s", err, errors.ErrCodeInvalidToken)
			}
		})
	}
}

func TestDecodeToken_WrongPurpose(t *testing.T) {
	m := newTestManager()
	token, err := m.IssueToken(1, "alice@x.com", PurposeEmailVerification)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	_, err = m.DecodeToken(token, PurposeSession)
	if !errors.HasCode(err, errors.ErrCodeInvalidToken) {
		t.Errorf("verification token accepted as session: %v", err)
	}
}

func TestDecodeToken_Expired(t *testing.T) {
	m := newTestManager()
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.IssueToken(1, "alice@x.com", PurposeEmailVerification)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	m.now = time.Now
	_, err = m.DecodeToken(token, PurposeEmailVerification)
	if !errors.HasCode(err, errors.ErrCodeExpiredToken) {
		t.Errorf("DecodeToken() error = %v, want %s", err, errors.ErrCodeExpiredToken)
	}
}

func TestTTL(t *testing.T) {
	m := newTestManager()
	if m.TTL(PurposeSession) <= m.TTL(PurposeEmailVerification) {
		t.Error("session TTL should exceed verification TTL")
	}
}
