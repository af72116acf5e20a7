package security

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mroshb/friends_api/pkg/errors"
)

const tokenIssuer = "friends_api"

// Purpose separates session tokens from email verification tokens, so one
// can never be replayed as the other.
type Purpose string

const (
	PurposeSession           Purpose = "session"
	PurposeEmailVerification Purpose = "email_verification"
)

type Claims struct {
	UserID  uint    `json:"user_id"`
	Email   string  `json:"email"`
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenManager issues and decodes HS256 tokens signed with one secret.
type TokenManager struct {
	secret     []byte
	sessionTTL time.Duration
	emailTTL   time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, sessionTTL, emailTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		emailTTL:   emailTTL,
		now:        time.Now,
	}
}

// TTL returns the lifetime of tokens issued for purpose
func (m *TokenManager) TTL(purpose Purpose) time.Duration {
	if purpose == PurposeEmailVerification {
		return m.emailTTL
	}
	return m.sessionTTL
}

// IssueToken creates a signed token for the user
func (m *TokenManager) IssueToken(userID uint, email string, purpose Purpose) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID:  userID,
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.TTL(purpose))),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternalError, "failed to sign token")
	}
	return signed, nil
}

// DecodeToken validates tokenString and returns its claims. The token must
// have been issued for purpose.
func (m *TokenManager) DecodeToken(tokenString string, purpose Purpose) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	if stderrors.Is(err, jwt.ErrTokenExpired) {
		return nil, errors.Wrap(err, errors.ErrCodeExpiredToken, "token expired")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidToken, "invalid token")
	}
	if claims.Purpose != purpose || claims.UserID == 0 {
		return nil, errors.New(errors.ErrCodeInvalidToken, "invalid token")
	}

	return claims, nil
}
