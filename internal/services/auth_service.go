package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mroshb/friends_api/internal/metrics"
	"github.com/mroshb/friends_api/internal/models"
	"github.com/mroshb/friends_api/internal/security"
	"github.com/mroshb/friends_api/pkg/errors"
	"github.com/mroshb/friends_api/pkg/logger"
)

type AuthOptions struct {
	BcryptCost               int
	RequireEmailVerification bool
	PublicBaseURL            string
}

type AuthService struct {
	users   UserStore
	tokens  *security.TokenManager
	mailer  Mailer
	limiter Limiter
	opts    AuthOptions
}

func NewAuthService(users UserStore, tokens *security.TokenManager, mailer Mailer, limiter Limiter, opts AuthOptions) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokens,
		mailer:  mailer,
		limiter: limiter,
		opts:    opts,
	}
}

// Session is an authenticated user together with a fresh session token
type Session struct {
	User  *models.User
	Token string
}

// RegisterResult holds the new account. Token is empty when the account
// must verify its email before logging in.
type RegisterResult struct {
	Session
	VerificationSent bool
}

// RequiresVerification reports whether new accounts must verify their email
func (s *AuthService) RequiresVerification() bool {
	return s.opts.RequireEmailVerification
}

// SessionMaxAge is the session lifetime in seconds, for cookie Max-Age
func (s *AuthService) SessionMaxAge() int {
	return int(s.tokens.TTL(security.PurposeSession).Seconds())
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*RegisterResult, error) {
	// Length rules apply to the stored value
	req.Username = security.SanitizeString(req.Username)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	username, ok := security.SanitizeUsername(req.Username)
	if !ok {
		return nil, errors.New(errors.ErrCodeValidation, "username contains invalid characters")
	}
	email := security.NormalizeEmail(req.Email)

	existing, err := s.users.FindUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New(errors.ErrCodeAlreadyExists, "email already registered")
	}

	existing, err = s.users.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New(errors.ErrCodeAlreadyExists, "username already taken")
	}

	hash, err := security.HashPassword(req.Password, s.opts.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:      username,
		Email:         email,
		Password:      hash,
		EmailVerified: !s.opts.RequireEmailVerification,
	}
	if err := s.users.AddUser(ctx, user); err != nil {
		if errors.HasCode(err, errors.ErrCodeUniqueViolation) {
			// Lost a race with a concurrent registration
			return nil, errors.Wrap(err, errors.ErrCodeAlreadyExists, "email or username already registered")
		}
		return nil, err
	}

	metrics.AuthEvents.WithLabelValues("register").Inc()
	logger.Info("User registered", "user_id", user.ID, "username", user.Username)

	result := &RegisterResult{Session: Session{User: user}}

	if s.opts.RequireEmailVerification {
		if err := s.SendVerificationEmail(ctx, user); err != nil {
			logger.Error("Failed to send verification email", "user_id", user.ID, "error", err)
		} else {
			result.VerificationSent = true
		}
		return result, nil
	}

	result.Token, err = s.tokens.IssueToken(user.ID, user.Email, security.PurposeSession)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*Session, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindUser(ctx, security.NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || !security.VerifyPassword(req.Password, user.Password) {
		metrics.AuthEvents.WithLabelValues("login_failed").Inc()
		return nil, errors.New(errors.ErrCodeUnauthorized, "invalid email or password")
	}

	if s.opts.RequireEmailVerification && !user.EmailVerified {
		return nil, errors.New(errors.ErrCodeForbidden, "email not verified")
	}

	token, err := s.tokens.IssueToken(user.ID, user.Email, security.PurposeSession)
	if err != nil {
		return nil, err
	}

	metrics.AuthEvents.WithLabelValues("login").Inc()
	return &Session{User: user, Token: token}, nil
}

// VerifyEmail consumes a verification token, marks the account verified
// and starts a session for it.
func (s *AuthService) VerifyEmail(ctx context.Context, req models.VerifyEmailRequest) (*Session, error) {
	req.Token = strings.TrimSpace(req.Token)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	claims, err := s.tokens.DecodeToken(req.Token, security.PurposeEmailVerification)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Email != claims.Email {
		return nil, errors.New(errors.ErrCodeInvalidToken, "invalid token")
	}

	if !user.EmailVerified {
		if err := s.users.MarkEmailVerified(ctx, user.Email); err != nil {
			return nil, err
		}
		user.EmailVerified = true
	}

	token, err := s.tokens.IssueToken(user.ID, user.Email, security.PurposeSession)
	if err != nil {
		return nil, err
	}

	metrics.AuthEvents.WithLabelValues("verify_email").Inc()
	return &Session{User: user, Token: token}, nil
}

// SendVerificationEmail mails user a link carrying a short-lived token
func (s *AuthService) SendVerificationEmail(ctx context.Context, user *models.User) error {
	token, err := s.tokens.IssueToken(user.ID, user.Email, security.PurposeEmailVerification)
	if err != nil {
		return err
	}

	link := strings.TrimRight(s.opts.PublicBaseURL, "/") + "/auth/verify-email?token=" + url.QueryEscape(token)
	ttl := s.tokens.TTL(security.PurposeEmailVerification)

	return s.mailer.Send(ctx, Message{
		To:      user.Email,
		Subject: "Confirm your email",
		Body: fmt.Sprintf("Hi %s,\n\nConfirm your email address by opening the link below.\n\n%s\n\nThe link expires in %s.\n",
			user.Username, link, ttl),
	})
}

// ResendVerification sends a new verification email. Unknown and already
// verified addresses succeed silently so the caller cannot probe accounts.
func (s *AuthService) ResendVerification(ctx context.Context, req models.ResendVerificationRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}

	email := security.NormalizeEmail(req.Email)
	if s.limiter != nil && !s.limiter.Allow(email) {
		return errors.New(errors.ErrCodeRateLimitExceeded, "too many verification emails, try again later")
	}

	user, err := s.users.FindUser(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || user.EmailVerified {
		return nil
	}

	return s.SendVerificationEmail(ctx, user)
}

// CurrentUser loads the account behind an authenticated session
func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New(errors.ErrCodeUnauthorized, "account no longer exists")
	}
	return user, nil
}

// DeleteAccount removes the user and everything that references it
func (s *AuthService) DeleteAccount(ctx context.Context, userID uint) error {
	deleted, err := s.users.DeleteUser(ctx, userID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return errors.New(errors.ErrCodeNotFound, "user not found")
	}

	metrics.AuthEvents.WithLabelValues("delete_account").Inc()
	logger.Info("User deleted", "user_id", userID)
	return nil
}
