package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/kazz187/agentboard/internal/metrics"
	"github.com/kazz187/agentboard/pkg/cerr"
)

const minPasswordLength = 8

var (
	ErrInvalidCredentials = cerr.NewError(cerr.Unauthenticated, "invalid email or password", nil)
	ErrTooManyAttempts    = cerr.NewError(cerr.ResourceExhausted, "too many login attempts, try again later", nil)
)

type Service struct {
	users   UserRepository
	tokens  *Tokens
	limiter *LoginLimiter
	enabled bool
}

func NewService(users UserRepository, tokens *Tokens, limiter *LoginLimiter, enabled bool) *Service {
	return &Service{users: users, tokens: tokens, limiter: limiter, enabled: enabled}
}

func (s *Service) Enabled() bool {
	return s.enabled
}

// Session is a signed-in principal and its bearer token.
type Session struct {
	Principal Principal `json:"principal"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Service) Register(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return Session{}, cerr.NewValidationError("email.format", "a valid email is required")
	}
	if len(password) < minPasswordLength {
		return Session{}, cerr.NewValidationError("password.min_len", "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, cerr.NewError(cerr.Internal, "server error", err)
	}
	u := User{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return Session{}, err
	}
	return s.issue(Principal{UserID: u.ID, Email: u.Email})
}

// Login checks the password of email. client identifies the caller for rate
// limiting, usually the remote address.
func (s *Service) Login(ctx context.Context, email, password, client string) (Session, error) {
	if !s.limiter.Allow(client) {
		metrics.LoginAttempts.WithLabelValues("throttled").Inc()
		return Session{}, ErrTooManyAttempts
	}
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if cerr.IsCode(err, cerr.NotFound) {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		return Session{}, ErrInvalidCredentials
	}
	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	return s.issue(Principal{UserID: u.ID, Email: u.Email})
}

// Resolve maps a raw token to its principal. With authentication disabled
// every request is the local principal.
func (s *Service) Resolve(token string) (Principal, bool) {
	if !s.enabled {
		return LocalPrincipal, true
	}
	if token == "" {
		return Principal{}, false
	}
	p, err := s.tokens.Parse(token)
	if err != nil {
		return Principal{}, false
	}
	return p, true
}

func (s *Service) issue(p Principal) (Session, error) {
	token, exp, err := s.tokens.Issue(p)
	if err != nil {
		return Session{}, cerr.NewError(cerr.Internal, "server error", err)
	}
	return Session{Principal: p, Token: token, ExpiresAt: exp}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
