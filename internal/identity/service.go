// Package identity authenticates users: it logs them in with a password and
// turns bearer tokens on incoming requests into identities.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/identity/authz"
	"github.com/blogcore/blogcore/internal/identity/jwt"
	"github.com/blogcore/blogcore/internal/pkg/apperr"
	"github.com/blogcore/blogcore/internal/pkg/ctxlog"
	"github.com/blogcore/blogcore/internal/pkg/metrics"
)

// TokenType is the scheme returned with every access token.
const TokenType = "Bearer"

// Identity errors.
var (
	ErrInvalidCredentials = apperr.Unauthenticated("Invalid credentials")
	ErrMissingToken       = apperr.Unauthenticated("Missing authentication token")
	ErrLoginThrottled     = errors.New("too many login attempts, try again later")
)

// UserStore is the account lookup the service depends on. Lookups return an
// apperr not-found error when the user does not exist.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// TokenService issues and verifies access tokens.
type TokenService interface {
	Issue(subjectID, email string, roles domain.RoleSet) (string, error)
	VerifyOrFail(token string) (domain.Identity, error)
	RemainingSeconds(token string) int64
	Expiry() time.Duration
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
	ShouldRehash(hash string) bool
	Strength(plain string) int
}

// Option configures a Service.
type Option func(*Service)

// WithLoginThrottle limits login attempts per email.
func WithLoginThrottle(t *LoginThrottle) Option {
	return func(s *Service) {
		s.throttle = t
	}
}

// Service is the authentication gateway.
type Service struct {
	users    UserStore
	tokens   TokenService
	hasher   PasswordHasher
	throttle *LoginThrottle

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a new identity service.
func NewService(users UserStore, tokens TokenService, hasher PasswordHasher, opts ...Option) *Service {
	s := &Service{
		users:  users,
		tokens: tokens,
		hasher: hasher,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginInput contains data for login.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is a successful login.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
	User        *domain.User
}

// Login verifies credentials and issues an access token. Unknown email and wrong
// password fail with the same error.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := domain.NormalizeEmail(input.Email)
	log := ctxlog.FromContext(ctx)

	if s.throttle != nil && !s.throttle.Allow(email) {
		metrics.AuthLoginsTotal.WithLabelValues(metrics.ResultThrottled).Inc()
		log.Warn("login throttled", "email", email)
		return nil, ErrLoginThrottled
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("get user by email: %w", err)
		}
		// Same bcrypt work whether or not the account exists.
		s.hasher.Verify(input.Password, s.dummy())
		metrics.AuthLoginsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		metrics.AuthLoginsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		log.Info("login failed", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	if s.throttle != nil {
		s.throttle.Reset(email)
	}
	s.rehashIfNeeded(ctx, user, input.Password)

	token, err := s.tokens.Issue(user.ID, user.Email, user.Roles)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.AuthLoginsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	log.Info("user logged in", "user_id", user.ID)

	return &LoginResult{
		AccessToken: token,
		TokenType:   TokenType,
		ExpiresIn:   int64(s.tokens.Expiry().Seconds()),
		User:        user,
	}, nil
}

// AuthenticateRequest verifies the bearer token in an Authorization header.
func (s *Service) AuthenticateRequest(_ context.Context, header string) (domain.Identity, error) {
	token, ok := jwt.ExtractBearer(header)
	if !ok {
		metrics.AuthTokenVerificationsTotal.WithLabelValues(metrics.ResultMissing).Inc()
		return domain.Identity{}, ErrMissingToken
	}

	identity, err := s.tokens.VerifyOrFail(token)
	if err != nil {
		metrics.AuthTokenVerificationsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return domain.Identity{}, err
	}

	metrics.AuthTokenVerificationsTotal.WithLabelValues(metrics.ResultValid).Inc()
	return identity, nil
}

// Authorize evaluates policy for identity and reports a forbidden error on denial.
func (s *Service) Authorize(ctx context.Context, identity domain.Identity, policy authz.Policy) error {
	if err := authz.Authorize(identity, policy); err != nil {
		metrics.AuthzDenialsTotal.WithLabelValues(policy.Name()).Inc()
		ctxlog.FromContext(ctx).Debug("authorization denied", "policy", policy.Name(), "user_id", identity.SubjectID)
		return err
	}
	return nil
}

// GetUserByID returns the user by ID.
func (s *Service) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// PasswordStrength scores a candidate password from 0 to 4.
func (s *Service) PasswordStrength(plain string) int {
	return s.hasher.Strength(plain)
}

// TokenInfo describes the token a request was authenticated with.
type TokenInfo struct {
	Subject          string
	Email            string
	Roles            domain.RoleSet
	ExpiresInSeconds int64
}

// InspectToken reports the identity and remaining lifetime of the bearer token
// in header.
func (s *Service) InspectToken(header string) (*TokenInfo, error) {
	token, ok := jwt.ExtractBearer(header)
	if !ok {
		return nil, ErrMissingToken
	}
	identity, err := s.tokens.VerifyOrFail(token)
	if err != nil {
		return nil, err
	}
	return &TokenInfo{
		Subject:          identity.SubjectID,
		Email:            identity.Email,
		Roles:            identity.Roles,
		ExpiresInSeconds: s.tokens.RemainingSeconds(token),
	}, nil
}

// rehashIfNeeded upgrades the stored hash to the current cost. Failures are
// logged and do not fail the login.
func (s *Service) rehashIfNeeded(ctx context.Context, user *domain.User, plain string) {
	if !s.hasher.ShouldRehash(user.PasswordHash) {
		return
	}
	log := ctxlog.FromContext(ctx)

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		log.Warn("rehash password", "user_id", user.ID, "error", err)
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		log.Warn("store rehashed password", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
	log.Info("password rehashed", "user_id", user.ID)
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("dummy-password-for-timing")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
