// Package jwt issues and verifies RS256 access tokens.
package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/pkg/apperr"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpiry is the access token lifetime used when none is configured.
const DefaultExpiry = time.Hour

// ErrSigningKeyMissing is returned by Issue on a verify-only service.
var ErrSigningKeyMissing = errors.New("jwt: private key not loaded")

// signingMethod is the only accepted algorithm, for issuing and verifying.
var signingMethod = jwt.SigningMethodRS256

// Claims is the token payload.
type Claims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Config contains token service configuration.
type Config struct {
	Keys   *KeyPair
	Expiry time.Duration
	Issuer string
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the time source used for iat, exp and verification.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service signs and verifies tokens. It holds no mutable state and is safe for
// concurrent use.
type Service struct {
	keys   *KeyPair
	expiry time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// NewService creates a token service. A public key is required; the private key
// is only needed for Issue.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	if cfg.Keys == nil || cfg.Keys.Public == nil {
		return nil, errors.New("jwt: public key is required")
	}
	if cfg.Expiry < 0 {
		return nil, errors.New("jwt: expiry must be positive")
	}
	if cfg.Expiry == 0 {
		cfg.Expiry = DefaultExpiry
	}

	s := &Service{
		keys:   cfg.Keys,
		expiry: cfg.Expiry,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.issuer))
	}
	s.parser = jwt.NewParser(parserOpts...)

	return s, nil
}

// Expiry returns the configured token lifetime.
func (s *Service) Expiry() time.Duration {
	return s.expiry
}

// Issue signs a token for the subject carrying its email and roles.
func (s *Service) Issue(subjectID, email string, roles domain.RoleSet) (string, error) {
	if !s.keys.CanSign() {
		return "", ErrSigningKeyMissing
	}
	if subjectID == "" {
		return "", errors.New("jwt: subject is required")
	}

	now := s.now()
	claims := Claims{
		Email: email,
		Roles: roles.Strings(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(s.keys.Private)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, expiry and payload shape. It returns false
// for any invalid token and never fails otherwise.
func (s *Service) Verify(token string) (domain.Identity, bool) {
	identity, err := s.verify(token)
	if err != nil {
		return domain.Identity{}, false
	}
	return identity, true
}

// VerifyOrFail is Verify that reports an invalid token as an authentication error.
func (s *Service) VerifyOrFail(token string) (domain.Identity, error) {
	identity, err := s.verify(token)
	if err != nil {
		return domain.Identity{}, &apperr.Error{
			Kind:    apperr.KindUnauthenticated,
			Message: "Invalid or expired token",
			Err:     err,
		}
	}
	return identity, nil
}

// RemainingSeconds returns the seconds until a valid token expires, or -1 when
// the token is invalid or already expired.
func (s *Service) RemainingSeconds(token string) int64 {
	claims, err := s.parse(token)
	if err != nil {
		return -1
	}
	return claims.ExpiresAt.Unix() - s.now().Unix()
}

// DecodeUnsafe returns the payload without checking the signature or expiry.
// For inspection and debugging only, never for authorization.
func DecodeUnsafe(token string) (*Claims, bool) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// ExtractBearer parses an Authorization header of the form "Bearer <token>".
// It returns false for a missing header, another scheme or a wrong part count.
func ExtractBearer(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func (s *Service) verify(token string) (domain.Identity, error) {
	claims, err := s.parse(token)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Roles:     domain.RoleSetFromClaims(claims.Roles),
	}, nil
}

func (s *Service) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := s.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != signingMethod.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return s.keys.Public, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return nil, errors.New("missing subject claim")
	}
	if claims.Roles == nil {
		return nil, errors.New("missing roles claim")
	}
	if claims.ExpiresAt == nil {
		return nil, jwt.ErrTokenRequiredClaimMissing
	}
	return claims, nil
}
