// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/blogcore/blogcore/internal/pkg/apperr"
	"golang.org/x/crypto/bcrypt"
)

// Defaults.
const (
	DefaultMinLength = 6
	DefaultCost      = 10

	// maxBytes is the bcrypt input limit; longer inputs are truncated by the compare.
	maxBytes         = 72
	strongLength     = 12
	temporaryLength  = 12
	maxStrength      = 4
	symbols          = "!@#$%^&*"
	temporaryCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789" + symbols
)

// Config contains hashing policy.
type Config struct {
	MinLength int
	Cost      int
}

// Hasher hashes and verifies passwords. Safe for concurrent use.
type Hasher struct {
	config Config
}

// New creates a hasher. Zero values fall back to the defaults.
func New(cfg Config) (*Hasher, error) {
	if cfg.MinLength == 0 {
		cfg.MinLength = DefaultMinLength
	}
	if cfg.Cost == 0 {
		cfg.Cost = DefaultCost
	}
	if cfg.MinLength < 1 {
		return nil, errors.New("password: min length must be positive")
	}
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("password: cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{config: cfg}, nil
}

// MinLength returns the configured minimum password length.
func (h *Hasher) MinLength() int {
	return h.config.MinLength
}

// Validate checks the password against the length policy.
func (h *Hasher) Validate(plain string) error {
	if utf8.RuneCountInString(plain) < h.config.MinLength {
		return apperr.Validation("Password must be at least %d characters long", h.config.MinLength)
	}
	return nil
}

// Hash returns a salted bcrypt hash of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	if err := h.Validate(plain); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.config.Cost)
	if err != nil {
		// bcrypt rejects inputs longer than 72 bytes.
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.Validation("Password must be at most 72 bytes long")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plain matches hash. A malformed hash never matches,
// and neither does input longer than Hash accepts.
func (h *Hasher) Verify(plain, hash string) bool {
	if len(plain) > maxBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ShouldRehash reports whether hash was produced with a different cost than the
// one configured. Unparsable hashes are not flagged.
func (h *Hasher) ShouldRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}
	return cost != h.config.Cost
}

// Strength scores plain from 0 to 4 for client feedback. It is advisory only.
// Case and digit classes are ASCII; other letters count toward length only.
func (h *Hasher) Strength(plain string) int {
	score := 0
	length := utf8.RuneCountInString(plain)
	if length >= h.config.MinLength {
		score++
	}
	if length >= strongLength {
		score++
	}

	var lower, upper, digit bool
	for _, r := range plain {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if lower && upper {
		score++
	}
	if digit {
		score++
	}
	if strings.ContainsAny(plain, symbols) {
		score++
	}

	return min(score, maxStrength)
}

// GenerateTemporary returns a random password of the given length drawn from
// letters, digits and symbols. A non-positive length uses 12.
func GenerateTemporary(length int) (string, error) {
	if length <= 0 {
		length = temporaryLength
	}
	limit := big.NewInt(int64(len(temporaryCharset)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate temporary password: %w", err)
		}
		b.WriteByte(temporaryCharset[n.Int64()])
	}
	return b.String(), nil
}
