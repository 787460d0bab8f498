package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// KeyPair holds the process-wide signing and verification keys.
// It is loaded once at startup and never mutated afterwards.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// CanSign reports whether the pair carries a private key.
func (k *KeyPair) CanSign() bool {
	return k != nil && k.Private != nil
}

// LoadKeyPair reads a PEM private key and a PEM public key from disk.
// The public key must belong to the private key.
func LoadKeyPair(privatePath, publicPath string) (*KeyPair, error) {
	privatePEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	publicPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	return ParseKeyPair(privatePEM, publicPEM)
}

// LoadPublicKey reads only the verification key. The returned pair cannot sign.
func LoadPublicKey(publicPath string) (*KeyPair, error) {
	publicPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return &KeyPair{Public: pub}, nil
}

// LoadPrivateKey reads only the signing key and derives the public half from it.
func LoadPrivateKey(privatePath string) (*KeyPair, error) {
	privatePEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &KeyPair{Private: priv, Public: &priv.PublicKey}, nil
}

// ParseKeyPair parses PEM-encoded RSA keys (PKCS#1 or PKCS#8 private, PKIX or
// PKCS#1 public).
func ParseKeyPair(privatePEM, publicPEM []byte) (*KeyPair, error) {
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	if !priv.PublicKey.Equal(pub) {
		return nil, errors.New("public key does not match private key")
	}
	return &KeyPair{Private: priv, Public: pub}, nil
}
