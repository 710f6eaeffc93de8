package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// KeyPrefixBytes is the random length of the lookup prefix.
	KeyPrefixBytes = 4
	// KeySecretBytes is the random length of the secret part.
	KeySecretBytes = 32

	// BcryptCost is the cost factor for secret hashing.
	BcryptCost = 10
)

var ErrMalformedKey = errors.New("malformed api key")

// GenerateAPIKey mints a new key of the form wa_<8 hex>_<64 hex>.
// The full key is shown to the caller exactly once; only the bcrypt hash of
// the secret half is persisted, alongside the prefix used for lookup.
func GenerateAPIKey() (fullKey string, prefix string, secretHash string, err error) {
	prefixBytes := make([]byte, KeyPrefixBytes)
	if _, err = rand.Read(prefixBytes); err != nil {
		return "", "", "", fmt.Errorf("failed to generate key prefix: %w", err)
	}
	secretBytes := make([]byte, KeySecretBytes)
	if _, err = rand.Read(secretBytes); err != nil {
		return "", "", "", fmt.Errorf("failed to generate key secret: %w", err)
	}

	prefix = "wa_" + hex.EncodeToString(prefixBytes)
	secret := hex.EncodeToString(secretBytes)

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(secret), BcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to hash key secret: %w", err)
	}

	return prefix + "_" + secret, prefix, string(hashBytes), nil
}

// SplitKey separates a raw key into its lookup prefix and secret. The secret
// is hex, so the last underscore is always the prefix/secret boundary.
func SplitKey(raw string) (prefix, secret string, err error) {
	idx := strings.LastIndex(raw, "_")
	if idx <= 0 || idx == len(raw)-1 {
		return "", "", ErrMalformedKey
	}
	return raw[:idx], raw[idx+1:], nil
}

// VerifySecret compares a presented secret against the stored hash.
// bcrypt comparison is constant-time with respect to the secret.
func VerifySecret(secret, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(secret)) == nil
}

// ExtractBearerToken pulls the raw key out of an Authorization header.
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header is empty")
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.New("authorization header must start with 'Bearer '")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}
