// Package auth resolves API keys to user identities. Keys are stored as
// HMAC-SHA256 hashes; the raw key never touches the database.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrUnauthorized is returned for unknown or mismatching API keys.
var ErrUnauthorized = errors.New("unauthorized")

// APIKey holds the identity data for a validated API key.
type APIKey struct {
	ID      string
	KeyHash string
	UserID  string
	Name    string
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKey, error)
}

// Authenticator validates raw API keys against the repository.
type Authenticator struct {
	keys   Repository
	pepper []byte
}

// NewAuthenticator creates an Authenticator with the given repository and
// HMAC pepper.
func NewAuthenticator(keys Repository, pepper []byte) *Authenticator {
	return &Authenticator{keys: keys, pepper: pepper}
}

// HashKey computes the stored form of a raw API key.
func (a *Authenticator) HashKey(raw string) string {
	mac := hmac.New(sha256.New, a.pepper)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// Authenticate resolves a raw API key to a user id. The stored hash is
// re-compared in constant time: the lookup succeeding is not trusted on its
// own, since the repository could return a stale row.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (string, error) {
	mac := hmac.New(sha256.New, a.pepper)
	mac.Write([]byte(raw))
	hash := mac.Sum(nil)

	info, err := a.keys.FindByHash(ctx, hex.EncodeToString(hash))
	if err != nil {
		return "", ErrUnauthorized
	}

	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return "", ErrUnauthorized
	}
	if subtle.ConstantTimeCompare(hash, stored) != 1 {
		return "", ErrUnauthorized
	}

	return info.UserID, nil
}
