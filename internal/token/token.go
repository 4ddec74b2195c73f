// Package token implements the signed, stateless cart snapshot exchanged
// with clients in place of server-side sessions. Possession of a
// validly-signed token grants the right to act on that snapshot; signature
// verification is an explicit step at the boundary.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/xenking/shopfront/internal/domain/cart"
)

var (
	// ErrInvalidToken is returned for malformed tokens and signature
	// mismatches. Maps to Forbidden at the HTTP boundary.
	ErrInvalidToken = errors.New("invalid cart token")
	// ErrTokenExpired is returned when a token is older than the signer's TTL.
	ErrTokenExpired = errors.New("cart token expired")
)

// Snapshot is the decoded content of a cart token.
type Snapshot struct {
	ID       string
	IssuedAt time.Time
	UserID   string
	Cart     cart.Cart
}

// Signer issues and verifies cart tokens. The wire form is
// base64url(payload) "." base64url(HMAC-SHA256(payload)).
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a Signer with the given HMAC secret and token lifetime.
func NewSigner(secret []byte, ttl time.Duration) *Signer {
	return &Signer{secret: secret, ttl: ttl, now: time.Now}
}

// WithNow overrides the clock. Test hook.
func (s *Signer) WithNow(now func() time.Time) *Signer {
	s.now = now
	return s
}

// TTL returns the token lifetime. The token store uses it as the eviction
// TTL for invalidated token ids.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Issue signs a fresh token for the given cart value. Each call mints a new
// token id, superseding whichever token the cart came from.
func (s *Signer) Issue(c cart.Cart, userID string) (string, *Snapshot, error) {
	snap := &Snapshot{
		ID:       uuid.New().String(),
		IssuedAt: s.now(),
		UserID:   userID,
		Cart:     c,
	}

	payload, err := encodePayload(snap)
	if err != nil {
		return "", nil, errors.Wrap(err, "encode payload")
	}

	tok := base64.RawURLEncoding.EncodeToString(payload) +
		"." +
		base64.RawURLEncoding.EncodeToString(s.sign(payload))

	return tok, snap, nil
}

// Verify checks the signature and lifetime of a token and returns its
// snapshot. The signature check runs before any payload parsing.
func (s *Signer) Verify(tok string) (*Snapshot, error) {
	snap, err := s.Decode(tok)
	if err != nil {
		return nil, err
	}

	if s.ttl > 0 && s.now().After(snap.IssuedAt.Add(s.ttl)) {
		return nil, ErrTokenExpired
	}

	return snap, nil
}

// Decode checks the signature but not the lifetime. Checkout confirmation
// uses it: a pending order's snapshot stays redeemable even when the token
// has aged past the interactive TTL.
func (s *Signer) Decode(tok string) (*Snapshot, error) {
	payloadB64, macB64, ok := strings.Cut(tok, ".")
	if !ok {
		return nil, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	mac, err := base64.RawURLEncoding.DecodeString(macB64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if !hmac.Equal(mac, s.sign(payload)) {
		return nil, ErrInvalidToken
	}

	snap, err := decodePayload(payload)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return snap, nil
}

func (s *Signer) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

// encodePayload writes the snapshot envelope with jx. The cart itself is
// embedded as raw JSON produced by its own marshaler.
func encodePayload(snap *Snapshot) ([]byte, error) {
	cartRaw, err := json.Marshal(snap.Cart)
	if err != nil {
		return nil, err
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("v")
	e.Int(1)
	e.FieldStart("id")
	e.Str(snap.ID)
	e.FieldStart("iat")
	e.Int64(snap.IssuedAt.Unix())
	if snap.UserID != "" {
		e.FieldStart("user")
		e.Str(snap.UserID)
	}
	e.FieldStart("cart")
	e.Raw(cartRaw)
	e.ObjEnd()

	return e.Bytes(), nil
}

func decodePayload(payload []byte) (*Snapshot, error) {
	var (
		snap    Snapshot
		version int
	)

	d := jx.DecodeBytes(payload)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "v":
			v, err := d.Int()
			version = v
			return err
		case "id":
			id, err := d.Str()
			snap.ID = id
			return err
		case "iat":
			sec, err := d.Int64()
			snap.IssuedAt = time.Unix(sec, 0).UTC()
			return err
		case "user":
			user, err := d.Str()
			snap.UserID = user
			return err
		case "cart":
			raw, err := d.Raw()
			if err != nil {
				return err
			}
			return json.Unmarshal(raw, &snap.Cart)
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, err
	}

	if version != 1 || snap.ID == "" {
		return nil, ErrInvalidToken
	}

	return &snap, nil
}
