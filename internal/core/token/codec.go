// Package token implements the stateless session token codec: a signed,
// expiring claim set. Revocation is not handled here — the session middleware
// compares the embedded epoch against the stored one.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Decode failure kinds. Callers treat both as a reject-and-clear-cookie, but
// the distinction is kept for logs, metrics and tests.
var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("token invalid")
)

// Claims is the claim set carried by a session token. Epoch is a pointer so
// that tokens minted before the epoch mechanism decode to nil and normalise
// to zero via domain.EpochValue.
type Claims struct {
	UserID   string `json:"userid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Epoch    *int64 `json:"epoch,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with a shared HS256 secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// Encode mints a token for the given identity with the codec's TTL.
func (c *Codec) Encode(userID, username, email string, epoch int64) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Email:    email,
		Epoch:    &epoch,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies signature and expiry. A well-formed but time-lapsed token
// yields ErrExpired; anything else that fails verification yields ErrInvalid.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !tkn.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}

// TTL reports the lifetime applied to newly minted tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}
