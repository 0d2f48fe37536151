package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "tasklist"

// ErrInvalidToken is returned for a cookie that fails verification.
var ErrInvalidToken = errors.New("invalid session token")

// Codec signs and verifies session cookies.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec creates a codec using secret as the HMAC key.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) < 16 {
		return nil, errors.New("session secret must be at least 16 bytes")
	}
	return &Codec{secret: secret, now: time.Now}, nil
}

// Encode returns the signed cookie value for sess.
func (c *Codec) Encode(sess *Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sess.ID,
		Issuer:    issuer,
		Subject:   sess.Username,
		IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Decode verifies a cookie value and returns the session id it carries.
func (c *Codec) Decode(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return "", fmt.Errorf("%w: missing session id", ErrInvalidToken)
	}
	return claims.ID, nil
}
