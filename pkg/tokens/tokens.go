// Package tokens issues and verifies the HS256 bearer tokens handed out at login.
//
// Tokens carry the username as subject and an absolute expiry. There is no
// revocation list: expiry is the only way a token stops working.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingSecret = errors.New("token signing secret is empty")
)

type AccessClaims struct {
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer fails when the signing secret is empty, so a process without a
// secret never gets a working issuer.
func NewIssuer(secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	ttl = ttl.Truncate(time.Second)
	if ttl < time.Second {
		return nil, fmt.Errorf("token ttl must be at least one second, got %s", ttl)
	}

	key := make([]byte, len(secret))
	copy(key, secret)
	return &Issuer{secret: key, ttl: ttl}, nil
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for subject that expires at now+ttl. Token timestamps
// have one-second resolution, so now is truncated to the second first.
func (i *Issuer) Issue(subject string, now time.Time) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject is empty")
	}

	issuedAt := now.UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(i.ttl)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, then that now is strictly before the expiry.
// Segments are decoded strictly, so the unused bits of the last base64
// character are part of the signature too. Every failure collapses into
// ErrInvalidToken.
func (i *Issuer) Verify(raw string, now time.Time) (string, error) {
	if raw == "" {
		return "", ErrInvalidToken
	}

	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || tkn == nil || !tkn.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
