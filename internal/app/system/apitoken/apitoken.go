// internal/app/system/apitoken/apitoken.go

// Package apitoken issues and verifies the bearer tokens used by headless
// export clients (accounting tools pulling CSV reports on a schedule).
// Tokens are HS256 JWTs scoped to a single organization slug.
package apitoken

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid api token")
	ErrWrongOrg     = errors.New("token not valid for this organization")
)

// Issuer signs and verifies export tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates an Issuer. secret must be non-empty.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("api token secret is empty")
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue creates a token for userID scoped to orgSlug.
func (i *Issuer) Issue(userID, orgSlug string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"org": orgSlug,
		"iat": now.Unix(),
		"exp": now.Add(i.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify checks the signature and expiry and returns the subject and org
// slug the token is scoped to.
func (i *Issuer) Verify(raw string) (userID, orgSlug string, err error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	org, _ := claims["org"].(string)
	if sub == "" || org == "" {
		return "", "", ErrInvalidToken
	}
	return sub, org, nil
}

// FromRequest extracts the bearer token from the Authorization header.
// Returns "" when the header is absent or not a bearer scheme.
func FromRequest(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
