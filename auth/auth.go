package auth

import (
	"fmt"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

// AdminSubject is the subject claim of every admin token.
const AdminSubject = "f-keyfile-admin"

var ErrNoSecret = errors.New("admin secret is not configured")

// IssueAdminToken signs an HS256 admin token with secret. A ttl <= 0 gives a
// token that never expires.
func IssueAdminToken(secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}

	now := time.Now()
	claims := jwt.StandardClaims{
		Subject:  AdminSubject,
		IssuedAt: now.Unix(),
	}
	if ttl > 0 {
		claims.ExpiresAt = now.Add(ttl).Unix()
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyAdminToken checks signature, expiry and subject of an admin token.
func VerifyAdminToken(secret, tokenString string) error {
	if secret == "" {
		return ErrNoSecret
	}

	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return errors.Wrap(err, "invalid admin token")
	}

	if !token.Valid || claims.Subject != AdminSubject {
		return errors.New("invalid admin token")
	}

	return nil
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
