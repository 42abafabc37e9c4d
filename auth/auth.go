/*
auth.go - Actor identity from bearer tokens

PURPOSE:
  The lifecycle engine needs to know who is asking: a role and an ID.
  Identity comes from an HS256 JWT whose "sub" claim is the student or
  admin identifier and whose "role" claim is "student" or "admin".

USAGE:
  token, _ := auth.Issue(secret, lifecycle.Student("S1"), time.Hour, time.Now())
  actor, err := auth.Parse(secret, token)

SEE ALSO:
  - api/server.go:  authenticate middleware
  - cmd/tokengen:   dev token minting
*/
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/warp/hostel-leave/lifecycle"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the JWT claims carried by a session token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token for actor, valid for ttl from now.
func Issue(secret []byte, actor lifecycle.Actor, ttl time.Duration, now time.Time) (string, error) {
	if actor.ID == "" || actor.Role == lifecycle.RoleUnknown {
		return "", fmt.Errorf("issue token: actor needs a role and an id")
	}
	claims := Claims{
		Role: actor.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies tokenStr and returns the actor it names.
func Parse(secret []byte, tokenStr string) (lifecycle.Actor, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return lifecycle.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	role, ok := lifecycle.ParseRole(claims.Role)
	if !ok {
		return lifecycle.Actor{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return lifecycle.Actor{}, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return lifecycle.Actor{Role: role, ID: claims.Subject}, nil
}

// FromHeader extracts and verifies the token in an Authorization header.
func FromHeader(secret []byte, header string) (lifecycle.Actor, error) {
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return lifecycle.Actor{}, ErrMissingToken
	}
	return Parse(secret, strings.TrimSpace(header[7:]))
}
