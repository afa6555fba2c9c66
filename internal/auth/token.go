// Package auth verifies the bearer tokens issued by the identity service.
// Token issuance lives outside this service.
package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
)

// Claims are the token claims the identity service signs: the user ID under
// "id", plus email and, for staff tokens, a role.
type Claims struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens against the shared signing secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier creates a verifier for the shared signing secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Verify parses and validates a token and returns the authenticated user.
// Every failure mode maps to EUNAUTHORIZED; callers learn nothing beyond
// the message text about whether the token was malformed, forged, or
// expired.
func (v *Verifier) Verify(token string) (*domain.User, error) {
	const op = "auth.verify"

	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.Unauthorized(op, "token expired")
		}
		return nil, domain.Unauthorized(op, "invalid token")
	}
	if !parsed.Valid {
		return nil, domain.Unauthorized(op, "invalid token")
	}

	userID, err := uuid.Parse(claims.ID)
	if err != nil || userID == uuid.Nil {
		return nil, domain.Unauthorized(op, "token missing subject")
	}

	return &domain.User{
		ID:    userID,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}

// Sign mints an HS256 token for the given claims. Issuance belongs to the
// identity service; Sign stays here so tests and local tooling can mint
// tokens the verifier accepts.
func (v *Verifier) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// NewClaims builds claims for a user with the given lifetime. Zero ttl
// means no expiry.
func NewClaims(user domain.User, ttl time.Duration) Claims {
	c := Claims{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
	if ttl > 0 {
		c.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	return c
}
