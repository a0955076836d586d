package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sliceline/sliceline/internal/authz"
	"github.com/sliceline/sliceline/internal/shared"
	"github.com/sliceline/sliceline/internal/users"
)

// Claims is the verified payload of a bearer token: the user's identity and
// role grants at signing time. Liveness of the session is never read from
// here; that is the session registry's job.
type Claims struct {
	UserID int64             `json:"id"`
	Name   string            `json:"name"`
	Email  string            `json:"email"`
	Roles  []authz.RoleGrant `json:"roles"`
	jwt.RegisteredClaims
}

// Token wraps a raw three-segment signed token. The third dot-separated
// segment doubles as the session registry's revocation key.
type Token struct {
	raw       string
	signature string
}

// ParseToken splits a raw token into its segments without verifying it.
func ParseToken(raw string) Token {
	parts := strings.Split(raw, ".")
	signature := ""
	if len(parts) > 2 {
		signature = parts[2]
	}
	return Token{raw: raw, signature: signature}
}

// FromBearerHeader extracts the token from an "Authorization: Bearer <token>"
// header value. It reports false for a missing or malformed header and never
// fails.
func FromBearerHeader(header string) (Token, bool) {
	if header == "" {
		return Token{}, false
	}
	split := strings.Split(header, " ")
	if len(split) < 2 {
		return Token{}, false
	}
	return ParseToken(split[1]), true
}

// Raw returns the full token text.
func (t Token) Raw() string { return t.raw }

// RevocationKey returns the signature segment used as the session registry
// lookup key. It is empty for a structurally short token; an empty key never
// matches any stored session.
func (t Token) RevocationKey() string { return t.signature }

// Codec signs and verifies bearer tokens with a process-wide secret.
type Codec struct {
	secret []byte
}

// NewCodec constructs a Codec.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Sign issues a token for the given user. The jti nonce makes repeated
// signings of the same user distinct tokens that both verify.
func (c *Codec) Sign(user users.User) (Token, error) {
	claims := Claims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Roles:  user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return ParseToken(raw), nil
}

// Verify checks the token's signature and decodes its claims. Any structural
// or signature failure surfaces as an authentication error.
func (c *Codec) Verify(token Token) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token.Raw(), &claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", shared.ErrAuthentication)
	}
	return &claims, nil
}
