package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 72 * time.Hour

// bearerScheme is the Authorization header scheme carrying tokens.
const bearerScheme = "Bearer"

// Claims is the signed token payload: the principal id and role plus the
// registered expiry and issued-at claims.
type Claims struct {
	PrincipalID string `json:"id"`
	Role        Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies identity tokens with a single HS256 secret.
// The secret is supplied at construction so tests and environments can
// each use their own.
//
// Thread Safety: TokenIssuer is immutable after construction and safe for
// concurrent use.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer using secret for signing. A non-positive
// ttl falls back to DefaultTokenTTL.
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the lifetime applied to issued tokens.
func (ti *TokenIssuer) TTL() time.Duration {
	return ti.ttl
}

// Issue creates a signed token for the given principal id and role.
func (ti *TokenIssuer) Issue(id string, role Role) (string, error) {
	if id == "" {
		return "", fmt.Errorf("issuing token: %w", ErrMissingFields)
	}
	if !role.Valid() {
		return "", fmt.Errorf("issuing token: %w: %q", ErrUnknownRole, role)
	}

	now := ti.now()
	claims := Claims{
		PrincipalID: id,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of tokenString and returns its claims.
//
// Errors:
//   - ErrTokenMalformed: not a compact JWS
//   - ErrTokenExpired: signature fine, expiry passed
//   - ErrTokenInvalid: bad signature, wrong algorithm or missing claims
func (ti *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		default:
			return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
		}
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.PrincipalID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrTokenInvalid)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: role %q", ErrTokenInvalid, claims.Role)
	}

	return claims, nil
}

// ParseBearer extracts the token from an Authorization header value.
// An empty header is ErrTokenMissing; any other scheme, or an empty token,
// is ErrTokenMalformed.
func ParseBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrTokenMissing
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", fmt.Errorf("%w: expected %s scheme", ErrTokenMalformed, bearerScheme)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty token", ErrTokenMalformed)
	}
	return token, nil
}
