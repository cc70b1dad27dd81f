package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// issuer identifies tokens minted by this app. Verification rejects tokens
// carrying any other issuer, so a JWT signed for a different service with a
// shared secret still fails here.
const issuer = "taskboard"

// JWTStrategy implements TokenStrategy with stateless HS256-signed tokens.
//
// WHY JWT?
// The server needs no storage: userID and expiry live inside the signed
// token, and the HMAC signature makes tampering detectable with nothing but
// the secret. The trade-off is that there is no server-side revocation —
// Revoke is a documented no-op, and logout only instructs the client to
// discard the cookie. If pre-expiry revocation matters for a deployment,
// use SessionStrategy instead.
type JWTStrategy struct {
	secret []byte
	ttl    time.Duration
}

var _ TokenStrategy = (*JWTStrategy)(nil)

// NewJWTStrategy creates a JWTStrategy signing with the given secret.
// The secret should be at least 32 bytes of random data in production,
// e.g. JWT_SECRET=$(openssl rand -hex 32); anything under 16 characters is
// rejected outright.
func NewJWTStrategy(secret string, ttl time.Duration) (*JWTStrategy, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token TTL must be positive")
	}
	return &JWTStrategy{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload. We use the standard "sub" (Subject) claim for
// the user ID; "iat" and "exp" carry the validity window.
type claims struct {
	jwt.RegisteredClaims
}

// Issue creates and signs a token for userID.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, same key signs and
// verifies. Fine for this app's single-secret deployment model.
func (s *JWTStrategy) Issue(_ context.Context, userID string) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// issueWithDuration mints a token with a custom validity window. Used by the
// tests in this package to produce already-expired tokens.
func (s *JWTStrategy) issueWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and checks a token string.
//
// The signature is checked before anything else — a tampered token returns
// ErrTokenInvalid even if its expiry happens to be in the past. Expiry is
// only reported for tokens whose signature verified.
//
// ALGORITHM CONFUSION:
// jwt.WithValidMethods pins the algorithm to HS256 so a token claiming
// alg=none (or an RS256 token abusing the secret as a public key) is
// rejected before signature verification.
func (s *JWTStrategy) Verify(_ context.Context, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return nil, ErrTokenInvalid
	}

	out := &Claims{UserID: c.Subject}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}

// Revoke is a no-op: a stateless token cannot be invalidated before expiry.
// Logout relies on the client discarding the cookie. Kept short on purpose —
// this is the documented trade-off of the stateless strategy.
func (s *JWTStrategy) Revoke(context.Context, string) error {
	return nil
}

// TTL returns the validity window tokens are issued with.
func (s *JWTStrategy) TTL() time.Duration {
	return s.ttl
}
