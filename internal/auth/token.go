// Package auth provides password hashing, token issuance/verification, and
// the middleware that gates access to protected routes.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. User POSTs credentials to /register or /login
//  2. The auth service checks them against the user store (bcrypt compare)
//  3. A TokenStrategy issues an assertion for the user, stored in an
//     HttpOnly cookie
//  4. On subsequent requests the middleware reads the cookie, verifies the
//     assertion, re-resolves the user from the database, and puts the user
//     in the request context
//
// TWO STRATEGIES, ONE INTERFACE:
// Earlier iterations of this app mixed stateless JWTs and server-side
// sessions in parallel code paths. Both now live behind TokenStrategy and a
// deployment picks exactly one:
//
//   - JWTStrategy (jwt.go): self-contained signed token. No server state,
//     but no revocation either — logout only tells the client to drop the
//     cookie, and a stolen token stays valid until it expires.
//   - SessionStrategy (session.go): random session id looked up in Redis on
//     every request. Instantly revocable, at the cost of a shared store
//     every server process must reach.
//
// The middleware and handlers only ever see the interface, so switching
// strategies is a config change, not a code change.
package auth

import (
	"context"
	"errors"
	"time"
)

// Verification failures. Everything that is not a valid, current assertion
// collapses into one of these two — callers treat both as "unauthenticated"
// and only differ in what they log.
var (
	// ErrTokenExpired means the assertion was genuine but its validity
	// window has passed.
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrTokenInvalid means the assertion is tampered, malformed, signed
	// with the wrong key, revoked, or simply unknown.
	ErrTokenInvalid = errors.New("auth: token invalid")
)

// Claims is the identity assertion's payload after successful verification.
type Claims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenStrategy issues and verifies identity assertions.
//
// Issue returns the opaque string handed to the client (a signed JWT or a
// session id, depending on the implementation).
//
// Verify returns the claims for a valid assertion, ErrTokenExpired for one
// past its window, and ErrTokenInvalid for everything else. It never
// distinguishes "tampered" from "unknown" to the caller beyond that.
//
// Revoke invalidates an assertion server-side where the strategy supports
// it. It is idempotent: revoking an assertion that does not exist (or was
// already revoked) is not an error.
type TokenStrategy interface {
	Issue(ctx context.Context, userID string) (string, error)
	Verify(ctx context.Context, token string) (*Claims, error)
	Revoke(ctx context.Context, token string) error

	// TTL is the validity window assertions are issued with. The cookie's
	// Max-Age is derived from this so the two never drift apart.
	TTL() time.Duration
}
