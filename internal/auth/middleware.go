package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/repository"
)

// contextKey is an unexported type for context keys in this package.
// Only this package can create a key of this type, so no other package can
// read or shadow the authenticated user in the context.
type contextKey string

const userKey contextKey = "user"

// RequireAuth gates protected routes. Per request it runs:
//
//	extract (cookie) → verify (strategy) → resolve (user store) → attach
//
// Any step failing means unauthenticated, and in strict mode that is
// terminal: browsers get redirected to /login, API clients get a 401. If a
// cookie was present but did not verify, the client is also told to drop it
// so it stops resending a dead assertion.
//
// WHY RESOLVE AGAINST THE DATABASE ON EVERY REQUEST?
// The claims alone are not trusted. A token can outlive its user (account
// deleted after issuance) — re-fetching by ID guarantees every authenticated
// request maps to an account that exists right now. Handlers downstream get
// the full *model.User, not just a possibly stale ID.
func RequireAuth(strategy TokenStrategy, users repository.UserRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, hadCookie, err := resolveUser(r, strategy, users)
			if err != nil {
				if isServerFault(err) {
					logger.Error("auth: resolving identity",
						slog.String("path", r.URL.Path),
						slog.String("error", err.Error()),
					)
					http.Error(w, `{"error":"internal_error","message":"An internal error occurred"}`, http.StatusInternalServerError)
					return
				}

				// A present-but-bad assertion gets cleared so the client
				// doesn't keep presenting it.
				if hadCookie {
					ClearTokenCookie(w)
				}

				if wantsJSON(r) {
					http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the user when a valid assertion is present but never
// blocks the request. Anonymous requests proceed untouched — no 401, no
// redirect, and the cookie is left alone (a page load should not log anyone
// out as a side effect).
//
// Downstream handlers branch on UserFromContext returning (nil, false).
func OptionalAuth(strategy TokenStrategy, users repository.UserRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _, err := resolveUser(r, strategy, users)
			if err == nil {
				ctx := context.WithValue(r.Context(), userKey, user)
				r = r.WithContext(ctx)
			} else if isServerFault(err) {
				// Store trouble shouldn't take down a public page; log it
				// and serve the page anonymously.
				logger.Warn("auth: optional resolve failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the authenticated user attached by RequireAuth or
// OptionalAuth. (nil, false) means the request is anonymous.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// resolveUser runs the shared extract→verify→resolve steps.
// hadCookie tells strict mode whether there is an assertion worth clearing.
func resolveUser(r *http.Request, strategy TokenStrategy, users repository.UserRepository) (user *model.User, hadCookie bool, err error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		// http.ErrNoCookie — anonymous, nothing to clear.
		return nil, false, ErrTokenInvalid
	}

	claims, err := strategy.Verify(r.Context(), cookie.Value)
	if err != nil {
		return nil, true, err
	}

	user, err = users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		// Valid assertion, vanished user: treat exactly like a bad token.
		// Store errors other than not-found pass through as server faults.
		return nil, true, err
	}

	return user, true, nil
}

// isServerFault separates "you are not authenticated" from "the server could
// not find out". Token failures and unknown users are ordinary
// unauthenticated outcomes; anything else (Redis down, SQLite error) must
// surface as a 500, not a silent logout.
func isServerFault(err error) bool {
	if errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrTokenInvalid) {
		return false
	}
	if errors.Is(err, apperror.ErrNotFound) {
		return false
	}
	return true
}

// wantsJSON decides the strict-mode terminal action: API-style clients get
// a structured 401, interactive clients get the login redirect.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
