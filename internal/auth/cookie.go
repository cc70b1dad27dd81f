package auth

import (
	"net/http"
	"time"
)

// CookieName is the credential channel: the HttpOnly cookie carrying the
// identity assertion (JWT or session id, depending on the strategy).
const CookieName = "token"

// SetTokenCookie hands the assertion to the client.
//
// HttpOnly: JavaScript can never read the cookie, so an XSS bug can't steal
// the assertion. SameSite=Lax: sent on top-level navigations, withheld on
// cross-site POSTs. Max-Age matches the assertion's own validity window so
// the browser drops the cookie when the assertion would stop verifying
// anyway.
//
// Secure is left off for local development; set it behind TLS in production.
func SetTokenCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie instructs the client to discard the assertion.
// MaxAge -1 tells the browser to delete the cookie immediately.
func ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
