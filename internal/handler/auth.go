package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/auth"
	"github.com/sakif/taskboard/internal/service"
)

// AuthHandler exposes the register/login/logout use-cases over HTTP.
//
// CONTENT NEGOTIATION:
// The same endpoints serve the HTML forms and the JSON API. A form body
// (application/x-www-form-urlencoded) gets the browser flow — cookie plus
// redirect, or the form re-rendered with an error. A JSON body gets a JSON
// response with the same cookie. Either way the assertion travels only in
// the HttpOnly cookie, never in a response body.
type AuthHandler struct {
	svc    *service.AuthService
	tokens auth.TokenStrategy
	view   *View
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. The token strategy is only used
// for its TTL (cookie Max-Age) and at logout (revocation).
func NewAuthHandler(svc *service.AuthService, tokens auth.TokenStrategy, view *View, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, tokens: tokens, view: view, logger: logger}
}

// credentialsRequest is the register/login input, from either body format.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// parseCredentials reads the username/password pair from a form or JSON
// body. The password is never logged and never echoed back.
func parseCredentials(r *http.Request) (credentialsRequest, error) {
	if isFormRequest(r) {
		if err := r.ParseForm(); err != nil {
			return credentialsRequest{}, apperror.ValidationFailed("body", "malformed form body")
		}
		return credentialsRequest{
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
		}, nil
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return credentialsRequest{}, apperror.ValidationFailed("body", "malformed JSON body")
	}
	return req, nil
}

// HandleRegister creates an account and logs it in.
//
// HTTP: POST /register
//
// Success: cookie set, 302 to /tasks (forms) or 201 with the user (JSON).
// Duplicate username: the register form again with a conflict message, or
// 409 — the message names the conflict but never echoes the password.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := parseCredentials(r)
	if err != nil {
		h.respondAuthError(w, r, "register.html", err)
		return
	}

	result, err := h.svc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondAuthError(w, r, "register.html", err)
		return
	}

	auth.SetTokenCookie(w, result.Token, h.tokens.TTL())

	if isFormRequest(r) {
		http.Redirect(w, r, "/tasks", http.StatusFound)
		return
	}
	writeJSON(w, http.StatusCreated, result.User)
}

// HandleLogin verifies credentials and issues the assertion.
//
// HTTP: POST /login
//
// Failure is always the same generic invalid-credentials response, whether
// the username is unknown or the password wrong — the service guarantees
// that, this handler just relays it.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := parseCredentials(r)
	if err != nil {
		h.respondAuthError(w, r, "login.html", err)
		return
	}

	result, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondAuthError(w, r, "login.html", err)
		return
	}

	auth.SetTokenCookie(w, result.Token, h.tokens.TTL())

	if isFormRequest(r) {
		http.Redirect(w, r, "/tasks", http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, result.User)
}

// HandleLogout revokes the assertion and clears the cookie.
//
// HTTP: POST /logout (and GET /logout for plain links)
//
// Idempotent by design: no cookie, an invalid cookie, or a second logout
// all end the same way — cookie cleared, back to /login. Requiring a valid
// session to log out would only make the error case weirder.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		if err := h.svc.Logout(r.Context(), cookie.Value); err != nil {
			// Revocation hitting a dead store is logged, but the client
			// still gets logged out locally — the cookie is cleared below.
			h.logger.Error("logout: revoking token", slog.String("error", err.Error()))
		}
	}

	auth.ClearTokenCookie(w)

	if wantsJSONResponse(r) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/me (behind RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't panic if miswired.
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// respondAuthError reports a register/login failure: form flows re-render
// the page with the message (as the original UI did), API flows get the
// mapped JSON error. Unexpected errors render a generic message so internal
// detail stays out of the page.
func (h *AuthHandler) respondAuthError(w http.ResponseWriter, r *http.Request, page string, err error) {
	if !isFormRequest(r) {
		if !isExpectedAuthError(err) {
			h.logger.Error("auth request failed", slog.String("error", err.Error()))
		}
		writeError(w, err)
		return
	}

	var appErr *apperror.AppError
	message := "Something went wrong. Please try again."
	status := http.StatusInternalServerError
	if errors.As(err, &appErr) && isExpectedAuthError(err) {
		message = appErr.Message
		switch {
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		default:
			status = http.StatusBadRequest
		}
	} else {
		h.logger.Error("auth request failed", slog.String("error", err.Error()))
	}

	h.view.Render(w, status, page, map[string]any{
		"Title": "Taskboard",
		"Error": message,
	})
}

// isExpectedAuthError reports whether err is a normal auth outcome
// (validation, conflict, bad credentials) rather than a server fault.
func isExpectedAuthError(err error) bool {
	return errors.Is(err, apperror.ErrValidation) ||
		errors.Is(err, apperror.ErrConflict) ||
		errors.Is(err, apperror.ErrUnauthorized)
}

// wantsJSONResponse mirrors the middleware's strict-mode negotiation for
// endpoints reachable by both browsers and API clients.
func wantsJSONResponse(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
