package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/taskboard/internal/auth"
)

// PageHandler serves the public pages. Home runs behind OptionalAuth — the
// page works anonymously, but greets the user when a valid assertion is
// present. Login and register are plain public forms.
type PageHandler struct {
	view   *View
	logger *slog.Logger
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(view *View, logger *slog.Logger) *PageHandler {
	return &PageHandler{view: view, logger: logger}
}

// HandleHome serves the landing page.
//
// HTTP: GET /
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title": "Taskboard",
	}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		data["User"] = user
	}
	h.view.Render(w, http.StatusOK, "home.html", data)
}

// HandleLoginPage serves the login form.
//
// HTTP: GET /login
func (h *PageHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, http.StatusOK, "login.html", map[string]any{
		"Title": "Log in",
	})
}

// HandleRegisterPage serves the registration form.
//
// HTTP: GET /register
func (h *PageHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, http.StatusOK, "register.html", map[string]any{
		"Title": "Register",
	})
}
