package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
)

// View holds the parsed HTML templates, shared by the page, auth, and task
// handlers. Templates are parsed once at startup — parsing is expensive,
// executing is cheap.
//
// Layout follows Go's template composition model: base.html defines the
// page frame with a {{template "content" .}} slot, and each page file
// fills it with {{define "content"}}...{{end}}. Because every page defines
// the same "content" block, each page is parsed together with base.html
// into its own template set.
type View struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// pageFiles are the per-page templates, each composed with base.html.
var pageFiles = []string{"home.html", "login.html", "register.html", "dashboard.html"}

// NewView parses all templates from templateDir.
func NewView(templateDir string, logger *slog.Logger) (*View, error) {
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, page := range pageFiles {
		tmpl, err := template.ParseFiles(
			filepath.Join(templateDir, "base.html"),
			filepath.Join(templateDir, page),
		)
		if err != nil {
			return nil, err
		}
		pages[page] = tmpl
	}
	return &View{pages: pages, logger: logger}, nil
}

// Render executes the named page template. If execution fails after the
// body has started, all we can do is log — headers are already sent.
func (v *View) Render(w http.ResponseWriter, status int, page string, data map[string]any) {
	tmpl, ok := v.pages[page]
	if !ok {
		v.logger.Error("unknown template", slog.String("page", page))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		v.logger.Error("rendering template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
	}
}
