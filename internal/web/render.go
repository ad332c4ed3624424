package web

import (
	"embed"
	"html/template"
	"net/http"

	"log/slog"

	"examhub/internal/auth"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the data context every view receives: the signed-in user (nil for
// anonymous pages), drained flash messages, and view-specific data.
type Page struct {
	User    *auth.SessionUser
	Flashes []auth.Flash
	Data    interface{}
}

type Renderer struct {
	tmpl   *template.Template
	logger *slog.Logger
}

func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl, logger: logger}, nil
}

// Render writes the named view with the given page context.
func (r *Renderer) Render(w http.ResponseWriter, view string, page Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := r.tmpl.ExecuteTemplate(w, view, page); err != nil {
		r.logger.Error("render template", "view", view, "err", err)
	}
}

// RenderStatus writes an error view with the given status code.
func (r *Renderer) RenderStatus(w http.ResponseWriter, status int, view string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := r.tmpl.ExecuteTemplate(w, view, Page{}); err != nil {
		r.logger.Error("render template", "view", view, "err", err)
	}
}
