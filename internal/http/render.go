package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
	"budgeteer/internal/log"
	appweb "budgeteer/web"
)

var templateFuncs = template.FuncMap{
	"money":   core.FormatMoney,
	"percent": core.FormatPercent,
	"amount": func(d decimal.Decimal) string {
		return d.StringFixed(2)
	},
	"plain": func(d decimal.Decimal) string {
		return d.Round(2).String()
	},
	"positive": func(d decimal.Decimal) bool {
		return d.IsPositive()
	},
	"monthPath": func(ym core.YearMonth) string {
		return fmt.Sprintf("/budget/%d/%d", ym.Year, ym.Month)
	},
	"currencies": func() []core.Currency {
		return core.Currencies
	},
}

// parseTemplates loads the shared layout and partials once, then clones them
// for every page so each page can define its own "content" block.
func parseTemplates() (*template.Template, map[string]*template.Template, error) {
	base, err := template.New("base").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS,
		"templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(appweb.TemplatesFS, "templates/pages/*.html")
	if err != nil {
		return nil, nil, fmt.Errorf("list pages: %w", err)
	}
	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		t, err := template.Must(base.Clone()).ParseFS(appweb.TemplatesFS, file)
		if err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = t
	}
	return base, pages, nil
}

// page is the data every full page receives.
type page struct {
	Title  string
	Email  string
	Active string
	Error  string
	Notice string
	Data   any
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	t, ok := s.pages[name]
	if !ok {
		s.renderFailure(w, r, fmt.Errorf("page %q not found", name))
		return
	}
	if p.Email == "" {
		if id, ok := identityFrom(r.Context()); ok {
			p.Email = id.Email
		}
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		s.renderFailure(w, r, fmt.Errorf("execute %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderPartial executes a named partial into b's body and writes the response.
func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	var buf bytes.Buffer
	if err := s.partials.ExecuteTemplate(&buf, name, data); err != nil {
		s.renderFailure(w, r, fmt.Errorf("execute %s: %w", name, err))
		return
	}
	b.Body(buf.Bytes()).Write(w)
}

func (s *Server) renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Template rendering failed",
		log.FieldComponent, log.ComponentTemplate,
		log.FieldError, err)
	http.Error(w, "Something went wrong", http.StatusInternalServerError)
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) int {
	switch core.Kind(err) {
	case core.ErrUnauthenticated:
		return http.StatusUnauthorized
	case core.ErrNotFound:
		return http.StatusNotFound
	case core.ErrValidation:
		return http.StatusUnprocessableEntity
	case core.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError answers HTMX requests with an error fragment and notification,
// and full page requests with the error page.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.UserMessage(err)
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
	if errors.Is(err, core.ErrUnauthenticated) {
		s.redirectToLogin(w, r)
		return
	}
	if isHTMX(r) {
		ErrorResponse(status, msg).Write(w)
		return
	}
	s.renderPage(w, r, status, "error", page{Title: "Error", Error: msg})
}

// redirect sends HTMX clients an HX-Redirect and browsers a 303.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect(to).Write(w)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
