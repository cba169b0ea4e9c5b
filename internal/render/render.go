// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for every page of the
// catalog. It supports full-page and HTMX partial rendering, detecting the
// request type via the HX-Request header.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"spectranet/internal/middleware"
	"spectranet/internal/session"
)

//go:embed templates
var templatesFS embed.FS

// PageData holds all data passed to page templates.
type PageData struct {
	Title     string         // Page title for <title> tag
	Section   string         // Active nav section (e.g. "datasets", "upload")
	Session   *session.Data  // Current user session (nil if anonymous)
	CSRFToken string         // CSRF token for forms and HTMX headers
	Path      string         // Request path, used for login "next" links
	Data      map[string]any // Page-specific data
	Flashes   []Flash        // One-time notification messages
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// Renderer handles template parsing and execution.
type Renderer struct {
	pages    map[string]*template.Template
	partials *template.Template
}

// New parses every page template together with the base layout and the
// shared partials.
func New() (*Renderer, error) {
	funcs := Funcs()

	partialFiles, err := fs.Glob(templatesFS, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob partials: %w", err)
	}
	partials, err := template.New("partials").Funcs(funcs).ParseFS(templatesFS, partialFiles...)
	if err != nil {
		return nil, fmt.Errorf("parse partials: %w", err)
	}

	pageFiles, err := fs.Glob(templatesFS, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob pages: %w", err)
	}

	rn := &Renderer{pages: make(map[string]*template.Template), partials: partials}
	for _, file := range pageFiles {
		name := strings.TrimSuffix(path.Base(file), ".html")
		files := append([]string{"templates/layouts/base.html"}, partialFiles...)
		files = append(files, file)

		tmpl, err := template.New("base.html").Funcs(funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		rn.pages[name] = tmpl
	}

	return rn, nil
}

// Has reports whether a page template exists.
func (rn *Renderer) Has(name string) bool {
	_, ok := rn.pages[name]
	return ok
}

// Page renders a full page or, for HTMX requests, only its "content" block.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus is Page with an explicit HTTP status.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := rn.pages[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}
	data.Path = r.URL.RequestURI()

	execName := "base.html"
	if isHTMX(r) {
		execName = "content"
	}
	rn.write(w, r, status, tmpl, execName, data)
}

// Partial renders one named partial template, for HTMX fragment swaps.
func (rn *Renderer) Partial(w http.ResponseWriter, r *http.Request, name string, data any) {
	rn.write(w, r, http.StatusOK, rn.partials, name, data)
}

// write executes into a buffer first so a template error never leaves a
// half-written page.
func (rn *Renderer) write(w http.ResponseWriter, r *http.Request, status int, tmpl *template.Template, name string, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("template error",
			"template", name,
			"error", err,
			"request_id", middleware.RequestIDFromCtx(r.Context()),
		)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
