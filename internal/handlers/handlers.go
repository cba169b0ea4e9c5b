// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the SpectraNet catalog.
// Handlers are grouped by concern (public, auth, upload, admin) and share
// their dependencies through Deps. Every page talks to the catalog API with
// the token held in the visitor's session.
package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"spectranet/internal/apiclient"
	"spectranet/internal/cache"
	"spectranet/internal/middleware"
	"spectranet/internal/models"
	"spectranet/internal/render"
	"spectranet/internal/session"
	"spectranet/internal/taxonomy"
	"spectranet/internal/wizard"
)

// Sessions is the session lifecycle the handlers drive.
type Sessions interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Get(ctx context.Context, r *http.Request) (*session.Data, error)
	Update(ctx context.Context, r *http.Request, data *session.Data) error
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Journal records upload outcomes and lists them per dataset.
type Journal interface {
	wizard.Journal
	ForDataset(ctx context.Context, datasetID int64) ([]models.UploadEntry, error)
}

// Mirror keeps copies of dataset exports in object storage.
type Mirror interface {
	Put(ctx context.Context, datasetID int64, filename, contentType string, body io.ReadSeeker, size int64) error
	Has(ctx context.Context, datasetID int64) (bool, error)
	Link(ctx context.Context, datasetID int64, filename string) (string, error)
	Delete(ctx context.Context, datasetID int64) error
}

// CategoryLog records category changes made by administrators.
type CategoryLog interface {
	Log(ctx context.Context, c models.CategoryChange)
}

// Deps holds everything the handler groups need. Journal, Mirror and
// CategoryLog are optional and must be left nil (not a typed nil) when
// disabled.
type Deps struct {
	API         *apiclient.Client
	Renderer    *render.Renderer
	Sessions    Sessions
	Categories  *cache.CategoryCache
	Journal     Journal
	Mirror      Mirror
	CategoryLog CategoryLog

	PublicURL      string   // absolute base for share links
	UploadLabels   []string // sample labels offered in the upload wizard
	UploadMaxBytes int64    // request body limit for file uploads
}

// base carries the shared dependencies and helpers of every group.
type base struct {
	Deps
}

// client returns an API client carrying the session token, or an anonymous
// client for visitors.
func (b *base) client(r *http.Request) *apiclient.Client {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil && sess.Token != "" {
		return b.API.WithToken(sess.Token)
	}
	return b.API
}

// unauthorized ends the session and sends the visitor to the login page
// when err is a 401 from the API. It reports whether it handled err.
func (b *base) unauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		return false
	}
	if derr := b.Sessions.Destroy(r.Context(), w, r); derr != nil {
		slog.Warn("session destroy failed", "error", derr)
	}
	middleware.RedirectToLogin(w, r)
	return true
}

// forest loads the category tree. A failed fetch yields an empty forest.
func (b *base) forest(ctx context.Context) *taxonomy.Forest {
	tree, err := b.Categories.Tree(ctx)
	if err != nil {
		slog.Error("load category tree failed", "error", err)
		return taxonomy.FromTree(nil)
	}
	return taxonomy.FromTree(tree)
}

// notFound renders the error page with a 404 status.
func (b *base) notFound(w http.ResponseWriter, r *http.Request) {
	b.errorPage(w, r, http.StatusNotFound, "页面不存在", "您访问的页面不存在或已被删除。")
}

// errorPage renders the generic error page.
func (b *base) errorPage(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	b.Renderer.PageStatus(w, r, status, "error", &render.PageData{
		Title: title,
		Data:  map[string]any{"Message": message},
	})
}

// seeOther redirects after a POST. HTMX requests get HX-Redirect instead,
// since a followed 303 would be swapped into the page.
func seeOther(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// idParam parses a positive int64 URL parameter.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// optionalID parses a form or query value holding an optional id.
func optionalID(s string) *int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// positiveInt parses s, falling back to def when s is not a positive number.
func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
