// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// SpectraNet catalog. Routes are grouped by the role they require.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"spectranet/internal/handlers"
	"spectranet/internal/middleware"
)

// Groups bundles the handler groups served by the router.
type Groups struct {
	Public *handlers.Public
	Auth   *handlers.Auth
	Upload *handlers.Upload
	Admin  *handlers.Admin
}

// Options configures the middleware stack.
type Options struct {
	Sessions      middleware.SessionStore
	Limiter       *middleware.RateLimiter // throttles sign-in and registration; nil disables
	SecureCookies bool
	Static        fs.FS // served at /static/; nil disables
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(opts Options, h Groups) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders)

	// Health check and assets: no session, no CSRF.
	r.Get("/health", healthHandler)
	if opts.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(opts.Static)))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.LoadSession(opts.Sessions))
		r.Use(middleware.CSRF(opts.SecureCookies))

		// Public catalog.
		r.Get("/", h.Public.Home)
		r.Get("/datasets", h.Public.Datasets)
		r.Get("/datasets/{id}", h.Public.Dataset)
		r.Get("/statistics", h.Public.Statistics)
		r.Get("/contact", h.Public.Contact)

		// Sign-in and registration.
		r.Group(func(r chi.Router) {
			if opts.Limiter != nil {
				r.Use(opts.Limiter.Middleware)
			}
			r.Get("/login", h.Auth.LoginPage)
			r.Post("/login", h.Auth.LoginSubmit)
			r.Get("/register", h.Auth.RegisterPage)
			r.Post("/register", h.Auth.RegisterSubmit)
		})
		r.Post("/logout", h.Auth.Logout)

		// Signed-in users.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/datasets/{id}/download", h.Public.Download)
			r.Post("/datasets/{id}/delete", h.Public.DeleteDataset)
		})

		// Upload wizard: admins and superusers.
		r.Route("/upload", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.RequireUploader)
			r.Get("/", h.Upload.Page)
			r.Post("/metadata", h.Upload.SubmitMetadata)
			r.Post("/files", h.Upload.SubmitFiles)
			r.Post("/back", h.Upload.Back)
			r.Post("/reset", h.Upload.Reset)
			r.Get("/cascade", h.Upload.Cascade)
			r.Get("/file-row", h.Upload.FileRow)
		})

		// Administration: superusers only.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.RequireSuperuser)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.Admin.UsersList)
				r.Post("/", h.Admin.UserCreate)
				r.Post("/{id}/delete", h.Admin.UserDelete)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.Admin.CategoriesList)
				r.Post("/", h.Admin.CategoryCreate)
				r.Get("/cascade", h.Admin.CategoryCascade)
				r.Get("/{id}/edit", h.Admin.CategoryEdit)
				r.Post("/{id}", h.Admin.CategoryUpdate)
				r.Post("/{id}/delete", h.Admin.CategoryDelete)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
