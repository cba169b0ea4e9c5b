// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"spectranet/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"

	// LoginPath is where unauthenticated users are sent.
	LoginPath = "/login"
)

// SessionStore is the part of session.Store the middleware needs.
type SessionStore interface {
	Get(ctx context.Context, r *http.Request) (*session.Data, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// LoadSession retrieves the session from Valkey and stores it in the
// request context. A session whose access token has expired is destroyed.
// Authentication is not enforced here.
func LoadSession(store SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				slog.Warn("session load failed", "error", err, "request_id", RequestIDFromCtx(r.Context()))
				next.ServeHTTP(w, r)
				return
			}

			if data != nil && data.Expired(time.Now()) {
				if err := store.Destroy(r.Context(), w, r); err != nil {
					slog.Warn("expired session destroy failed", "error", err)
				}
				data = nil
			}

			if data != nil {
				r = r.WithContext(WithSession(r.Context(), data))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth redirects unauthenticated users to the login page.
// Must be applied after LoadSession in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromCtx(r.Context()) == nil {
			RedirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUploader returns 403 unless the user is an admin or superuser.
// Must be applied after RequireAuth.
func RequireUploader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess == nil || !sess.CanUpload() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuperuser returns 403 unless the user is a superuser.
// Must be applied after RequireAuth.
func RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess == nil || !sess.IsSuperuser {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedirectToLogin sends the user to the login page, remembering the
// current path. HTMX requests get an HX-Redirect header instead of a 303.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := LoginURL(r.URL.RequestURI())
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// LoginURL returns the login path with next set to a local path.
func LoginURL(next string) string {
	if !SafeNext(next) || next == LoginPath {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext reports whether next is a local absolute path, so it cannot
// redirect off-site.
func SafeNext(next string) bool {
	return strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.Contains(next, `\`)
}

// WithSession returns a context carrying data.
func WithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, SessionKey, data)
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded (user is not authenticated).
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}
