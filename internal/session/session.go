// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session provides Valkey-backed HTTP session management.
// A session holds the catalog API access token of the signed-in user, so
// the token never reaches browser storage. Sessions are identified by a
// secure cookie and stored as JSON in Valkey with automatic TTL expiry.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"spectranet/internal/models"
	"spectranet/internal/wizard"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "sn_session"

	// DefaultTTL is how long a session lives when the token carries no expiry.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

// ErrNoCookie is returned by Update when the request carries no session.
var ErrNoCookie = errors.New("no session cookie")

// Data holds the session payload stored in Valkey.
type Data struct {
	Token       string        `json:"token"`
	UserID      int64         `json:"user_id"`
	Username    string        `json:"username"`
	DisplayName string        `json:"display_name"`
	IsAdmin     bool          `json:"is_admin"`
	IsSuperuser bool          `json:"is_superuser"`
	ExpiresAt   time.Time     `json:"expires_at,omitzero"`
	CreatedAt   time.Time     `json:"created_at"`
	Wizard      *wizard.State `json:"wizard,omitempty"`
}

// NewData builds session data for user signed in with token.
func NewData(token string, user *models.User) *Data {
	d := &Data{
		Token:       token,
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName(),
		IsAdmin:     user.IsAdmin,
		IsSuperuser: user.IsSuperuser,
	}
	if exp, ok := TokenExpiry(token); ok {
		d.ExpiresAt = exp
	}
	return d
}

// Expired reports whether the access token has expired at now.
func (d *Data) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && !now.Before(d.ExpiresAt)
}

// CanUpload reports whether the user may create datasets.
func (d *Data) CanUpload() bool {
	return d.IsAdmin || d.IsSuperuser
}

// User rebuilds the user record cached in the session.
func (d *Data) User() *models.User {
	return &models.User{
		ID:          d.UserID,
		Username:    d.Username,
		FullName:    d.DisplayName,
		IsActive:    true,
		IsAdmin:     d.IsAdmin,
		IsSuperuser: d.IsSuperuser,
	}
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The catalog API verifies tokens; the claim only bounds the session TTL.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store backed by the given Valkey client.
// When secure is true, the session cookie is only sent over HTTPS.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{
		client: client,
		ttl:    DefaultTTL,
		secure: secure,
	}
}

// ttlFor bounds the session lifetime by the token expiry.
func (s *Store) ttlFor(data *Data) time.Duration {
	if data.ExpiresAt.IsZero() {
		return s.ttl
	}
	ttl := time.Until(data.ExpiresAt)
	if ttl > s.ttl {
		return s.ttl
	}
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

// Create generates a new session, stores it in Valkey, and sets the
// session cookie on the response. Returns the session ID.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}

	data.CreatedAt = time.Now()

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("session marshal: %w", err)
	}

	ttl := s.ttlFor(data)
	if err := s.client.Set(ctx, keyPrefix+id, payload, ttl).Err(); err != nil {
		return "", fmt.Errorf("session store: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})

	return id, nil
}

// Get retrieves session data from Valkey using the session ID from the
// request cookie. Returns nil if no valid session exists.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil
	}

	payload, err := s.client.Get(ctx, keyPrefix+cookie.Value).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}

	return &data, nil
}

// Update replaces the session data in Valkey without changing the session
// ID, the cookie or the remaining TTL.
func (s *Store) Update(ctx context.Context, r *http.Request, data *Data) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return fmt.Errorf("session update: %w", ErrNoCookie)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+cookie.Value, payload, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("session update: %w", err)
	}

	return nil
}

// Destroy removes the session from Valkey and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
	})

	if err := s.client.Del(ctx, keyPrefix+cookie.Value).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	return nil
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
