// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package state holds the per-user UI state shared between pages: who is
// signed in and the dataset list being browsed. Each store is constructed
// explicitly and written only through its own methods.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"spectranet/internal/apiclient"
	"spectranet/internal/models"
)

// ErrNoToken is returned by Load when no access token is held.
var ErrNoToken = errors.New("no access token")

// UserSource resolves the account behind the current token.
type UserSource interface {
	Me(ctx context.Context) (*models.User, error)
}

// Auth is the signed-in user and their access token.
type Auth struct {
	mu    sync.RWMutex
	token string
	user  *models.User
}

// NewAuth restores auth state, typically from a session.
func NewAuth(token string, user *models.User) *Auth {
	return &Auth{token: token, user: user}
}

// SetToken replaces the access token and forgets the resolved user.
func (a *Auth) SetToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
	a.user = nil
}

// Load resolves the current user from the token. A 401 clears the state.
// api must already carry the token.
func (a *Auth) Load(ctx context.Context, api UserSource) error {
	if a.Token() == "" {
		return ErrNoToken
	}
	user, err := api.Me(ctx)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			a.Clear()
		}
		return fmt.Errorf("load current user: %w", err)
	}

	a.mu.Lock()
	a.user = user
	a.mu.Unlock()
	return nil
}

// Clear drops the token and the user.
func (a *Auth) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = ""
	a.user = nil
}

// Token returns the access token, empty when signed out.
func (a *Auth) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// User returns a copy of the current user, or nil.
func (a *Auth) User() *models.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.user == nil {
		return nil
	}
	u := *a.user
	return &u
}

// IsAuthenticated reports whether a token is held and its user resolved.
func (a *Auth) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token != "" && a.user != nil
}

// CanUpload reports whether the user may create datasets.
func (a *Auth) CanUpload() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user != nil && a.user.CanUpload()
}

// IsSuperuser reports whether the user may manage users and categories.
func (a *Auth) IsSuperuser() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user != nil && a.user.IsSuperuser
}
