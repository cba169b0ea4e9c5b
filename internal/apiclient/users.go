// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"spectranet/internal/models"
)

// Login exchanges credentials for an access token (OAuth2 password grant).
func (c *Client) Login(ctx context.Context, username, password string) (*models.Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var out models.Token
	if err := c.doForm(ctx, "login", "/api/auth/login", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a regular user account.
func (c *Client) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	var out models.User
	if err := c.doJSON(ctx, "register", http.MethodPost, "/api/auth/register", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the user the client's token belongs to.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.doJSON(ctx, "current user", http.MethodGet, "/api/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Users lists every account. Superuser only.
func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := c.doJSON(ctx, "list users", http.MethodGet, "/api/auth/admin/users", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUser creates an account with explicit role flags. Superuser only.
func (c *Client) CreateUser(ctx context.Context, in models.UserInput) (*models.User, error) {
	var out models.User
	if err := c.doJSON(ctx, "create user", http.MethodPost, "/api/auth/admin/create-user", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser deletes an account. Superuser only.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	path := "/api/auth/admin/users/" + strconv.FormatInt(id, 10)
	return c.doJSON(ctx, "delete user", http.MethodDelete, path, nil, nil, nil)
}
