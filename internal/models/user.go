// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// User is an account on the catalog API.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name,omitempty"`
	Institution string    `json:"institution,omitempty"`
	IsActive    bool      `json:"is_active"`
	IsAdmin     bool      `json:"is_admin"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   Timestamp `json:"created_at"`
}

// DisplayName returns the full name when set, otherwise the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// CanUpload reports whether the user may create datasets.
func (u *User) CanUpload() bool {
	return u.IsAdmin || u.IsSuperuser
}

// Token is the response of the login endpoint.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterInput is the request body for self-registration.
type RegisterInput struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	FullName    string `json:"full_name,omitempty" validate:"max=100"`
	Institution string `json:"institution,omitempty" validate:"max=200"`
}

// UserInput is the request body for the admin create-user endpoint.
type UserInput struct {
	RegisterInput
	IsAdmin     bool `json:"is_admin"`
	IsSuperuser bool `json:"is_superuser"`
}
