// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Category is a node of the dataset taxonomy as returned by the catalog API.
// The tree endpoint nests Children; the flat endpoints leave it empty.
type Category struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ParentID    *int64     `json:"parent_id"`
	CreatedAt   Timestamp  `json:"created_at"`
	Children    []Category `json:"children,omitempty"`
}

// CategoryInput is the request body for creating or updating a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	ParentID    *int64 `json:"parent_id"`
}

// Category change actions recorded in the category log.
const (
	CategoryCreated = "create"
	CategoryUpdated = "update"
	CategoryDeleted = "delete"
)

// CategoryChange is one category mutation made through the admin pages.
type CategoryChange struct {
	ID         int64
	CategoryID int64
	Action     string
	Name       string
	ParentID   *int64
	UserID     int64
	ChangedAt  time.Time
}
