// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"spectranet/internal/models"
)

// Categories returns every category as a flat list.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.doJSON(ctx, "list categories", http.MethodGet, "/api/categories/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CategoryTree returns the category forest with children nested.
func (c *Client) CategoryTree(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.doJSON(ctx, "category tree", http.MethodGet, "/api/categories/tree", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Category returns a single category.
func (c *Client) Category(ctx context.Context, id int64) (*models.Category, error) {
	var out models.Category
	if err := c.doJSON(ctx, "get category", http.MethodGet, categoryPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCategory creates a category.
func (c *Client) CreateCategory(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	var out models.Category
	if err := c.doJSON(ctx, "create category", http.MethodPost, "/api/categories/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCategory replaces a category's name, description and parent.
func (c *Client) UpdateCategory(ctx context.Context, id int64, in models.CategoryInput) (*models.Category, error) {
	var out models.Category
	if err := c.doJSON(ctx, "update category", http.MethodPut, categoryPath(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCategory deletes a category. The API refuses categories that still
// have children or datasets and says so in the error detail.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.doJSON(ctx, "delete category", http.MethodDelete, categoryPath(id), nil, nil, nil)
}

func categoryPath(id int64) string {
	return "/api/categories/" + strconv.FormatInt(id, 10)
}
