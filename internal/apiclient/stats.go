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

// Stats returns the catalog-wide counters.
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var out models.Stats
	if err := c.doJSON(ctx, "statistics", http.MethodGet, "/api/stats/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Trending returns the most viewed and downloaded public datasets.
func (c *Client) Trending(ctx context.Context, limit int) ([]models.Dataset, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var out []models.Dataset
	if err := c.doJSON(ctx, "trending datasets", http.MethodGet, "/api/stats/trending", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
