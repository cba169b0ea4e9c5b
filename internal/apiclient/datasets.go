// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package apiclient

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"spectranet/internal/models"
)

// DatasetFilters narrows the public dataset listing. Zero values are omitted
// from the query.
type DatasetFilters struct {
	Skip         int
	Limit        int
	Search       string
	CategoryID   *int64
	SpectralType string
	IsVerified   *bool
}

// Values encodes the filters as query parameters.
func (f DatasetFilters) Values() url.Values {
	q := url.Values{}
	if f.Skip > 0 {
		q.Set("skip", strconv.Itoa(f.Skip))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.CategoryID != nil {
		q.Set("category_id", strconv.FormatInt(*f.CategoryID, 10))
	}
	if f.SpectralType != "" {
		q.Set("spectral_type", f.SpectralType)
	}
	if f.IsVerified != nil {
		q.Set("is_verified", strconv.FormatBool(*f.IsVerified))
	}
	return q
}

// Datasets lists public datasets matching filters.
func (c *Client) Datasets(ctx context.Context, filters DatasetFilters) ([]models.Dataset, error) {
	var out []models.Dataset
	if err := c.doJSON(ctx, "list datasets", http.MethodGet, "/api/datasets/", filters.Values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Dataset returns a dataset with its owner and category.
func (c *Client) Dataset(ctx context.Context, id int64) (*models.DatasetDetail, error) {
	var out models.DatasetDetail
	if err := c.doJSON(ctx, "get dataset", http.MethodGet, datasetPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDataset creates a dataset record. The returned ID is needed to
// attach files to it.
func (c *Client) CreateDataset(ctx context.Context, in models.DatasetInput) (*models.Dataset, error) {
	var out models.Dataset
	if err := c.doJSON(ctx, "create dataset", http.MethodPost, "/api/datasets/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDataset updates a dataset's metadata.
func (c *Client) UpdateDataset(ctx context.Context, id int64, in models.DatasetInput) (*models.Dataset, error) {
	var out models.Dataset
	if err := c.doJSON(ctx, "update dataset", http.MethodPut, datasetPath(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDataset deletes a dataset and its samples.
func (c *Client) DeleteDataset(ctx context.Context, id int64) error {
	return c.doJSON(ctx, "delete dataset", http.MethodDelete, datasetPath(id), nil, nil, nil)
}

// Samples returns a page of a dataset's spectral samples.
func (c *Client) Samples(ctx context.Context, datasetID int64, skip, limit int) ([]models.SpectralSample, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))

	var out []models.SpectralSample
	if err := c.doJSON(ctx, "list samples", http.MethodGet, datasetPath(datasetID)+"/samples", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Download is an open dataset export. The caller must close Body.
type Download struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string // from Content-Disposition, may be empty
	Size        int64  // -1 when unknown
}

// DownloadDataset opens the binary export of a dataset. Requires a token.
func (c *Client) DownloadDataset(ctx context.Context, id int64) (*Download, error) {
	const op = "download dataset"

	req, err := c.newRequest(ctx, http.MethodGet, datasetPath(id)+"/download", nil, nil, "")
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, responseError(op, resp)
	}

	d := &Download{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		d.Filename = params["filename"]
	}
	if d.ContentType == "" {
		d.ContentType = "application/octet-stream"
	}
	return d, nil
}

func datasetPath(id int64) string {
	return "/api/datasets/" + strconv.FormatInt(id, 10)
}
