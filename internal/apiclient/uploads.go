// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package apiclient

import (
	"context"
	"strconv"
)

// UploadResult is the acknowledgement returned by the upload endpoints.
type UploadResult struct {
	Message      string `json:"message"`
	Filename     string `json:"filename,omitempty"`
	SamplesAdded int    `json:"samples_added,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
	NumSamples   int    `json:"num_samples,omitempty"`
	DatasetID    int64  `json:"dataset_id,omitempty"`
	Label        string `json:"label,omitempty"`
}

// UploadDatasetFile attaches the raw dataset file to a dataset.
func (c *Client) UploadDatasetFile(ctx context.Context, datasetID int64, file File) (*UploadResult, error) {
	var out UploadResult
	fields := []formField{{"dataset_id", strconv.FormatInt(datasetID, 10)}}
	if err := c.doMultipart(ctx, "upload dataset file", "/api/upload/dataset", fields, file, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadSamplesCSV imports spectral samples from a CSV whose columns are
// wavelengths and rows are samples.
func (c *Client) UploadSamplesCSV(ctx context.Context, datasetID int64, file File) (*UploadResult, error) {
	var out UploadResult
	path := "/api/upload/samples/" + strconv.FormatInt(datasetID, 10)
	if err := c.doMultipart(ctx, "upload samples", path, nil, file, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadLabeledFile imports a CSV of samples that all share label.
func (c *Client) UploadLabeledFile(ctx context.Context, datasetID int64, file File, label string) (*UploadResult, error) {
	var out UploadResult
	path := "/api/upload/labeled/" + strconv.FormatInt(datasetID, 10)
	fields := []formField{{"label", label}}
	if err := c.doMultipart(ctx, "upload labeled file", path, fields, file, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
