// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Upload kinds accepted by the catalog API.
const (
	UploadDatasetFile = "dataset_file"
	UploadSamplesCSV  = "samples_csv"
	UploadLabeled     = "labeled"
)

// UploadEntry is one journaled file upload attempt made through the wizard.
type UploadEntry struct {
	ID           uuid.UUID
	DatasetID    int64
	UserID       int64
	Kind         string
	Filename     string
	Label        string
	Succeeded    bool
	Error        string
	SamplesAdded int
	CreatedAt    time.Time
}
