// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store persists what this front end knows that the catalog API
// does not: the journal of every file upload attempted through the wizard,
// including failures and files left behind by an aborted run, and the log
// of category changes made by administrators.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"spectranet/internal/models"
)

// UploadJournal records upload outcomes in PostgreSQL.
type UploadJournal struct {
	db *sql.DB
}

// NewUploadJournal creates a new UploadJournal.
func NewUploadJournal(db *sql.DB) *UploadJournal {
	return &UploadJournal{db: db}
}

// RecordUpload appends one upload outcome.
func (s *UploadJournal) RecordUpload(ctx context.Context, e models.UploadEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO upload_journal
			(id, dataset_id, user_id, kind, filename, label, succeeded, error, samples_added, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, e.ID, e.DatasetID, e.UserID, e.Kind, e.Filename, e.Label, e.Succeeded, e.Error, e.SamplesAdded, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert upload journal: %w", err)
	}
	slog.Debug("upload journaled",
		"dataset_id", e.DatasetID,
		"kind", e.Kind,
		"file", e.Filename,
		"succeeded", e.Succeeded,
	)
	return nil
}

// ForDataset returns the uploads of one dataset, newest first.
func (s *UploadJournal) ForDataset(ctx context.Context, datasetID int64) ([]models.UploadEntry, error) {
	return s.query(ctx, `
		SELECT id, dataset_id, user_id, kind, filename, label, succeeded, error, samples_added, created_at
		FROM upload_journal
		WHERE dataset_id = $1
		ORDER BY created_at DESC
	`, datasetID)
}

// Recent returns the most recent uploads across all datasets.
func (s *UploadJournal) Recent(ctx context.Context, limit int) ([]models.UploadEntry, error) {
	return s.query(ctx, `
		SELECT id, dataset_id, user_id, kind, filename, label, succeeded, error, samples_added, created_at
		FROM upload_journal
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
}

func (s *UploadJournal) query(ctx context.Context, q string, args ...any) ([]models.UploadEntry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query upload journal: %w", err)
	}
	defer rows.Close()

	var entries []models.UploadEntry
	for rows.Next() {
		var e models.UploadEntry
		if err := rows.Scan(&e.ID, &e.DatasetID, &e.UserID, &e.Kind, &e.Filename, &e.Label,
			&e.Succeeded, &e.Error, &e.SamplesAdded, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan upload journal: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
