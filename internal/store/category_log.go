// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// category_log.go records category mutations made through the admin pages
// for audit purposes. Each entry captures which category changed, how, and
// who changed it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"spectranet/internal/models"
)

// CategoryLog handles category change log operations.
type CategoryLog struct {
	db *sql.DB
}

// NewCategoryLog creates a new CategoryLog.
func NewCategoryLog(db *sql.DB) *CategoryLog {
	return &CategoryLog{db: db}
}

// Log records a category change. Failures are logged, not returned.
func (s *CategoryLog) Log(ctx context.Context, c models.CategoryChange) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_log (category_id, action, name, parent_id, user_id)
		VALUES ($1, $2, $3, $4, $5)
	`, c.CategoryID, c.Action, c.Name, c.ParentID, c.UserID)
	if err != nil {
		slog.Warn("failed to log category change",
			"category_id", c.CategoryID,
			"action", c.Action,
			"error", err,
		)
		return
	}
	slog.Debug("category change logged",
		"category_id", c.CategoryID,
		"action", c.Action,
		"user_id", c.UserID,
	)
}

// Recent returns the most recent category changes, newest first.
func (s *CategoryLog) Recent(ctx context.Context, limit int) ([]models.CategoryChange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, action, name, parent_id, user_id, changed_at
		FROM category_log
		ORDER BY changed_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query category log: %w", err)
	}
	defer rows.Close()

	var entries []models.CategoryChange
	for rows.Next() {
		var (
			c      models.CategoryChange
			parent sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.CategoryID, &c.Action, &c.Name, &parent, &c.UserID, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan category log: %w", err)
		}
		if parent.Valid {
			c.ParentID = &parent.Int64
		}
		entries = append(entries, c)
	}
	return entries, rows.Err()
}
