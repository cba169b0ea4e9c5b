// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"spectranet/internal/models"
)

const (
	// treeKey is the Valkey key holding the category tree JSON.
	treeKey = "categories:tree"

	// DefaultTreeTTL is how long the tree is served from Valkey.
	DefaultTreeTTL = 30 * time.Second

	// fillTimeout bounds a shared fill, which outlives any single caller.
	fillTimeout = 30 * time.Second
)

// TreeSource fetches the category tree from the catalog API.
type TreeSource interface {
	CategoryTree(ctx context.Context) ([]models.Category, error)
}

// CategoryCache serves the category tree from Valkey and refills it from
// the API on a miss. Concurrent misses share one API call. A nil client or
// a zero TTL disables the Valkey layer.
type CategoryCache struct {
	client *redis.Client
	source TreeSource
	ttl    time.Duration
	group  singleflight.Group

	// gen counts invalidations. A fill stores its result only if no
	// invalidation happened while it was fetching.
	gen atomic.Uint64
}

// NewCategoryCache creates a category tree cache.
func NewCategoryCache(client *redis.Client, source TreeSource, ttl time.Duration) *CategoryCache {
	return &CategoryCache{client: client, source: source, ttl: ttl}
}

func (c *CategoryCache) enabled() bool {
	return c.client != nil && c.ttl > 0
}

// Tree returns the category forest as nested records.
func (c *CategoryCache) Tree(ctx context.Context) ([]models.Category, error) {
	if c.enabled() {
		if tree, ok := c.get(ctx); ok {
			return tree, nil
		}
	}

	// The fill runs detached from ctx so that one caller going away does
	// not fail the others waiting on the same flight.
	ch := c.group.DoChan(treeKey, func() (any, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fillTimeout)
		defer cancel()

		gen := c.gen.Load()
		tree, err := c.source.CategoryTree(fillCtx)
		if err != nil {
			return nil, err
		}
		if c.enabled() && c.gen.Load() == gen {
			c.set(fillCtx, tree)
		}
		return tree, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("category tree: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("category tree: %w", res.Err)
		}
		return res.Val.([]models.Category), nil
	}
}

// Invalidate drops the cached tree. Called after every category mutation.
func (c *CategoryCache) Invalidate(ctx context.Context) {
	c.gen.Add(1)
	c.group.Forget(treeKey)
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, treeKey).Err(); err != nil {
		slog.Warn("category cache invalidate error", "error", err)
	}
}

func (c *CategoryCache) get(ctx context.Context) ([]models.Category, bool) {
	raw, err := c.client.Get(ctx, treeKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("category cache get error", "error", err)
		return nil, false
	}
	var tree []models.Category
	if err := json.Unmarshal(raw, &tree); err != nil {
		slog.Warn("category cache decode error", "error", err)
		return nil, false
	}
	slog.Debug("category cache hit")
	return tree, true
}

func (c *CategoryCache) set(ctx context.Context, tree []models.Category) {
	raw, err := json.Marshal(tree)
	if err != nil {
		slog.Warn("category cache encode error", "error", err)
		return
	}
	if err := c.client.Set(ctx, treeKey, raw, c.ttl).Err(); err != nil {
		slog.Warn("category cache set error", "error", err)
	}
}
