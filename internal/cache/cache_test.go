// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"spectranet/internal/models"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	client.Del(ctx, treeKey)
	t.Cleanup(func() {
		client.Del(ctx, treeKey)
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// countingSource returns a fixed tree and counts calls.
type countingSource struct {
	calls   atomic.Int32
	err     error
	release chan struct{}
}

func (s *countingSource) CategoryTree(ctx context.Context) ([]models.Category, error) {
	s.calls.Add(1)
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return []models.Category{
		{ID: 1, Name: "纺织品", Children: []models.Category{{ID: 2, Name: "棉"}}},
	}, nil
}

func TestConnectValkey(t *testing.T) {
	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client, err := ConnectValkey(context.Background(), host, port, os.Getenv("VALKEY_PASSWORD"))
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestCategoryCacheWithoutValkey(t *testing.T) {
	src := &countingSource{}
	cc := NewCategoryCache(nil, src, DefaultTreeTTL)

	for i := 0; i < 2; i++ {
		tree, err := cc.Tree(context.Background())
		if err != nil {
			t.Fatalf("Tree: %v", err)
		}
		if len(tree) != 1 || tree[0].Children[0].Name != "棉" {
			t.Errorf("tree: got %+v", tree)
		}
	}
	if got := src.calls.Load(); got != 2 {
		t.Errorf("calls: got %d, want 2", got)
	}
	cc.Invalidate(context.Background())
}

func TestCategoryCacheSharesConcurrentMisses(t *testing.T) {
	src := &countingSource{release: make(chan struct{})}
	cc := NewCategoryCache(nil, src, 0)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cc.Tree(context.Background()); err != nil {
				t.Errorf("Tree: %v", err)
			}
		}()
	}

	// Let the goroutines pile up on the in-flight call before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	if got := src.calls.Load(); got != 1 {
		t.Errorf("calls: got %d, want 1", got)
	}
}

// waitCalls blocks until src has been called n times.
func waitCalls(t *testing.T, src *countingSource, n int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for src.calls.Load() < n {
		if time.Now().After(deadline) {
			t.Fatalf("source calls: got %d, want %d", src.calls.Load(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCategoryCacheCallerCancelDoesNotFailOthers(t *testing.T) {
	src := &countingSource{release: make(chan struct{})}
	cc := NewCategoryCache(nil, src, 0)

	ctx1, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := cc.Tree(ctx1)
		first <- err
	}()
	waitCalls(t, src, 1)

	type result struct {
		tree []models.Category
		err  error
	}
	second := make(chan result, 1)
	go func() {
		tree, err := cc.Tree(context.Background())
		second <- result{tree, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller: got %v, want context.Canceled", err)
	}

	close(src.release)
	res := <-second
	if res.err != nil {
		t.Fatalf("waiting caller should get the tree, got %v", res.err)
	}
	if len(res.tree) != 1 || res.tree[0].ID != 1 {
		t.Errorf("tree: got %+v", res.tree)
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("calls: got %d, want 1", got)
	}
}

func TestCategoryCacheInvalidateStartsNewFill(t *testing.T) {
	src := &countingSource{release: make(chan struct{})}
	cc := NewCategoryCache(nil, src, 0)

	var wg sync.WaitGroup
	tree := func() {
		defer wg.Done()
		if _, err := cc.Tree(context.Background()); err != nil {
			t.Errorf("Tree: %v", err)
		}
	}

	wg.Add(1)
	go tree()
	waitCalls(t, src, 1)

	cc.Invalidate(context.Background())

	wg.Add(1)
	go tree()
	waitCalls(t, src, 2)

	close(src.release)
	wg.Wait()
}

func TestCategoryCacheError(t *testing.T) {
	boom := errors.New("api down")
	cc := NewCategoryCache(nil, &countingSource{err: boom}, DefaultTreeTTL)

	if _, err := cc.Tree(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected wrapped source error, got %v", err)
	}
}

func TestCategoryCacheValkey(t *testing.T) {
	client := testValkeyClient(t)
	src := &countingSource{}
	cc := NewCategoryCache(client, src, time.Minute)
	ctx := context.Background()

	if _, err := cc.Tree(ctx); err != nil {
		t.Fatalf("Tree (miss): %v", err)
	}
	tree, err := cc.Tree(ctx)
	if err != nil {
		t.Fatalf("Tree (hit): %v", err)
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("calls after hit: got %d, want 1", got)
	}
	if tree[0].ID != 1 || tree[0].Children[0].ID != 2 {
		t.Errorf("cached tree: got %+v", tree)
	}

	cc.Invalidate(ctx)
	if _, err := cc.Tree(ctx); err != nil {
		t.Fatalf("Tree (after invalidate): %v", err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Errorf("calls after invalidate: got %d, want 2", got)
	}
}

func TestCategoryCacheFillRacingInvalidateNotStored(t *testing.T) {
	client := testValkeyClient(t)
	src := &countingSource{release: make(chan struct{})}
	cc := NewCategoryCache(client, src, time.Minute)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := cc.Tree(ctx)
		done <- err
	}()
	waitCalls(t, src, 1)

	cc.Invalidate(ctx)
	close(src.release)
	if err := <-done; err != nil {
		t.Fatalf("Tree: %v", err)
	}

	if n, err := client.Exists(ctx, treeKey).Result(); err != nil || n != 0 {
		t.Errorf("tree fetched before the invalidation should not be cached (exists=%d, err=%v)", n, err)
	}
}
