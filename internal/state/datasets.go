// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package state

import (
	"context"
	"sync"

	"spectranet/internal/apiclient"
	"spectranet/internal/models"
)

// Fallback messages shown when the API gives no detail.
const (
	MsgListFailed = "Failed to load datasets"
	MsgOneFailed  = "Failed to load dataset"
)

// DatasetSource fetches datasets from the catalog API.
type DatasetSource interface {
	Datasets(ctx context.Context, filters apiclient.DatasetFilters) ([]models.Dataset, error)
	Dataset(ctx context.Context, id int64) (*models.DatasetDetail, error)
}

// DatasetsSnapshot is a consistent copy of the store.
type DatasetsSnapshot struct {
	Items   []models.Dataset
	Current *models.DatasetDetail
	Loading bool
	Error   string
}

// Datasets is the dataset list being browsed and the dataset being viewed.
//
// Every fetch takes a sequence number. A response is applied only when no
// newer fetch of the same kind has started, so overlapping searches resolve
// to the last one issued regardless of arrival order.
type Datasets struct {
	api DatasetSource

	mu      sync.Mutex
	items   []models.Dataset
	current *models.DatasetDetail
	loading int
	err     string
	listSeq uint64
	oneSeq  uint64
}

// NewDatasets creates an empty store backed by api.
func NewDatasets(api DatasetSource) *Datasets {
	return &Datasets{api: api}
}

// FetchList loads the dataset list. On failure the previous items stay in
// place and the error message is recorded. It reports whether the response
// was applied.
func (s *Datasets) FetchList(ctx context.Context, filters apiclient.DatasetFilters) (bool, error) {
	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	s.loading++
	s.err = ""
	s.mu.Unlock()

	items, err := s.api.Datasets(ctx, filters)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if seq != s.listSeq {
		return false, err
	}
	if err != nil {
		s.err = apiclient.Detail(err, MsgListFailed)
		return true, err
	}
	s.items = items
	return true, nil
}

// FetchOne loads a single dataset as the current one.
func (s *Datasets) FetchOne(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	s.oneSeq++
	seq := s.oneSeq
	s.loading++
	s.err = ""
	s.mu.Unlock()

	ds, err := s.api.Dataset(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if seq != s.oneSeq {
		return false, err
	}
	if err != nil {
		s.err = apiclient.Detail(err, MsgOneFailed)
		return true, err
	}
	s.current = ds
	return true, nil
}

// ClearCurrent forgets the dataset being viewed.
func (s *Datasets) ClearCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.oneSeq++
	s.current = nil
}

// Clear empties the store. Fetches still in flight are discarded.
func (s *Datasets) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listSeq++
	s.oneSeq++
	s.items = nil
	s.current = nil
	s.err = ""
}

// Snapshot returns a copy of the store.
func (s *Datasets) Snapshot() DatasetsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DatasetsSnapshot{
		Items:   append([]models.Dataset(nil), s.items...),
		Current: s.current,
		Loading: s.loading > 0,
		Error:   s.err,
	}
}
