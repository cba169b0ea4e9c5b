// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "sort"

// Stats are the catalog-wide counters shown on the dashboard.
type Stats struct {
	TotalDatasets      int            `json:"total_datasets"`
	TotalSamples       int            `json:"total_samples"`
	TotalDownloads     int            `json:"total_downloads"`
	DatasetsByCategory map[string]int `json:"datasets_by_category"`
	DatasetsByType     map[string]int `json:"datasets_by_type"`
}

// Count is a named counter, used to render breakdowns in a stable order.
type Count struct {
	Name  string
	Value int
	// Percent is Value relative to the largest counter in the breakdown.
	Percent int
}

// SortedCounts turns a breakdown map into counters ordered by descending
// value, then name.
func SortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	top := 0
	for name, v := range m {
		out = append(out, Count{Name: name, Value: v})
		if v > top {
			top = v
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	if top > 0 {
		for i := range out {
			out[i].Percent = out[i].Value * 100 / top
		}
	}
	return out
}
