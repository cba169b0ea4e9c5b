// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package chart prepares spectral samples for the client-side line chart.
package chart

import (
	"encoding/json"
	"fmt"

	"spectranet/internal/models"
)

// MaxPoints is the largest number of points sent to the browser per series.
const MaxPoints = 2000

// Point is one (wavelength, intensity) pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is one line of the chart.
type Series struct {
	Label  string  `json:"label"`
	Unit   string  `json:"unit"`
	Points []Point `json:"data"`
}

// FromSample builds a series from s. Pairs beyond the shorter of the two
// arrays are dropped and the result is downsampled to at most limit points.
func FromSample(s models.SpectralSample, unit string, limit int) Series {
	n := min(len(s.Wavelengths), len(s.Intensities))
	points := make([]Point, n)
	for i := range n {
		points[i] = Point{X: s.Wavelengths[i], Y: s.Intensities[i]}
	}

	label := s.SampleName
	if s.SampleLabel != "" {
		label = fmt.Sprintf("%s (%s)", s.SampleName, s.SampleLabel)
	}
	return Series{Label: label, Unit: unit, Points: Downsample(points, limit)}
}

// Downsample keeps at most limit points by even striding. The first and last
// points are always kept. limit <= 0 disables downsampling.
func Downsample(points []Point, limit int) []Point {
	if limit <= 0 || len(points) <= limit {
		return points
	}
	if limit == 1 {
		return points[:1]
	}
	out := make([]Point, limit)
	last := len(points) - 1
	for i := range limit {
		out[i] = points[i*last/(limit-1)]
	}
	return out
}

// JSON encodes the series for embedding in a data attribute.
func (s Series) JSON() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode series: %w", err)
	}
	return string(b), nil
}
