// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models holds the records exchanged with the catalog API.
// They mirror the server JSON one-to-one and carry no client-side invariants.
package models

// Dataset is a named collection of spectral samples plus descriptive metadata.
type Dataset struct {
	ID              int64          `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	CategoryID      *int64         `json:"category_id"`
	OwnerID         int64          `json:"owner_id"`
	SpectralType    string         `json:"spectral_type,omitempty"`
	WavelengthRange string         `json:"wavelength_range,omitempty"`
	WavelengthUnit  string         `json:"wavelength_unit"`
	NumSamples      int            `json:"num_samples"`
	NumBands        *int           `json:"num_bands,omitempty"`
	FileFormat      string         `json:"file_format,omitempty"`
	FileSize        *int64         `json:"file_size,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	Metadata        map[string]any `json:"extra_metadata,omitempty"`
	DownloadCount   int            `json:"download_count"`
	ViewCount       int            `json:"view_count"`
	IsPublic        bool           `json:"is_public"`
	IsVerified      bool           `json:"is_verified"`
	CreatedAt       Timestamp      `json:"created_at"`
	UpdatedAt       Timestamp      `json:"updated_at"`
}

// DatasetDetail is a Dataset with its owner and category expanded.
type DatasetDetail struct {
	Dataset
	Owner    User      `json:"owner"`
	Category *Category `json:"category,omitempty"`
}

// DatasetInput is the request body for creating or updating a dataset.
type DatasetInput struct {
	Name            string   `json:"name" validate:"required,max=200"`
	Description     string   `json:"description,omitempty" validate:"max=20000"`
	CategoryID      *int64   `json:"category_id,omitempty"`
	SpectralType    string   `json:"spectral_type,omitempty" validate:"omitempty,oneof=Visible NIR Hyperspectral Multispectral Infrared UV-Vis Raman FTIR Other"`
	WavelengthRange string   `json:"wavelength_range,omitempty" validate:"max=100"`
	WavelengthUnit  string   `json:"wavelength_unit" validate:"required,oneof=nm um cm-1"`
	FileFormat      string   `json:"file_format,omitempty" validate:"omitempty,oneof=CSV Excel MAT HDF5 NetCDF ENVI Other"`
	Tags            []string `json:"tags" validate:"max=30,dive,max=50"`
	IsPublic        bool     `json:"is_public"`
}

// SpectralSample is one measured spectrum belonging to a dataset.
type SpectralSample struct {
	ID          int64          `json:"id"`
	DatasetID   int64          `json:"dataset_id"`
	SampleName  string         `json:"sample_name"`
	SampleLabel string         `json:"sample_label,omitempty"`
	Wavelengths []float64      `json:"wavelengths"`
	Intensities []float64      `json:"intensities"`
	Properties  map[string]any `json:"properties,omitempty"`
	CreatedAt   Timestamp      `json:"created_at"`
}

// SpectralTypes lists the spectral types offered by the upload form, with
// their display labels.
var SpectralTypes = []Choice{
	{Value: "Visible", Label: "可见光"},
	{Value: "NIR", Label: "近红外"},
	{Value: "Hyperspectral", Label: "高光谱"},
	{Value: "Multispectral", Label: "多光谱"},
	{Value: "Infrared", Label: "红外"},
	{Value: "UV-Vis", Label: "紫外可见"},
	{Value: "Raman", Label: "拉曼"},
	{Value: "FTIR", Label: "傅里叶变换红外"},
	{Value: "Other", Label: "其他"},
}

// WavelengthUnits lists the accepted wavelength units.
var WavelengthUnits = []Choice{
	{Value: "nm", Label: "nm (纳米)"},
	{Value: "um", Label: "μm (微米)"},
	{Value: "cm-1", Label: "cm⁻¹ (波数)"},
}

// FileFormats lists the accepted dataset file formats.
var FileFormats = []Choice{
	{Value: "CSV", Label: "CSV"},
	{Value: "Excel", Label: "Excel"},
	{Value: "MAT", Label: "MAT"},
	{Value: "HDF5", Label: "HDF5"},
	{Value: "NetCDF", Label: "NetCDF"},
	{Value: "ENVI", Label: "ENVI"},
	{Value: "Other", Label: "Other"},
}

// Choice is a value/label pair for <select> options.
type Choice struct {
	Value string
	Label string
}
