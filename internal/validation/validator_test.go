// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package validation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectranet/internal/models"
	"spectranet/internal/validation"
)

func TestValidateDatasetInput(t *testing.T) {
	v := validation.New()

	ok := models.DatasetInput{Name: "Cotton", WavelengthUnit: "nm", SpectralType: "NIR"}
	assert.NoError(t, v.Validate(ok))

	bad := models.DatasetInput{WavelengthUnit: "inch", SpectralType: "Sonar"}
	err := v.Validate(bad)
	require.Error(t, err)

	fields := validation.Fields(err)
	require.NotNil(t, fields)
	assert.Equal(t, "不能为空", fields["name"])
	assert.Contains(t, fields["wavelength_unit"], "nm um cm-1")
	assert.Contains(t, fields, "spectral_type")
}

func TestValidateTags(t *testing.T) {
	v := validation.New()
	in := models.DatasetInput{Name: "x", WavelengthUnit: "nm", Tags: []string{strings.Repeat("t", 51)}}

	fields := validation.Fields(v.Validate(in))
	require.Len(t, fields, 1)
	for f, msg := range fields {
		assert.True(t, strings.HasPrefix(f, "tags"), f)
		assert.Equal(t, "不能超过 50 个字符", msg)
	}
}

func TestValidateRegisterInput(t *testing.T) {
	v := validation.New()
	err := v.Validate(models.RegisterInput{Username: "ab", Email: "nope", Password: "123"})

	fields := validation.Fields(err)
	assert.Equal(t, "至少 3 个字符", fields["username"])
	assert.Equal(t, "邮箱格式不正确", fields["email"])
	assert.Equal(t, "至少 6 个字符", fields["password"])
	assert.Equal(t, "email: 邮箱格式不正确; password: 至少 6 个字符; username: 至少 3 个字符", err.Error())
}

func TestFieldsOfOtherError(t *testing.T) {
	assert.Nil(t, validation.Fields(errors.New("boom")))
	assert.Nil(t, validation.Fields(nil))
}
