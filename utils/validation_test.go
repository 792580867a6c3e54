package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestStruct struct {
	Prompt string `json:"prompt" validate:"required"`
	Region string `json:"region,omitempty" validate:"omitempty,max=10"`
	Mode   string `json:"mode" validate:"omitempty,oneof=compare route"`
	Note   string `validate:"required"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		s := TestStruct{Prompt: "hello", Region: "France", Mode: "route", Note: "n"}
		assert.NoError(t, ValidateStruct(&s))
	})

	t.Run("fields reported by JSON name", func(t *testing.T) {
		s := TestStruct{Region: "United States of America", Mode: "batch"}

		err := ValidateStruct(&s)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Equal(t, "prompt is required", fields["prompt"])
		assert.Equal(t, "region must be at most 10", fields["region"])
		assert.Equal(t, "mode must be one of: compare route", fields["mode"])
		assert.Equal(t, "Note is required", fields["Note"])
	})
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"prompt":"hi","region":"France"}`))
		var s TestStruct
		require.NoError(t, DecodeJSON(req, &s))
		assert.Equal(t, "hi", s.Prompt)
		assert.Equal(t, "France", s.Region)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"prompt":`))
		var s TestStruct
		assert.ErrorIs(t, DecodeJSON(req, &s), ErrInvalidBody)
	})

	t.Run("wrong type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"prompt":42}`))
		var s TestStruct
		assert.ErrorIs(t, DecodeJSON(req, &s), ErrInvalidBody)
	})
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Message: "Test validation error",
		Fields: map[string]string{
			"field1": "error1",
		},
	}

	assert.Equal(t, "Test validation error", err.Error())
}

func TestGetValidationFields(t *testing.T) {
	t.Run("gets fields from validation error", func(t *testing.T) {
		fields := map[string]string{"field1": "error1"}
		err := &ValidationError{Message: "test", Fields: fields}

		assert.Equal(t, fields, GetValidationFields(err))
	})

	t.Run("returns nil for non-validation error", func(t *testing.T) {
		assert.Nil(t, GetValidationFields(assert.AnError))
		assert.False(t, IsValidationError(assert.AnError))
	})
}
