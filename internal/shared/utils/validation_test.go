package utils

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saathi-inc/saathi/internal/shared/errors"
)

type kindRequest struct {
	Kind  string `json:"kind" binding:"required" validate:"required,oneof=interest contact_view image"`
	Limit int    `json:"limit" validate:"gte=0,lte=1000"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(kindRequest{Kind: "interest"}))

	err := ValidateStruct(kindRequest{Kind: "video", Limit: 5000})
	appErr := errors.GetAppError(err)
	if assert.NotNil(t, appErr) {
		assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
		assert.Contains(t, appErr.Details, "kind must be one of [interest contact_view image]")
		assert.Contains(t, appErr.Details, "limit must be less than or equal to 1000")
	}

	err = ValidateStruct(kindRequest{})
	assert.Contains(t, errors.GetAppError(err).Details, "kind is required")
}

func TestBindingError(t *testing.T) {
	assert.NoError(t, BindingError(nil))

	err := BindingError(io.EOF)
	assert.True(t, errors.IsValidationError(err))
	assert.Equal(t, "request body is required", errors.GetAppError(err).Message)

	var target map[string]any
	syntaxErr := json.Unmarshal([]byte("{"), &target)
	assert.Equal(t, "malformed JSON body", errors.GetAppError(BindingError(syntaxErr)).Message)

	var typed struct {
		PlanID uint `json:"plan_id"`
	}
	typeErr := json.Unmarshal([]byte(`{"plan_id":"gold"}`), &typed)
	assert.Equal(t, "plan_id has the wrong type", errors.GetAppError(BindingError(typeErr)).Message)
}
