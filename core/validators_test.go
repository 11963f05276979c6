package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateErrors(t *testing.T) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)

	type child struct {
		FirstName string `json:"first_name" validate:"required,notblank"`
	}
	type payload struct {
		Name     string  `json:"family_name" validate:"notblank"`
		Email    string  `json:"contact_email" validate:"required,email"`
		Children []child `json:"children" validate:"dive"`
	}

	err := validate.Struct(payload{Name: "  ", Children: []child{{FirstName: "Léa"}, {}}})
	var vErrs validator.ValidationErrors
	require.ErrorAs(t, err, &vErrs)

	fields := TranslateErrors(vErrs, translator)
	assert.Equal(t, map[string]string{
		"family_name":            notBlankText,
		"contact_email":          requiredText,
		"children[1].first_name": requiredText,
	}, fields)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(nil, FieldError{Field: "family_id", Error: "inconnue"})
	assert.Equal(t, "family_id: inconnue", err.Error())
}

func TestIsResolution(t *testing.T) {
	err := NewResolutionError("no school year configured")
	assert.True(t, IsResolution(err))
	assert.False(t, IsResolution(NewShutdownError("bye")))
}
