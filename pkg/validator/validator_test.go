package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title   string `json:"title" validate:"required,min=3"`
	Credits int    `json:"credits" validate:"max=5"`
}

func TestValidateReportsJSONNames(t *testing.T) {
	err := New().Validate(&sample{Title: "ab", Credits: 9})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 2)
	assert.Equal(t, "title", verrs[0].Field())
	assert.Equal(t, "credits", verrs[1].Field())
}

func TestValidateAcceptsValidStruct(t *testing.T) {
	assert.NoError(t, New().Validate(sample{Title: "Chemistry", Credits: 3}))
}
