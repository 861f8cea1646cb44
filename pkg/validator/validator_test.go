package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatInput struct {
	Author string `json:"author" validate:"max=5"`
	Text   string `json:"text" validate:"required"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Validate(chatInput{Author: "bob", Text: "hi"}))

	err := v.Validate(chatInput{Author: "bobbobbob"})
	require.Error(t, err)

	var ve ValidationErrors
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve, 2)
	assert.Equal(t, "author", ve[0].Field)
	assert.Equal(t, "MAX", ve[0].Code)
	assert.Equal(t, "text", ve[1].Field)
	assert.Equal(t, "text is required", ve[1].Message)
	assert.Contains(t, err.Error(), "text is required")
}

func TestVar(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Var("ABC", "required"))
	assert.Error(t, v.Var("", "required"))
}
