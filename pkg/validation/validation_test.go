package validation

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerIn struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func TestFormatValidationError(t *testing.T) {
	UseWireNames()
	err := binding.Validator.ValidateStruct(&registerIn{Email: "nope", Password: "123"})
	require.Error(t, err)

	assert.ElementsMatch(t, []string{
		"username is required",
		"email must be a valid email",
		"password must have minimum length 6",
	}, FormatValidationError(err))
}

func TestFormatValidationError_OtherErrors(t *testing.T) {
	assert.Empty(t, FormatValidationError(assert.AnError))
}
