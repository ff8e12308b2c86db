package apperr_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/oficina/internal/apperr"
)

func TestInvalid(t *testing.T) {
	err := apperr.Invalid("amount", "must be positive, got %d", -5)

	assert.EqualError(t, err, "amount: must be positive, got -5")
	assert.True(t, apperr.IsValidation(err))
	assert.True(t, apperr.IsValidation(fmt.Errorf("saving order: %w", err)))
	assert.False(t, apperr.IsValidation(apperr.ErrNotFound))
}

func TestValidationError_NoField(t *testing.T) {
	err := &apperr.ValidationError{Message: "duplicate order number"}
	assert.Equal(t, "duplicate order number", err.Error())
}
