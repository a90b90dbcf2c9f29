package errors

import (
	// Go Internal Packages
	"fmt"
	"testing"

	// External Packages
	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	base := E(NotFound, "transaction abc not found", nil)
	wrapped := fmt.Errorf("load: %w", base)

	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.True(t, Is(NotFound, wrapped))
	assert.False(t, Is(Forbidden, wrapped))
	assert.Equal(t, Other, KindOf(fmt.Errorf("plain")))
	assert.False(t, Is(Other, nil))
}

func TestValidationErrs(t *testing.T) {
	ve := ValidationErrs()
	assert.NoError(t, ve.Err())

	ve.Add("min_amount", "must be greater than zero")
	ve.Add("max_amount", "must be greater than or equal to min_amount")
	err := ValidationFailedErr(ve.Err())

	assert.Equal(t, Invalid, KindOf(err))
	assert.Len(t, FieldsOf(err), 2)
	assert.Equal(t, "validation failed: min_amount must be greater than zero; max_amount must be greater than or equal to min_amount", err.Error())
}

func TestEmptyParamErr(t *testing.T) {
	err := EmptyParamErr("reason")
	assert.True(t, Is(Invalid, err))
	assert.Equal(t, []FieldError{{Field: "reason", Message: "cannot be empty"}}, FieldsOf(err))
}
