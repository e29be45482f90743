package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserErrorKinds(t *testing.T) {
	cause := errors.New("disk full")
	cases := []struct {
		err  error
		kind error
		msg  string
	}{
		{Invalid("Amount cannot be negative"), ErrValidation, "Amount cannot be negative"},
		{NotFound("Category"), ErrNotFound, "Category not found"},
		{Conflict("A category with this name already exists"), ErrConflict, "A category with this name already exists"},
		{Unauthenticated(), ErrUnauthenticated, "Not authenticated"},
		{Failed("update allocation", cause), ErrInternal, "Failed to update allocation"},
		{fmt.Errorf("wrapped: %w", NotFound("Budget month")), ErrNotFound, "Budget month not found"},
	}
	for _, tc := range cases {
		assert.True(t, errors.Is(tc.err, tc.kind), tc.msg)
		assert.Equal(t, tc.kind, Kind(tc.err))
		assert.Equal(t, tc.msg, UserMessage(tc.err))
	}
	assert.True(t, errors.Is(Failed("x", cause), cause))
	assert.Equal(t, "Something went wrong", UserMessage(cause))
	assert.Equal(t, ErrInternal, Kind(cause))
}
