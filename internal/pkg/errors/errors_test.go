package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigError_IsFatal(t *testing.T) {
	err := NewConfigError("missing PATH_SOURCE_SIRENE")
	assert.True(t, err.Fatal)
	assert.Equal(t, CodeConfigError, err.Code)
}

func TestNewResolveError_IsNotFatal(t *testing.T) {
	err := NewResolveError("no match")
	assert.False(t, err.Fatal)
}

func TestAppError_Error(t *testing.T) {
	err := New("X", "something broke", false)
	assert.Equal(t, "X: something broke", err.Error())
}

func TestWrap(t *testing.T) {
	inner := errors.New("boom")
	wrapped := Wrap(CodeDownloadError, false, inner)
	assert.Equal(t, "boom", wrapped.Message)
	assert.False(t, wrapped.Fatal)
}
