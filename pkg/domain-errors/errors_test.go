package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	err := New(CodeCapExceeded, "purchase exceeds remaining capacity")
	assert.Equal(t, CodeCapExceeded, CodeOf(err))
	assert.True(t, Is(err, CodeCapExceeded))
	assert.False(t, Is(err, CodeUnauthorized))

	assert.Equal(t, Code(""), CodeOf(nil))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodePriceUnavailable, "oracle read failed")

	require.True(t, Is(err, CodePriceUnavailable))
	assert.ErrorIs(t, err, cause)

	// A second wrap reports the outermost code.
	outer := Wrap(fmt.Errorf("purchase: %w", err), CodeInternal, "purchase failed")
	assert.Equal(t, CodeInternal, CodeOf(outer))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, HTTPStatus(CodeUnauthorized))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeInvalidPhaseRange))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(CodeIndexOutOfRange))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(CodeNoActivePhase))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(CodeCapExceeded))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(CodePriceUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(CodeInternal))
}
