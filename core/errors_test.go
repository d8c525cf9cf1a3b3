package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
	}{
		{BadRequest("bad"), http.StatusBadRequest},
		{InvalidReport("bad report"), http.StatusBadRequest},
		{AuthErr("denied"), http.StatusUnauthorized},
		{NotFound("gone"), http.StatusNotFound},
		{DbErr("broken", errors.New("io timeout")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.Status(), tc.err.Message)
	}
}

func TestAsAppErrorUnwrapsThroughWrapping(t *testing.T) {
	inner := NotFound("record not found")
	wrapped := fmt.Errorf("handler: %w", inner)

	ae := AsAppError(wrapped)
	assert.Equal(t, KindNotFound, ae.Kind)
	assert.Equal(t, "record not found", ae.Message)
}

func TestAsAppErrorTreatsUnknownErrorsAsInternal(t *testing.T) {
	cause := errors.New("connection refused")

	ae := AsAppError(cause)
	assert.Equal(t, KindDb, ae.Kind)
	assert.Equal(t, http.StatusInternalServerError, ae.Status())
	assert.ErrorIs(t, ae, cause)
}

func TestParseNumericID(t *testing.T) {
	id, err := parseNumericID(" 25 ")
	assert.NoError(t, err)
	assert.Equal(t, int64(25), id)

	for _, raw := range []string{"", "abc", "25abc", "1.5"} {
		_, err := parseNumericID(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseListParams(t *testing.T) {
	after, count, err := parseListParams("", "")
	assert.NoError(t, err)
	assert.Equal(t, 0, after)
	assert.Equal(t, 10, count)

	after, count, err = parseListParams("20", "5")
	assert.NoError(t, err)
	assert.Equal(t, 20, after)
	assert.Equal(t, 5, count)

	_, _, err = parseListParams("-1", "")
	assert.Error(t, err)
	_, _, err = parseListParams("", "0")
	assert.Error(t, err)
}
