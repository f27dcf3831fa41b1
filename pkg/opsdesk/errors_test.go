package opsdesk_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

func TestParseResponseError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		message  string
		fields   []opsdesk.FieldError
		expected string
	}{
		{
			name:     "envelope with field list",
			status:   http.StatusUnprocessableEntity,
			body:     `{"success":false,"message":"Validation failed","errors":[{"field":"sku","message":"already taken"},{"path":"name","message":"is required"}]}`,
			message:  "Validation failed",
			fields:   []opsdesk.FieldError{{Path: "name", Message: "is required"}, {Path: "sku", Message: "already taken"}},
			expected: "Validation failed (status: 422)",
		},
		{
			name:    "field map with message lists",
			status:  http.StatusBadRequest,
			body:    `{"message":"Bad input","fieldErrors":{"capacity":["must be positive","must be a number"],"name":"too long"}}`,
			message: "Bad input",
			fields: []opsdesk.FieldError{
				{Path: "capacity", Message: "must be positive"},
				{Path: "capacity", Message: "must be a number"},
				{Path: "name", Message: "too long"},
			},
			expected: "Bad input (status: 400)",
		},
		{
			name:     "plain text body",
			status:   http.StatusBadGateway,
			body:     "  upstream unavailable \n",
			message:  "upstream unavailable",
			expected: "upstream unavailable (status: 502)",
		},
		{
			name:     "empty JSON falls back to status text",
			status:   http.StatusNotFound,
			body:     `{}`,
			expected: "Not Found (status: 404)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			respErr := opsdesk.ParseResponseError(tt.status, []byte(tt.body))

			assert.Equal(t, tt.status, respErr.StatusCode)
			assert.Equal(t, tt.message, respErr.Message)
			assert.Equal(t, tt.fields, respErr.Fields)
			assert.Equal(t, tt.expected, respErr.Error())
		})
	}
}

func TestParseResponseError_TruncatesLongText(t *testing.T) {
	t.Parallel()

	respErr := opsdesk.ParseResponseError(http.StatusInternalServerError, []byte(strings.Repeat("x", 2000)))

	assert.Len(t, respErr.Message, 512)
	assert.Len(t, respErr.Body, 2000, "the raw body is kept in full")
}

//nolint:funlen // Test functions can be longer for detailed testing
func TestNormalize(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("something odd")

	tests := []struct {
		name   string
		err    error
		kind   opsdesk.ErrorKind
		status int
		fields int
	}{
		{
			name:   "validation error",
			err:    &opsdesk.ValidationError{Fields: []opsdesk.FieldError{{Path: "name", Message: "cannot be blank"}}},
			kind:   opsdesk.KindRequestValidation,
			fields: 1,
		},
		{
			name:   "wrapped decode error",
			err:    fmt.Errorf("reading: %w", &opsdesk.DecodeError{Stage: opsdesk.StageData, Fields: []opsdesk.FieldError{{Path: "id", Message: "cannot be blank"}}}),
			kind:   opsdesk.KindDecode,
			fields: 1,
		},
		{
			name: "response schema failure",
			err: &opsdesk.DecodeError{
				Stage:  opsdesk.StageData,
				Fields: []opsdesk.FieldError{{Path: "name", Message: "cannot be blank"}},
				Err:    &opsdesk.ValidationError{Fields: []opsdesk.FieldError{{Path: "name", Message: "cannot be blank"}}},
			},
			kind:   opsdesk.KindDecode,
			fields: 1,
		},
		{
			name:   "response error",
			err:    opsdesk.ParseResponseError(http.StatusConflict, []byte(`{"message":"duplicate"}`)),
			kind:   opsdesk.KindTransport,
			status: http.StatusConflict,
		},
		{
			name: "network failure",
			err:  fmt.Errorf("%w: connection refused", opsdesk.ErrTransport),
			kind: opsdesk.KindTransport,
		},
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			kind: opsdesk.KindTransport,
		},
		{
			name: "anything else",
			err:  sentinel,
			kind: opsdesk.KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			normalized := opsdesk.Normalize(tt.err)

			var target *opsdesk.Error
			require.ErrorAs(t, normalized, &target)
			assert.Equal(t, tt.kind, target.Kind)
			assert.Equal(t, tt.status, opsdesk.StatusCode(normalized))
			assert.Len(t, opsdesk.FieldErrors(normalized), tt.fields)
			assert.ErrorIs(t, normalized, tt.err, "the original error stays reachable")
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	assert.NoError(t, opsdesk.Normalize(nil))

	first := opsdesk.NormalizeOp("GET /facilities/:id", opsdesk.ParseResponseError(http.StatusNotFound, nil))
	second := opsdesk.NormalizeOp("GET /other", fmt.Errorf("outer: %w", first))

	assert.Same(t, first, second)
	assert.Equal(t, "GET /facilities/:id: Not Found (status: 404)", second.Error())
}

func TestErrorPredicates(t *testing.T) {
	t.Parallel()

	notFound := fmt.Errorf("failed to get facility: %w", opsdesk.Normalize(opsdesk.ParseResponseError(http.StatusNotFound, nil)))
	unauthorized := opsdesk.ParseResponseError(http.StatusUnauthorized, nil)
	forbidden := opsdesk.ParseResponseError(http.StatusForbidden, nil)
	invalid := &opsdesk.ValidationError{}
	decode := &opsdesk.DecodeError{Stage: opsdesk.StageEnvelope}

	assert.True(t, opsdesk.IsNotFound(notFound))
	assert.True(t, opsdesk.IsTransportError(notFound))
	assert.True(t, opsdesk.IsUnauthorized(unauthorized))
	assert.True(t, opsdesk.IsForbidden(forbidden))
	assert.True(t, opsdesk.IsValidationError(invalid))
	assert.True(t, opsdesk.IsDecodeError(decode))

	assert.False(t, opsdesk.IsValidationError(nil))
	assert.False(t, opsdesk.IsNotFound(errors.New("plain")))
	assert.Equal(t, opsdesk.KindUnknown, opsdesk.KindOf(nil))
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	err := &opsdesk.Error{
		Kind:    opsdesk.KindRequestValidation,
		Op:      "POST /tickets",
		Message: "invalid request",
		Fields: []opsdesk.FieldError{
			{Path: "priority", Message: "cannot be blank"},
			{Path: "subject", Message: "the length must be between 1 and 200"},
		},
	}

	assert.Equal(t,
		"POST /tickets: invalid request: priority: cannot be blank; subject: the length must be between 1 and 200",
		err.Error())
	assert.Equal(t, "request_validation", err.Kind.String())
}

func TestValidationError_Field(t *testing.T) {
	t.Parallel()

	err := &opsdesk.ValidationError{Fields: []opsdesk.FieldError{{Path: "photos[0].content", Message: "cannot be blank"}}}

	field, ok := err.Field("photos[0].content")
	require.True(t, ok)
	assert.Equal(t, "photos[0].content: cannot be blank", field.String())

	_, ok = err.Field("title")
	assert.False(t, ok)

	assert.Equal(t, "no path", opsdesk.FieldError{Message: "no path"}.String())
}
