package opsdesk_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

func ptr[T any](value T) *T {
	return &value
}

func fieldPaths(err error) []string {
	var paths []string
	for _, field := range opsdesk.FieldErrors(err) {
		paths = append(paths, field.Path)
	}

	return paths
}

func TestStructSchema_FacilityRequest(t *testing.T) {
	t.Parallel()

	schema := opsdesk.StructSchema[*opsdesk.FacilityRequest]()

	lat := 52.5

	require.NoError(t, schema.Validate(&opsdesk.FacilityRequest{
		Name:         "North depot",
		LocationName: "Harbour",
		Latitude:     &lat,
		Capacity:     40,
		Status:       opsdesk.FacilityStatusActive,
	}))

	tooFar := 200.0

	err := schema.Validate(&opsdesk.FacilityRequest{
		Longitude: &tooFar,
		Capacity:  -1,
		Status:    "demolished",
		Photo:     &opsdesk.File{Filename: "front.png"},
	})
	require.Error(t, err)

	var validationErr *opsdesk.ValidationError
	require.ErrorAs(t, err, &validationErr)

	assert.Equal(t,
		[]string{"capacity", "location_name", "longitude", "name", "photo.content", "status"},
		fieldPaths(err), "fields are sorted by path")
}

func TestStructSchema_NestedListPaths(t *testing.T) {
	t.Parallel()

	schema := opsdesk.StructSchema[opsdesk.HazardReportRequest]()

	err := schema.Validate(opsdesk.HazardReportRequest{
		Title:      "Loose cable",
		Severity:   opsdesk.SeverityLow,
		FacilityID: "f1",
		Photos: []opsdesk.File{
			{Filename: "a.jpg", Content: []byte("a")},
			{Content: []byte("b")},
		},
	})
	require.Error(t, err)

	validationErr := &opsdesk.ValidationError{}
	require.ErrorAs(t, err, &validationErr)

	field, ok := validationErr.Field("photos[1].filename")
	require.True(t, ok, "got %v", fieldPaths(err))
	assert.Equal(t, "cannot be blank", field.Message)
}

func TestStructSchema_ValuesWithoutRules(t *testing.T) {
	t.Parallel()

	assert.NoError(t, opsdesk.StructSchema[map[string]any]().Validate(map[string]any{"x": 1}))
	assert.NoError(t, opsdesk.StructSchema[string]().Validate("anything"))
}

func TestSchemaFunc(t *testing.T) {
	t.Parallel()

	schema := opsdesk.SchemaFunc[opsdesk.StockAdjustment](func(value opsdesk.StockAdjustment) error {
		if value.Delta == 0 {
			return &opsdesk.ValidationError{Fields: []opsdesk.FieldError{{Path: "delta", Message: "must not be zero"}}}
		}

		return nil
	})

	require.NoError(t, schema.Validate(opsdesk.StockAdjustment{Delta: -2}))
	assert.Equal(t, []string{"delta"}, fieldPaths(schema.Validate(opsdesk.StockAdjustment{})))
}

func TestToValidationError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, opsdesk.ToValidationError(nil))

	existing := &opsdesk.ValidationError{Fields: []opsdesk.FieldError{{Path: "a", Message: "b"}}}
	assert.Same(t, existing, opsdesk.ToValidationError(existing))

	converted := opsdesk.ToValidationError(errors.New("must be positive"))

	var validationErr *opsdesk.ValidationError
	require.ErrorAs(t, converted, &validationErr)
	assert.Equal(t, []opsdesk.FieldError{{Message: "must be positive"}}, validationErr.Fields)
}

func TestJoinPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix   string
		segment  string
		expected string
	}{
		{"", "name", "name"},
		{"photos", "0", "photos[0]"},
		{"photos[0]", "content", "photos[0].content"},
		{"items", "[2]", "items[2]"},
		{"user", "", "user"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, opsdesk.JoinPath(tt.prefix, tt.segment))
	}

	assert.Equal(t,
		[]opsdesk.FieldError{{Path: "data[1].id", Message: "x"}, {Path: "data[2]", Message: "y"}, {Path: "data", Message: "z"}},
		opsdesk.PrefixFields("data", []opsdesk.FieldError{{Path: "[1].id", Message: "x"}, {Path: "[2]", Message: "y"}, {Message: "z"}}))
}

func TestJSONSchema(t *testing.T) {
	t.Parallel()

	document := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"id", "quantity"},
		Properties: map[string]*jsonschema.Schema{
			"id":       {Type: "string"},
			"quantity": {Type: "integer", Minimum: ptr(0.0)},
		},
	}

	schema := opsdesk.JSONSchema[map[string]any](document)

	require.NoError(t, schema.Validate(map[string]any{"id": "i1", "quantity": 3}))

	err := schema.Validate(map[string]any{"id": "i1", "quantity": -3})
	require.Error(t, err)
	assert.True(t, opsdesk.IsValidationError(err))

	assert.Equal(t, []string{"quantity"}, fieldPaths(err))

	err = opsdesk.JSONSchema[map[string]any](nil).Validate(map[string]any{})
	require.ErrorIs(t, err, opsdesk.ErrSchemaRequired)
}

func TestJSONSchema_FieldPaths(t *testing.T) {
	t.Parallel()

	document := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name", "location_name"},
		Properties: map[string]*jsonschema.Schema{
			"name":          {Type: "string"},
			"location_name": {Type: "string"},
			"capacity":      {Type: "integer", Minimum: ptr(0.0)},
			"photos": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type:     "object",
					Required: []string{"filename"},
					Properties: map[string]*jsonschema.Schema{
						"filename": {Type: "string", MinLength: ptr(1)},
					},
				},
			},
		},
	}

	schema := opsdesk.JSONSchema[map[string]any](document)

	err := schema.Validate(map[string]any{
		"name":     "North depot",
		"capacity": -1,
		"photos":   []any{map[string]any{"filename": "a.jpg"}, map[string]any{"filename": ""}, map[string]any{}},
	})
	require.Error(t, err)

	assert.Equal(t,
		[]string{"capacity", "location_name", "photos[1].filename", "photos[2].filename"},
		fieldPaths(err))

	var validationErr *opsdesk.ValidationError
	require.ErrorAs(t, err, &validationErr)

	field, ok := validationErr.Field("location_name")
	require.True(t, ok)
	assert.Equal(t, "is required", field.Message)

	field, ok = validationErr.Field("capacity")
	require.True(t, ok)
	assert.NotContains(t, field.Message, "validating", "the library's schema prefix is dropped")
}

func TestJSONSchema_UnlocatedFailureKeepsMessage(t *testing.T) {
	t.Parallel()

	document := &jsonschema.Schema{Type: "object", MaxProperties: ptr(1)}

	err := opsdesk.JSONSchema[map[string]any](document).Validate(map[string]any{"a": 1, "b": 2})
	require.Error(t, err)

	fields := opsdesk.FieldErrors(err)
	require.Len(t, fields, 1)
	assert.Empty(t, fields[0].Path)
	assert.Contains(t, fields[0].Message, "maxProperties")
}

func TestJSONSchema_TypedValue(t *testing.T) {
	t.Parallel()

	document := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"clock_in"},
		Properties: map[string]*jsonschema.Schema{
			"employee_id": {Type: "string", MinLength: ptr(1)},
		},
	}

	schema := opsdesk.JSONSchema[opsdesk.AttendanceRecord](document)

	require.NoError(t, schema.Validate(opsdesk.AttendanceRecord{EmployeeID: "e1", ClockIn: time.Now()}))
	require.Error(t, schema.Validate(opsdesk.AttendanceRecord{}))
}
