package opsdesk

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/jsonschema-go/jsonschema"
)

// Schema validates a typed value. A failing value yields a *ValidationError.
type Schema[T any] interface {
	Validate(value T) error
}

// SchemaFunc adapts a plain function to Schema.
type SchemaFunc[T any] func(value T) error

// Validate calls f(value).
func (f SchemaFunc[T]) Validate(value T) error {
	return ToValidationError(f(value))
}

type structSchema[T any] struct{}

// StructSchema validates values with ozzo-validation. Types implementing
// validation.Validatable (directly, through a pointer, or as slice elements)
// have their rules applied; nested rule failures are reported with dotted
// json paths.
func StructSchema[T any]() Schema[T] {
	return structSchema[T]{}
}

func (structSchema[T]) Validate(value T) error {
	var target any = value

	if _, ok := target.(validation.Validatable); !ok {
		if _, ok := any(&value).(validation.Validatable); ok {
			target = &value
		}
	}

	return ToValidationError(validation.Validate(target))
}

// ToValidationError converts ozzo-validation failures into a *ValidationError.
// nil stays nil; internal rule errors are returned unchanged.
func ToValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}

	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}

	fields := []FieldError{}
	flattenValidation("", err, &fields)
	sortFields(fields)

	return &ValidationError{Fields: fields}
}

func flattenValidation(prefix string, err error, out *[]FieldError) {
	var nested validation.Errors
	if errors.As(err, &nested) {
		for key, fieldErr := range nested {
			if fieldErr == nil {
				continue
			}

			flattenValidation(JoinPath(prefix, key), fieldErr, out)
		}

		return
	}

	var inner *ValidationError
	if errors.As(err, &inner) {
		for _, f := range inner.Fields {
			*out = append(*out, FieldError{Path: JoinPath(prefix, f.Path), Message: f.Message})
		}

		return
	}

	*out = append(*out, FieldError{Path: prefix, Message: err.Error()})
}

// JoinPath appends a field name or list index to a dotted path.
// Numeric segments are rendered as "[i]".
func JoinPath(prefix, segment string) string {
	if segment == "" {
		return prefix
	}

	if _, err := strconv.Atoi(segment); err == nil {
		return prefix + "[" + segment + "]"
	}

	if prefix == "" || strings.HasPrefix(segment, "[") {
		return prefix + segment
	}

	return prefix + "." + segment
}

// PrefixFields returns a copy of fields with prefix joined in front of every path.
func PrefixFields(prefix string, fields []FieldError) []FieldError {
	out := make([]FieldError, 0, len(fields))

	for _, f := range fields {
		path := prefix
		if f.Path != "" {
			if strings.HasPrefix(f.Path, "[") {
				path += f.Path
			} else {
				path = JoinPath(prefix, f.Path)
			}
		}

		out = append(out, FieldError{Path: path, Message: f.Message})
	}

	return out
}

type jsonSchema[T any] struct {
	resolved *jsonschema.Resolved
	err      error
}

// JSONSchema validates the JSON form of values against a JSON Schema document.
// A schema that cannot be resolved makes every validation fail.
func JSONSchema[T any](schema *jsonschema.Schema) Schema[T] {
	if schema == nil {
		return jsonSchema[T]{err: ErrSchemaRequired}
	}

	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return jsonSchema[T]{err: fmt.Errorf("failed to resolve JSON schema: %w", err)}
	}

	return jsonSchema[T]{resolved: resolved}
}

func (s jsonSchema[T]) Validate(value T) error {
	if s.err != nil {
		return s.err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for validation: %w", err)
	}

	var instance any

	err = json.Unmarshal(raw, &instance)
	if err != nil {
		return fmt.Errorf("failed to unmarshal value for validation: %w", err)
	}

	err = s.resolved.Validate(instance)
	if err != nil {
		return &ValidationError{Fields: locateSchemaErrors(s.resolved.Schema(), instance, err)}
	}

	return nil
}

// locateSchemaErrors assigns paths to a failed validation. jsonschema-go
// reports one flat message, so the document is walked alongside the instance:
// missing required properties are reported by name and each failing leaf is
// revalidated against its own subschema. When the walk finds nothing the
// library's message is kept at the root.
func locateSchemaErrors(schema *jsonschema.Schema, instance any, cause error) []FieldError {
	fields := walkSchema(schema, instance, "")
	if len(fields) == 0 {
		return []FieldError{{Message: schemaMessage(cause)}}
	}

	sortFields(fields)

	return fields
}

func walkSchema(schema *jsonschema.Schema, instance any, path string) []FieldError {
	if schema == nil {
		return nil
	}

	switch value := instance.(type) {
	case map[string]any:
		var fields []FieldError

		for _, name := range schema.Required {
			if _, ok := value[name]; !ok {
				fields = append(fields, FieldError{Path: JoinPath(path, name), Message: "is required"})
			}
		}

		for name, property := range schema.Properties {
			child, ok := value[name]
			if !ok {
				continue
			}

			fields = append(fields, walkSchema(property, child, JoinPath(path, name))...)
		}

		return fields

	case []any:
		var fields []FieldError

		for i, item := range value {
			fields = append(fields, walkSchema(schema.Items, item, JoinPath(path, strconv.Itoa(i)))...)
		}

		return fields

	default:
		resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
		if err != nil {
			return nil
		}

		err = resolved.Validate(instance)
		if err != nil {
			return []FieldError{{Path: path, Message: schemaMessage(err)}}
		}

		return nil
	}
}

// schemaMessage drops the "validating <schema>: " prefixes jsonschema-go adds.
func schemaMessage(err error) string {
	msg := err.Error()

	for strings.HasPrefix(msg, "validating ") {
		_, rest, found := strings.Cut(msg, ": ")
		if !found {
			break
		}

		msg = rest
	}

	return msg
}

