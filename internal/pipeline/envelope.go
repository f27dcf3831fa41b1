package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

var nullJSON = []byte("null")

// DecodeRaw checks that body is a {success, message, data} envelope and
// returns it with the payload left undecoded.
func DecodeRaw(body []byte) (*opsdesk.RawEnvelope, error) {
	var fields map[string]json.RawMessage

	err := json.Unmarshal(body, &fields)
	if err != nil || fields == nil {
		if err == nil {
			err = fmt.Errorf("%w: body is null", opsdesk.ErrEnvelopeMissingField)
		}

		return nil, &opsdesk.DecodeError{Stage: opsdesk.StageEnvelope, Err: err}
	}

	var (
		env     opsdesk.RawEnvelope
		invalid []opsdesk.FieldError
	)

	if !decodeField(fields, "success", &env.Success) {
		invalid = append(invalid, opsdesk.FieldError{Path: "success", Message: "must be a boolean"})
	}

	if !decodeField(fields, "message", &env.Message) {
		invalid = append(invalid, opsdesk.FieldError{Path: "message", Message: "must be a string"})
	}

	if len(invalid) > 0 {
		return nil, &opsdesk.DecodeError{
			Stage:  opsdesk.StageEnvelope,
			Fields: invalid,
			Err:    opsdesk.ErrEnvelopeMissingField,
		}
	}

	if data, ok := fields["data"]; ok && !bytes.Equal(data, nullJSON) {
		env.Data = data
	}

	return &env, nil
}

// Decode unwraps the envelope in body and decodes its payload into T. With a
// schema the payload is validated and every violation is reported with its
// field path; without one the payload is only decoded.
func Decode[T any](body []byte, schema opsdesk.Schema[T]) (T, error) {
	var zero T

	env, err := DecodeRaw(body)
	if err != nil {
		return zero, err
	}

	return decodeData(env.Data, schema, "")
}

// DecodePage unwraps the envelope in body and decodes its payload as a page of
// T. The payload must be {data: [], meta: {}} with a non-negative meta.total
// and both meta.lastPage and meta.firstPage present. Item failures are
// reported under "data[i]".
func DecodePage[T any](body []byte, itemSchema opsdesk.Schema[T]) (*opsdesk.Page[T], error) {
	env, err := DecodeRaw(body)
	if err != nil {
		return nil, err
	}

	var payload map[string]json.RawMessage
	if len(env.Data) == 0 || json.Unmarshal(env.Data, &payload) != nil || payload == nil {
		return nil, paginationError(opsdesk.FieldError{Path: "data", Message: "must be an object with data and meta"})
	}

	var items []json.RawMessage
	if !decodeField(payload, "data", &items) || items == nil {
		return nil, paginationError(opsdesk.FieldError{Path: "data.data", Message: "must be an array"})
	}

	meta, err := decodeMeta(payload["meta"])
	if err != nil {
		return nil, err
	}

	page := &opsdesk.Page[T]{
		Data: make([]T, 0, len(items)),
		Meta: meta,
	}

	var invalid []opsdesk.FieldError

	for i, raw := range items {
		item, itemErr := decodeData(raw, itemSchema, "data["+strconv.Itoa(i)+"]")
		if itemErr != nil {
			var decodeErr *opsdesk.DecodeError
			if errors.As(itemErr, &decodeErr) && len(decodeErr.Fields) > 0 {
				invalid = append(invalid, decodeErr.Fields...)

				continue
			}

			return nil, itemErr
		}

		page.Data = append(page.Data, item)
	}

	if len(invalid) > 0 {
		return nil, &opsdesk.DecodeError{Stage: opsdesk.StageData, Fields: invalid}
	}

	return page, nil
}

func decodeMeta(raw json.RawMessage) (opsdesk.PageMeta, error) {
	var meta opsdesk.PageMeta

	var fields map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &fields) != nil || fields == nil {
		return meta, paginationError(opsdesk.FieldError{Path: "meta", Message: "must be an object"})
	}

	var invalid []opsdesk.FieldError

	for _, name := range []string{"total", "lastPage", "firstPage"} {
		value, ok := fields[name]
		if !ok || bytes.Equal(value, nullJSON) {
			invalid = append(invalid, opsdesk.FieldError{Path: "meta." + name, Message: "is required"})
		}
	}

	if len(invalid) > 0 {
		return meta, paginationError(invalid...)
	}

	err := json.Unmarshal(raw, &meta)
	if err != nil {
		return meta, &opsdesk.DecodeError{
			Stage:  opsdesk.StagePagination,
			Fields: typeErrorFields("meta", err),
			Err:    err,
		}
	}

	if meta.Total < 0 {
		return meta, paginationError(opsdesk.FieldError{Path: "meta.total", Message: "must be no less than 0"})
	}

	return meta, nil
}

func decodeData[T any](raw json.RawMessage, schema opsdesk.Schema[T], prefix string) (T, error) {
	var value T

	if len(raw) > 0 {
		err := json.Unmarshal(raw, &value)
		if err != nil {
			var zero T

			return zero, &opsdesk.DecodeError{
				Stage:  opsdesk.StageData,
				Fields: typeErrorFields(prefix, err),
				Err:    err,
			}
		}
	}

	if schema == nil {
		return value, nil
	}

	err := schema.Validate(value)
	if err == nil {
		return value, nil
	}

	var zero T

	var validationErr *opsdesk.ValidationError
	if errors.As(err, &validationErr) {
		return zero, &opsdesk.DecodeError{
			Stage:  opsdesk.StageData,
			Fields: opsdesk.PrefixFields(prefix, validationErr.Fields),
			Err:    err,
		}
	}

	return zero, &opsdesk.DecodeError{Stage: opsdesk.StageData, Err: err}
}

// decodeField unmarshals fields[name] into target. It reports false when the
// field is absent, null or of the wrong JSON type.
func decodeField[T any](fields map[string]json.RawMessage, name string, target *T) bool {
	raw, ok := fields[name]
	if !ok || bytes.Equal(raw, nullJSON) {
		return false
	}

	return json.Unmarshal(raw, target) == nil
}

// typeErrorFields turns a JSON type mismatch into a field error at the
// offending path. Other decoding failures carry no field.
func typeErrorFields(prefix string, err error) []opsdesk.FieldError {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return nil
	}

	return opsdesk.PrefixFields(prefix, []opsdesk.FieldError{{
		Path:    typeErr.Field,
		Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
	}})
}

func paginationError(fields ...opsdesk.FieldError) error {
	return &opsdesk.DecodeError{
		Stage:  opsdesk.StagePagination,
		Fields: fields,
		Err:    opsdesk.ErrInvalidPageMeta,
	}
}
