package opsdesk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
)

// ErrTransport marks failures that happened before a response was received
// (connection refused, DNS, TLS, reset, timeouts).
var ErrTransport = errors.New("transport failure")

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired       = errors.New("config is required")
	ErrAPIEndpointRequired  = errors.New("API endpoint is required")
	ErrCachedTypeMismatch   = errors.New("cached value has an unexpected type")
	ErrUnresolvedRoute      = errors.New("unresolved route placeholder")
	ErrEnvelopeMissingField = errors.New("envelope field missing")
	ErrInvalidPageMeta      = errors.New("invalid pagination meta")
	ErrSchemaRequired       = errors.New("schema is required")
)

// FieldError points a diagnostic at one field of a payload. Path uses json
// names joined by "." with "[i]" for list positions, e.g. "items[2].quantity".
type FieldError struct {
	Path    string `json:"field"   yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

// String renders "path: message".
func (e FieldError) String() string {
	if e.Path == "" {
		return e.Message
	}

	return e.Path + ": " + e.Message
}

// ValidationError is a schema failure carrying field-level diagnostics.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "validation failed: " + joinFields(e.Fields)
}

// Field returns the diagnostic for path, if any.
func (e *ValidationError) Field(path string) (FieldError, bool) {
	for _, f := range e.Fields {
		if f.Path == path {
			return f, true
		}
	}

	return FieldError{}, false
}

// DecodeStage names the step of response decoding that failed.
type DecodeStage string

const (
	// StageEnvelope means the body is not a {success, message, data} envelope.
	StageEnvelope DecodeStage = "envelope"

	// StageData means the envelope payload does not satisfy the response schema.
	StageData DecodeStage = "data"

	// StagePagination means the payload is not a {data, meta} page.
	StagePagination DecodeStage = "pagination"
)

// DecodeError reports a response that does not honor the client/backend contract.
type DecodeError struct {
	Stage  DecodeStage
	Fields []FieldError
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decoding %s", e.Stage)

	if len(e.Fields) > 0 {
		msg += ": " + joinFields(e.Fields)
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ResponseError is a non-2xx reply from the backend together with the
// message and field errors found in its body.
type ResponseError struct {
	StatusCode int
	Message    string
	Fields     []FieldError
	Body       []byte
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	if msg == "" {
		msg = "unknown error"
	}

	return fmt.Sprintf("%s (status: %d)", msg, e.StatusCode)
}

// errorBody is the envelope returned alongside non-2xx statuses.
type errorBody struct {
	Success     *bool           `json:"success"`
	Message     string          `json:"message"`
	Errors      json.RawMessage `json:"errors"`
	FieldErrors json.RawMessage `json:"fieldErrors"`
}

// ParseResponseError builds a ResponseError from a status code and raw body.
// Bodies that are not JSON keep a truncated copy of the text as the message.
func ParseResponseError(statusCode int, body []byte) *ResponseError {
	respErr := &ResponseError{
		StatusCode: statusCode,
		Body:       body,
	}

	var parsed errorBody

	err := json.Unmarshal(body, &parsed)
	if err != nil {
		text := strings.TrimSpace(string(body))
		if len(text) > constants.MaxErrorBodyLength {
			text = text[:constants.MaxErrorBodyLength]
		}

		respErr.Message = text

		return respErr
	}

	respErr.Message = parsed.Message
	respErr.Fields = append(parseFieldErrors(parsed.Errors), parseFieldErrors(parsed.FieldErrors)...)
	sortFields(respErr.Fields)

	return respErr
}

// parseFieldErrors accepts the shapes backends use for field errors:
// [{"field": "...", "message": "..."}], {"field": "message"} and
// {"field": ["message", ...]}.
func parseFieldErrors(raw json.RawMessage) []FieldError {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var list []struct {
		Field   string `json:"field"`
		Path    string `json:"path"`
		Message string `json:"message"`
	}

	if json.Unmarshal(raw, &list) == nil {
		fields := make([]FieldError, 0, len(list))
		for _, item := range list {
			path := item.Field
			if path == "" {
				path = item.Path
			}

			fields = append(fields, FieldError{Path: path, Message: item.Message})
		}

		return fields
	}

	var object map[string]json.RawMessage
	if json.Unmarshal(raw, &object) != nil {
		return nil
	}

	fields := make([]FieldError, 0, len(object))

	for path, value := range object {
		var single string
		if json.Unmarshal(value, &single) == nil {
			fields = append(fields, FieldError{Path: path, Message: single})

			continue
		}

		var many []string
		if json.Unmarshal(value, &many) == nil {
			for _, msg := range many {
				fields = append(fields, FieldError{Path: path, Message: msg})
			}
		}
	}

	return fields
}

// ErrorKind classifies a normalized error.
type ErrorKind int

const (
	// KindUnknown is anything that matches no other kind; the original error is kept.
	KindUnknown ErrorKind = iota

	// KindRequestValidation is a client-side body or route failure; nothing was sent.
	KindRequestValidation

	// KindDecode is a response that failed envelope or schema validation.
	KindDecode

	// KindTransport is a non-2xx response or a network failure.
	KindTransport
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindRequestValidation:
		return "request_validation"
	case KindDecode:
		return "decode"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is the single error shape every operation rejects with.
type Error struct {
	Kind       ErrorKind
	Op         string
	Message    string
	StatusCode int
	Fields     []FieldError
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}

	if len(e.Fields) > 0 && !strings.Contains(msg, e.Fields[0].String()) {
		msg += ": " + joinFields(e.Fields)
	}

	if e.Op == "" {
		return msg
	}

	return e.Op + ": " + msg
}

// Unwrap returns the original error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Normalize converts any failure into an *Error. nil stays nil, an *Error is
// returned as is, and unrecognized errors are wrapped as KindUnknown so that
// errors.Is and errors.As still reach them.
func Normalize(err error) error {
	if err == nil {
		return nil
	}

	var normalized *Error
	if errors.As(err, &normalized) {
		return normalized
	}

	// A DecodeError wraps the response schema's ValidationError, so it is
	// matched first.
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return &Error{
			Kind:    KindDecode,
			Message: decodeErr.Error(),
			Fields:  decodeErr.Fields,
			Err:     err,
		}
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return &Error{
			Kind:    KindRequestValidation,
			Message: "invalid request",
			Fields:  validationErr.Fields,
			Err:     err,
		}
	}

	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return &Error{
			Kind:       KindTransport,
			Message:    respErr.Error(),
			StatusCode: respErr.StatusCode,
			Fields:     respErr.Fields,
			Err:        err,
		}
	}

	if errors.Is(err, ErrTransport) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Kind:    KindTransport,
			Message: err.Error(),
			Err:     err,
		}
	}

	return &Error{
		Kind: KindUnknown,
		Err:  err,
	}
}

// NormalizeOp normalizes err and records the operation name on it.
func NormalizeOp(op string, err error) error {
	normalized := Normalize(err)
	if normalized == nil {
		return nil
	}

	var target *Error
	if errors.As(normalized, &target) && target.Op == "" {
		target.Op = op
	}

	return normalized
}

// KindOf returns the kind err normalizes to.
func KindOf(err error) ErrorKind {
	normalized := Normalize(err)
	if normalized == nil {
		return KindUnknown
	}

	var target *Error
	if errors.As(normalized, &target) {
		return target.Kind
	}

	return KindUnknown
}

// IsValidationError reports whether err was raised before any network call.
func IsValidationError(err error) bool {
	return err != nil && KindOf(err) == KindRequestValidation
}

// IsDecodeError reports whether err is a response contract violation.
func IsDecodeError(err error) bool {
	return err != nil && KindOf(err) == KindDecode
}

// IsTransportError reports whether err is a non-2xx response or a network failure.
func IsTransportError(err error) bool {
	return err != nil && KindOf(err) == KindTransport
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}

	var normalized *Error
	if errors.As(err, &normalized) {
		return normalized.StatusCode
	}

	return 0
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}

// FieldErrors returns the field-level diagnostics carried by err.
func FieldErrors(err error) []FieldError {
	normalized := Normalize(err)
	if normalized == nil {
		return nil
	}

	var target *Error
	if errors.As(normalized, &target) {
		return target.Fields
	}

	return nil
}

func joinFields(fields []FieldError) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.String())
	}

	return strings.Join(parts, "; ")
}

func sortFields(fields []FieldError) {
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Path < fields[j].Path
	})
}
