package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// ErrUnsupportedMultipartBody is returned for bodies that are neither structs nor maps.
var ErrUnsupportedMultipartBody = errors.New("multipart body must be a struct or a map")

const defaultMIME = "application/octet-stream"

var (
	fileType     = reflect.TypeOf(opsdesk.File{})
	timeType     = reflect.TypeOf(time.Time{})
	rawJSONType  = reflect.TypeOf(json.RawMessage{})
	quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
)

// EncodeMultipart writes body as multipart/form-data. Struct fields are named
// by their json tag; opsdesk.File values become file parts, nested structs and
// maps are sent as JSON strings, and everything else as plain form values.
func EncodeMultipart(body interface{}) ([]byte, string, error) {
	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	value := reflect.ValueOf(body)
	for value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return nil, "", ErrUnsupportedMultipartBody
		}

		value = value.Elem()
	}

	var err error

	switch value.Kind() {
	case reflect.Struct:
		err = writeStruct(writer, value)
	case reflect.Map:
		err = writeMap(writer, value)
	default:
		err = fmt.Errorf("%w: got %s", ErrUnsupportedMultipartBody, value.Kind())
	}

	if err != nil {
		return nil, "", err
	}

	err = writer.Close()
	if err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

func writeStruct(writer *multipart.Writer, value reflect.Value) error {
	typ := value.Type()

	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		fieldValue := value.Field(i)
		name, omitEmpty, skip := jsonName(field)

		if skip {
			continue
		}

		if field.Anonymous && field.Type.Kind() == reflect.Struct && field.Tag.Get("json") == "" {
			err := writeStruct(writer, fieldValue)
			if err != nil {
				return err
			}

			continue
		}

		if omitEmpty && fieldValue.IsZero() {
			continue
		}

		err := writeValue(writer, name, fieldValue)
		if err != nil {
			return err
		}
	}

	return nil
}

func writeMap(writer *multipart.Writer, value reflect.Value) error {
	keys := make([]string, 0, value.Len())
	byName := make(map[string]reflect.Value, value.Len())

	iter := value.MapRange()
	for iter.Next() {
		name := fmt.Sprint(iter.Key().Interface())
		keys = append(keys, name)
		byName[name] = iter.Value()
	}

	sort.Strings(keys)

	for _, name := range keys {
		err := writeValue(writer, name, byName[name])
		if err != nil {
			return err
		}
	}

	return nil
}

func writeValue(writer *multipart.Writer, name string, value reflect.Value) error {
	for value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return nil
		}

		value = value.Elem()
	}

	switch {
	case value.Type() == fileType:
		file, _ := value.Interface().(opsdesk.File)

		return writeFile(writer, name, file)

	case value.Type() == timeType:
		str, ok := opsdesk.FormatScalar(value.Interface())
		if !ok {
			return nil
		}

		return writer.WriteField(name, str)

	case value.Type() == rawJSONType:
		return writer.WriteField(name, string(value.Bytes()))

	case value.Kind() == reflect.Slice || value.Kind() == reflect.Array:
		if value.Kind() == reflect.Slice && value.Type().Elem().Kind() == reflect.Uint8 {
			return writer.WriteField(name, string(value.Bytes()))
		}

		for i := range value.Len() {
			err := writeValue(writer, name, value.Index(i))
			if err != nil {
				return err
			}
		}

		return nil

	case value.Kind() == reflect.Struct || value.Kind() == reflect.Map:
		encoded, err := json.Marshal(value.Interface())
		if err != nil {
			return fmt.Errorf("encoding multipart field %s: %w", name, err)
		}

		return writer.WriteField(name, string(encoded))
	}

	str, ok := opsdesk.FormatScalar(value.Interface())
	if !ok {
		return nil
	}

	return writer.WriteField(name, str)
}

func writeFile(writer *multipart.Writer, name string, file opsdesk.File) error {
	contentType := file.ContentType
	if contentType == "" {
		contentType = defaultMIME
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(name), quoteEscaper.Replace(file.Filename)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating file part %s: %w", name, err)
	}

	_, err = part.Write(file.Content)
	if err != nil {
		return fmt.Errorf("writing file part %s: %w", name, err)
	}

	return nil
}

func jsonName(field reflect.StructField) (string, bool, bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}

	name, options, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}

	return name, strings.Contains(options, "omitempty"), false
}
