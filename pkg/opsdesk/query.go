package opsdesk

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
)

// KeySeparator separates the logical name from the parameters in a canonical cache key.
const KeySeparator = "::"

var placeholderPattern = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)

// Params maps route placeholder names or query keys to scalar values.
//
// Values may be strings, booleans, integer and float kinds (including named
// types built on them), time.Time, fmt.Stringer implementations, pointers to
// any of these, or slices of them. nil, a nil pointer and the empty string are
// treated as absent.
type Params map[string]any

// Clone returns a shallow copy of the params.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}

	return out
}

// Merge returns a new Params with the given sources applied in order; later
// sources win on key collision.
func Merge(sources ...Params) Params {
	out := Params{}

	for _, src := range sources {
		for k, v := range src {
			out[k] = v
		}
	}

	return out
}

// Values serializes the params into url.Values, skipping absent values.
func (p Params) Values() url.Values {
	values := url.Values{}

	for key, value := range p {
		str, ok := FormatScalar(value)
		if !ok {
			continue
		}

		values.Set(key, str)
	}

	return values
}

// BuildURL substitutes route placeholders in template and appends the
// serialized query string.
//
// Every ":name" occurrence whose name has a present value in route is
// replaced with the path-escaped value. Placeholders without a value are left
// in place; use MissingPlaceholders to detect them. Query entries with absent
// values are skipped and "?" is only added when at least one entry survives.
func BuildURL(template string, route, query Params) string {
	path := placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		value, ok := FormatScalar(route[token[1:]])
		if !ok {
			return token
		}

		return url.PathEscape(value)
	})

	encoded := query.Values().Encode()
	if encoded == "" {
		return path
	}

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}

	return path + separator + encoded
}

// MissingPlaceholders lists the placeholders of template that route does not resolve.
func MissingPlaceholders(template string, route Params) []string {
	var missing []string

	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if _, ok := FormatScalar(route[match[1]]); !ok {
			missing = append(missing, match[1])
		}
	}

	return missing
}

// CacheKey identifies a cached read: a logical resource name plus the merged
// parameter set that scoped the request.
type CacheKey struct {
	Name   string
	Params Params
}

// DeriveKey builds the cache key of a read. Parameters are merged base, then
// route, then query, later sources winning on collision.
func DeriveKey(name string, base, route, query Params) CacheKey {
	return CacheKey{
		Name:   name,
		Params: Merge(base, route, query),
	}
}

// String renders the canonical form of the key. Parameters are sorted by name
// and stringified the same way BuildURL does, so structurally equal keys
// always render identically.
func (k CacheKey) String() string {
	encoded := k.Params.Values().Encode()
	if encoded == "" {
		return k.Name
	}

	return k.Name + KeySeparator + encoded
}

// Equal reports whether two keys identify the same cached entity.
func (k CacheKey) Equal(other CacheKey) bool {
	return k.String() == other.String()
}

// NamePrefix is the canonical prefix shared by every key of a logical name.
func NamePrefix(name string) string {
	return name + KeySeparator
}

// ListOptions carries the common list parameters of paginated reads.
type ListOptions struct {
	Page    int
	Limit   int
	Sort    string
	Search  string
	Filters map[string]string
}

// Params converts the options into query params. Zero page and limit are left
// out so the paginated read defaults apply.
func (o *ListOptions) Params() Params {
	params := Params{}
	if o == nil {
		return params
	}

	for key, value := range o.Filters {
		params[key] = value
	}

	if o.Page > 0 {
		params[constants.QueryParamPage] = o.Page
	}

	if o.Limit > 0 {
		params[constants.QueryParamLimit] = o.Limit
	}

	params[constants.QueryParamSort] = o.Sort
	params[constants.QueryParamSearch] = o.Search

	return params
}

// SortBy builds a "field:direction" sort string. The direction is passed
// through as given; the backend validates it.
func SortBy(field, direction string) string {
	return field + ":" + direction
}

// FormatScalar stringifies a param value. The boolean result is false when the
// value counts as absent.
func FormatScalar(value any) (string, bool) {
	if value == nil {
		return "", false
	}

	switch typed := value.(type) {
	case string:
		return typed, typed != ""
	case time.Time:
		if typed.IsZero() {
			return "", false
		}

		return typed.Format(time.RFC3339), true
	case fmt.Stringer:
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return "", false
		}

		str := typed.String()

		return str, str != ""
	}

	return formatReflected(reflect.ValueOf(value))
}

func formatReflected(rv reflect.Value) (string, bool) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "", false
		}

		return FormatScalar(rv.Elem().Interface())
	case reflect.String:
		str := rv.String()

		return str, str != ""
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, rv.Len())

		for i := range rv.Len() {
			if str, ok := FormatScalar(rv.Index(i).Interface()); ok {
				parts = append(parts, str)
			}
		}

		if len(parts) == 0 {
			return "", false
		}

		return strings.Join(parts, ","), true
	default:
		return fmt.Sprint(rv.Interface()), true
	}
}
