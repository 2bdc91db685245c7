package forage

import (
	"reflect"
	"strconv"
	"strings"
)

// TagOf classifies a record value into its TypeTag variant. It covers
// everything the decoders produce: JSON values, typed CSV cells, and
// Parquet leaf values.
func TagOf(v any) TypeTag {
	switch v.(type) {
	case nil:
		return TagNull
	case bool:
		return TagBool
	case float64, float32, int, int32, int64:
		return TagNumber
	case string, []byte:
		return TagString
	case []any:
		return TagSequence
	case map[string]any:
		return TagMapping
	}

	// Decoder-specific wrapper types (json.Number and friends) land here.
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return TagSequence
	case reflect.Map:
		return TagMapping
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return TagNumber
	default:
		return TagString
	}
}

// inferValue types a raw CSV cell: integers, floats, and booleans are
// converted, everything else stays a string.
func inferValue(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(strings.ToLower(trimmed)); err == nil {
		return b
	}
	return s
}
