package slotdb

import (
	"math"
	"reflect"
)

// FieldAccessor exposes the named scalar fields of a value for indexing.
type FieldAccessor interface {
	Field(name string) (any, bool)
}

// Doc is a schemaless record value.
type Doc map[string]any

func (d Doc) Field(name string) (any, bool) {
	v, ok := d[name]
	return v, ok
}

func defaultFields[T any](value T, field string) (any, bool) {
	switch v := any(value).(type) {
	case FieldAccessor:
		return v.Field(field)
	case map[string]any:
		f, ok := v[field]
		return f, ok
	default:
		return nil, false
	}
}

type scalarKind int

const (
	scalarAbsent scalarKind = iota
	scalarValue
	scalarComplex
)

// normalizeScalar maps a field value onto the key used in index buckets.
// Every numeric kind becomes float64, so 1, int64(1) and a decoded 1.0 match.
func normalizeScalar(v any) (any, scalarKind) {
	switch v := v.(type) {
	case nil:
		return nil, scalarAbsent
	case string:
		return v, scalarValue
	case bool:
		return v, scalarValue
	case float64:
		return floatScalar(v)
	case int:
		return float64(v), scalarValue
	case int64:
		return float64(v), scalarValue
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), scalarValue
	case reflect.Bool:
		return rv.Bool(), scalarValue
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), scalarValue
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), scalarValue
	case reflect.Float32, reflect.Float64:
		return floatScalar(rv.Float())
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return nil, scalarAbsent
		}
		return nil, scalarComplex
	default:
		return nil, scalarComplex
	}
}

// NaN never equals itself, so it could never be removed from a bucket.
func floatScalar(f float64) (any, scalarKind) {
	if math.IsNaN(f) {
		return nil, scalarComplex
	}
	return f, scalarValue
}

func isNil[T any](v T) bool {
	rv := reflect.ValueOf(any(v))
	switch rv.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
