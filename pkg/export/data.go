package export

import (
	"math"
	"reflect"
	"strings"
)

// HasMeaningfulData reports whether a collected value contains at least one
// meaningful leaf: a non-blank string, a finite number, or a boolean. Empty
// maps and slices are meaningless, as are containers whose every element is
// meaningless. Zero is a meaningful number.
func HasMeaningfulData(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case bool:
		return true
	case float64:
		return !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32:
		f := float64(t)
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case map[string]any:
		for _, value := range t {
			if HasMeaningfulData(value) {
				return true
			}
		}
		return false
	case []any:
		for _, elem := range t {
			if HasMeaningfulData(elem) {
				return true
			}
		}
		return false
	}
	return hasMeaningfulReflect(reflect.ValueOf(v))
}

// hasMeaningfulReflect handles typed containers (map[string]float64,
// []string, structs) that don't match the any-based fast paths.
func hasMeaningfulReflect(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return hasMeaningfulReflect(rv.Elem())
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			if HasMeaningfulData(iter.Value().Interface()) {
				return true
			}
		}
		return false
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if HasMeaningfulData(rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			field := rv.Field(i)
			if !field.CanInterface() {
				continue
			}
			if HasMeaningfulData(field.Interface()) {
				return true
			}
		}
		return false
	case reflect.String:
		return strings.TrimSpace(rv.String()) != ""
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	case reflect.Invalid:
		return false
	default:
		// Remaining kinds are numeric or boolean primitives.
		return true
	}
}
