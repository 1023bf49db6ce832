package jsonrpc11

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Set is an unordered collection of unique strings. The wire format has no
// set representation, so Set marshals to a JSON array of its elements. The
// element order is whatever map iteration yields; no stable order is
// guaranteed across runs.
type Set map[string]struct{}

// NewSet builds a Set from elems. Duplicates collapse.
func NewSet(elems ...string) Set {
	s := make(Set, len(elems))
	for _, e := range elems {
		s[e] = struct{}{}
	}
	return s
}

// MarshalJSON implements json.Marshaler.
func (s Set) MarshalJSON() ([]byte, error) {
	elems := make([]string, 0, len(s))
	for e := range s {
		elems = append(elems, e)
	}
	return json.Marshal(elems)
}

// normalizeParams rewrites the domain's set-like values into wire-friendly
// arrays before serialization. Any map whose value type is an empty struct is
// treated as a set and encoded as an array of its keys. Maps and sequences
// are walked recursively; everything else passes through to encoding/json
// untouched. A nil params slice encodes as [].
func normalizeParams(params []interface{}) []interface{} {
	out := make([]interface{}, len(params))
	for i, p := range params {
		out[i] = normalizeValue(p)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	// Set and anything else with its own marshaler encodes itself.
	if _, ok := v.(json.Marshaler); ok {
		return v
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if isSetLike(rv.Type()) {
			elems := make([]interface{}, 0, rv.Len())
			for _, k := range rv.MapKeys() {
				elems = append(elems, normalizeValue(k.Interface()))
			}
			return elems
		}
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[mapKey(iter.Key())] = normalizeValue(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		// []byte has its own JSON encoding.
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = normalizeValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return normalizeValue(rv.Elem().Interface())
	default:
		return v
	}
}

// isSetLike reports whether t is a map with empty-struct values, the
// conventional Go set shape.
func isSetLike(t reflect.Type) bool {
	return t.Kind() == reflect.Map &&
		t.Elem().Kind() == reflect.Struct &&
		t.Elem().NumField() == 0
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}
