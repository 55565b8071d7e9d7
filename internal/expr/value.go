package expr

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Keyer is implemented by Lookupers that can enumerate their names.
type Keyer interface {
	Keys() []string
}

// ToString coerces an evaluated value to the text inserted in the tree.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case fmt.Stringer:
		return x.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Truthy reports whether v selects a conditional branch. nil, false, "",
// numeric zero and NaN are falsy; everything else is truthy, including
// empty slices and maps.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if f, ok := ToFloat(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}

// ToFloat converts any Go numeric kind to float64.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case nil, string, bool:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// Field reads a named member of obj: a Lookuper name, a string-keyed map
// entry, a struct field (by name, json tag, or with the first letter
// upper-cased), or the length of a string, slice, array or map.
func Field(obj any, name string) (any, bool) {
	if obj == nil {
		return nil, false
	}
	if l, ok := obj.(Lookuper); ok {
		return l.Lookup(name)
	}
	if m, ok := obj.(map[string]any); ok {
		v, found := m[name]
		return v, found
	}
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			if v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key())); v.IsValid() {
				return v.Interface(), true
			}
		}
		if name == "length" {
			return rv.Len(), true
		}
	case reflect.Struct:
		if f, ok := structField(rv, name); ok {
			return f.Interface(), true
		}
	case reflect.String:
		if name == "length" {
			return utf8.RuneCountInString(rv.String()), true
		}
	case reflect.Slice, reflect.Array:
		if name == "length" {
			return rv.Len(), true
		}
	}
	return nil, false
}

// Index reads obj[key]: numeric keys index strings, slices and arrays, any
// other key is resolved as a member name.
func Index(obj any, key any) (any, bool) {
	if f, ok := ToFloat(key); ok {
		if f != math.Trunc(f) || obj == nil {
			return nil, false
		}
		i := int(f)
		rv := reflect.ValueOf(obj)
		for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
			if rv.IsNil() {
				return nil, false
			}
			rv = rv.Elem()
		}
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			if i < 0 || i >= rv.Len() {
				return nil, false
			}
			return rv.Index(i).Interface(), true
		case reflect.String:
			runes := []rune(rv.String())
			if i < 0 || i >= len(runes) {
				return nil, false
			}
			return string(runes[i]), true
		}
		return Field(obj, strconv.Itoa(i))
	}
	return Field(obj, ToString(key))
}

// Keys lists the member names of a map, struct or Keyer, sorted.
func Keys(obj any) []string {
	if k, ok := obj.(Keyer); ok {
		return k.Keys()
	}
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	var keys []string
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			if f := t.Field(i); f.IsExported() {
				keys = append(keys, fieldName(f))
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Name == name || fieldName(f) == name {
			return rv.Field(i), true
		}
	}
	if r, size := utf8.DecodeRuneInString(name); size > 0 && unicode.IsLower(r) {
		if f := rv.FieldByName(string(unicode.ToUpper(r)) + name[size:]); f.IsValid() {
			return f, true
		}
	}
	return reflect.Value{}, false
}

// fieldName is the json name of a struct field, or its lower-camel Go name.
func fieldName(f reflect.StructField) string {
	if tag, ok := f.Tag.Lookup("json"); ok {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	r, size := utf8.DecodeRuneInString(f.Name)
	return string(unicode.ToLower(r)) + f.Name[size:]
}

// Normalize converts v into a tree of plain values: map[string]any, []any,
// string, bool, int, float64, nil, and any function values untouched.
// Structs become maps keyed by their json or lower-camel field names.
func Normalize(v any) any {
	if v == nil {
		return nil
	}
	switch x := v.(type) {
	case string, bool, int, float64:
		return x
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u <= math.MaxInt64 {
			return int(u)
		}
		return float64(u)
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any(nil)
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[ToString(iter.Key().Interface())] = Normalize(iter.Value().Interface())
		}
		return out
	case reflect.Struct:
		out := make(map[string]any)
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			if f := t.Field(i); f.IsExported() {
				out[fieldName(f)] = Normalize(rv.Field(i).Interface())
			}
		}
		return out
	}
	return v
}
