// pkg/util/json.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

///////////////////////////////////////////////////////////////////////////
// JSON

// UnmarshalJSON unmarshals the bytes into the given type but goes through
// some efforts to return useful error messages when the JSON is invalid.
func UnmarshalJSON[T any](b []byte, out *T) error {
	err := json.Unmarshal(b, out)
	if err == nil {
		return nil
	}

	decodeOffset := func(offset int64) (line, char int) {
		line, char = 1, 1
		for i := 0; i < int(offset) && i < len(b); i++ {
			if b[i] == '\n' {
				line++
				char = 1
			} else {
				char++
			}
		}
		return
	}

	var serr *json.SyntaxError
	var terr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &serr):
		line, char := decodeOffset(serr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %w", line, char, serr)

	case errors.As(err, &terr):
		line, char := decodeOffset(terr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %s value for %s.%s invalid for type %s",
			line, char, terr.Value, terr.Struct, terr.Field, terr.Type.String())

	default:
		return err
	}
}

///////////////////////////////////////////////////////////////////////////

// CheckJSON checks whether the provided JSON is syntactically valid and
// then typechecks it with respect to the provided type T. Unknown object
// keys are reported so that misspelled settings don't silently fall back
// to their defaults.
func CheckJSON[T any](contents []byte, e *ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	var items any
	if err := UnmarshalJSON(contents, &items); err != nil {
		e.Error(err)
		return
	}

	ty := reflect.TypeOf((*T)(nil)).Elem()
	typeCheckJSON(items, ty, e)
}

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

func typeCheckJSON(json any, ty reflect.Type, e *ErrorLogger) {
	for ty.Kind() == reflect.Ptr {
		ty = ty.Elem()
	}

	// Types that decode themselves from text (enums and the like) must be
	// given as strings.
	if reflect.PointerTo(ty).Implements(textUnmarshalerType) {
		if _, ok := json.(string); !ok {
			e.ErrorString("expected a string for %s, got %s", ty, describeJSON(json))
		}
		return
	}

	switch ty.Kind() {
	case reflect.Array, reflect.Slice:
		array, ok := json.([]any)
		if !ok {
			e.ErrorString("expected an array, got %s", describeJSON(json))
			return
		}
		if ty.Kind() == reflect.Array && len(array) > ty.Len() {
			e.ErrorString("too many entries: got %d, at most %d allowed", len(array), ty.Len())
		}
		for _, item := range array {
			typeCheckJSON(item, ty.Elem(), e)
		}

	case reflect.Map:
		if m, ok := json.(map[string]any); ok {
			for k, v := range m {
				e.Push(k)
				typeCheckJSON(v, ty.Elem(), e)
				e.Pop()
			}
		} else {
			e.ErrorString("expected an object, got %s", describeJSON(json))
		}

	case reflect.Struct:
		items, ok := json.(map[string]any)
		if !ok {
			e.ErrorString("expected an object, got %s", describeJSON(json))
			return
		}
		for _, item := range SortedMapKeys(items) {
			field, found := jsonField(ty, item)
			if !found {
				e.ErrorString("%s", "The entry \"" + item + "\" is not an expected JSON object. Is it misspelled?")
				continue
			}
			e.Push(item)
			typeCheckJSON(items[item], field.Type, e)
			e.Pop()
		}

	case reflect.Bool:
		if _, ok := json.(bool); !ok {
			e.ErrorString("expected a boolean, got %s", describeJSON(json))
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if _, ok := json.(float64); !ok {
			e.ErrorString("expected a number, got %s", describeJSON(json))
		}

	case reflect.String:
		if _, ok := json.(string); !ok {
			e.ErrorString("expected a string, got %s", describeJSON(json))
		}
	}
}

func jsonField(ty reflect.Type, name string) (reflect.StructField, bool) {
	for _, field := range reflect.VisibleFields(ty) {
		if j, ok := field.Tag.Lookup("json"); ok {
			if jf, _, _ := strings.Cut(j, ","); jf == name {
				return field, true
			}
		} else if field.IsExported() && strings.EqualFold(field.Name, name) {
			return field, true
		}
	}
	return reflect.StructField{}, false
}

func describeJSON(json any) string {
	switch json.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return reflect.TypeOf(json).String()
	}
}
