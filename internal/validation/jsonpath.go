package validation

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

var (
	jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// locateDecodeErrors re-reads a document that failed strict decoding and checks it
// against t, reporting every unknown field and type mismatch by its full JSON path
// ("abilities[0].damage"). It returns nil when the document is not valid JSON.
func locateDecodeErrors(data []byte, t reflect.Type) []FieldError {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil
	}

	var found []FieldError
	walkJSON(doc, t, "", &found)
	return found
}

func walkJSON(v any, t reflect.Type, path string, found *[]FieldError) {
	if v == nil {
		return
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	mismatch := func() {
		*found = append(*found, FieldError{
			Field:  path,
			Reason: fmt.Sprintf("expected %s, got %s", jsonKind(t), jsonValueKind(v)),
		})
	}

	ptr := reflect.PointerTo(t)
	if ptr.Implements(jsonUnmarshalerType) {
		return
	}
	if ptr.Implements(textUnmarshalerType) {
		if _, ok := v.(string); !ok {
			mismatch()
		}
		return
	}

	switch t.Kind() {
	case reflect.Struct:
		obj, ok := v.(map[string]any)
		if !ok {
			mismatch()
			return
		}
		fields := jsonFields(t)
		for _, key := range sortedKeys(obj) {
			ft, ok := lookupField(fields, key)
			if !ok {
				*found = append(*found, FieldError{Field: joinPath(path, key), Reason: "unknown field"})
				continue
			}
			walkJSON(obj[key], ft, joinPath(path, key), found)
		}
	case reflect.Map:
		obj, ok := v.(map[string]any)
		if !ok {
			mismatch()
			return
		}
		for _, key := range sortedKeys(obj) {
			walkJSON(obj[key], t.Elem(), joinPath(path, key), found)
		}
	case reflect.Slice, reflect.Array:
		if _, ok := v.(string); ok && t.Elem().Kind() == reflect.Uint8 {
			return
		}
		items, ok := v.([]any)
		if !ok {
			mismatch()
			return
		}
		for i, item := range items {
			walkJSON(item, t.Elem(), fmt.Sprintf("%s[%d]", path, i), found)
		}
	case reflect.String:
		if _, ok := v.(string); !ok {
			mismatch()
		}
	case reflect.Bool:
		if _, ok := v.(bool); !ok {
			mismatch()
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.(json.Number)
		if !ok {
			mismatch()
			return
		}
		if _, err := strconv.ParseInt(n.String(), 10, t.Bits()); err != nil {
			mismatch()
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := v.(json.Number)
		if !ok {
			mismatch()
			return
		}
		if _, err := strconv.ParseUint(n.String(), 10, t.Bits()); err != nil {
			mismatch()
		}
	case reflect.Float32, reflect.Float64:
		if _, ok := v.(json.Number); !ok {
			mismatch()
		}
	}
}

// jsonFields maps the JSON keys of struct t to their types. Fields of embedded
// structs are promoted unless an outer field claims the same key.
func jsonFields(t reflect.Type) map[string]reflect.Type {
	fields := make(map[string]reflect.Type)
	var embedded []reflect.Type

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")

		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				embedded = append(embedded, ft)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fields[name] = f.Type
	}

	for _, et := range embedded {
		for name, ft := range jsonFields(et) {
			if _, taken := fields[name]; !taken {
				fields[name] = ft
			}
		}
	}
	return fields
}

// lookupField matches keys the way encoding/json does: exact first, then case-insensitively
func lookupField(fields map[string]reflect.Type, key string) (reflect.Type, bool) {
	if ft, ok := fields[key]; ok {
		return ft, true
	}
	for name, ft := range fields {
		if strings.EqualFold(name, key) {
			return ft, true
		}
	}
	return nil, false
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func jsonValueKind(v any) string {
	switch v := v.(type) {
	case string:
		return "string"
	case json.Number:
		return "number " + v.String()
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
