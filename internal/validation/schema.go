package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Enum is implemented by enumerated string types; the "enum" tag calls IsValid.
type Enum interface {
	IsValid() bool
}

var (
	engine     *validator.Validate
	engineOnce sync.Once
)

// Engine returns the shared validator. Constraints are declared with `binding` struct
// tags, the same key gin uses, and field names are reported by their JSON names.
func Engine() *validator.Validate {
	engineOnce.Do(func() {
		v := validator.New()
		v.SetTagName("binding")
		v.RegisterTagNameFunc(jsonFieldName)
		if err := v.RegisterValidation("enum", validateEnum); err != nil {
			panic(err)
		}
		engine = v
	})
	return engine
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func validateEnum(fl validator.FieldLevel) bool {
	e, ok := fl.Field().Interface().(Enum)
	if !ok {
		return false
	}
	return e.IsValid()
}

// Bind decodes a JSON document into dst in strict mode and checks its declared
// field constraints. It returns a *SchemaError for shape problems and an error
// wrapping ErrMalformedBody when the body is not JSON at all.
func Bind(r io.Reader, dst any) error {
	if err := DecodeJSON(r, dst); err != nil {
		return err
	}
	return CheckStruct(dst)
}

// DecodeJSON decodes exactly one JSON document, rejecting unknown fields.
// Unknown fields and type mismatches are reported with their full JSON path.
func DecodeJSON(r io.Reader, dst any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return decodeError(err, data, reflect.TypeOf(dst))
	}

	var trailing json.RawMessage
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON document", ErrMalformedBody)
	}
	return nil
}

func decodeError(err error, data []byte, t reflect.Type) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.Is(err, io.EOF):
		return &SchemaError{Fields: []FieldError{{Reason: "request body is required"}}}
	case errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: unexpected end of JSON input", ErrMalformedBody)
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("%w: %s (offset %d)", ErrMalformedBody, syntaxErr.Error(), syntaxErr.Offset)
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			return &SchemaError{Fields: []FieldError{{Reason: fmt.Sprintf("expected a JSON %s", jsonKind(typeErr.Type))}}}
		}
		if located := locateDecodeErrors(data, t); len(located) > 0 {
			return &SchemaError{Fields: located}
		}
		return &SchemaError{Fields: []FieldError{{
			Field:  field,
			Reason: fmt.Sprintf("expected %s, got %s", jsonKind(typeErr.Type), typeErr.Value),
		}}}
	}

	if name, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		if located := locateDecodeErrors(data, t); len(located) > 0 {
			return &SchemaError{Fields: located}
		}
		return &SchemaError{Fields: []FieldError{{Field: strings.Trim(name, `"`), Reason: "unknown field"}}}
	}
	return &SchemaError{Fields: []FieldError{{Reason: err.Error()}}}
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	}
	return t.String()
}

// CheckStruct evaluates the `binding` constraints declared on v (recursively)
func CheckStruct(v any) error {
	err := Engine().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:  fieldPath(fe.Namespace()),
			Reason: describe(fe),
		})
	}
	return &SchemaError{Fields: fields}
}

// fieldPath turns a validator namespace such as
// "PokemonCardRequest.CardFields.abilities[0].damage" into "abilities[0].damage".
// Segments naming Go types (the root struct and embedded structs) are dropped.
func fieldPath(namespace string) string {
	segments := strings.Split(namespace, ".")
	kept := segments[:0]
	for i, seg := range segments {
		if i == 0 || seg == "" {
			continue
		}
		if r := []rune(seg)[0]; unicode.IsUpper(r) {
			continue
		}
		kept = append(kept, seg)
	}
	return strings.Join(kept, ".")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		case reflect.Slice, reflect.Map:
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "enum", "oneof":
		return fmt.Sprintf("%v is not an allowed value", fe.Value())
	case "uuid":
		return "must be a UUID"
	case "url":
		return "must be a URL"
	}
	return fmt.Sprintf("failed %q constraint", fe.Tag())
}
