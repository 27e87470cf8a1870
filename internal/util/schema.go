package util

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// ValidationError describes the first argument that does not match a tool
// schema.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

var kindTypes = map[reflect.Kind]string{
	reflect.String:  "string",
	reflect.Bool:    "boolean",
	reflect.Float32: "number",
	reflect.Float64: "number",
	reflect.Slice:   "array",
	reflect.Array:   "array",
	reflect.Map:     "object",
	reflect.Struct:  "object",
	reflect.Int:     "integer",
	reflect.Int8:    "integer",
	reflect.Int16:   "integer",
	reflect.Int32:   "integer",
	reflect.Int64:   "integer",
	reflect.Uint:    "integer",
	reflect.Uint8:   "integer",
	reflect.Uint16:  "integer",
	reflect.Uint32:  "integer",
	reflect.Uint64:  "integer",
}

// CreateSchema derives an object schema from the exported fields of a struct
// (or pointer to struct). Field names follow the json tag and the
// "description" tag is copied over. A field is required unless it is a
// pointer or tagged omitempty.
func CreateSchema(structType any) map[string]any {
	props := map[string]any{}
	schema := map[string]any{"type": "object", "properties": props}

	t := reflect.TypeOf(structType)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return schema
	}

	var required []string
	for _, f := range reflect.VisibleFields(t) {
		name, optional, ok := fieldName(f)
		if !ok {
			continue
		}

		prop := map[string]any{"type": jsonType(f.Type)}
		if d := f.Tag.Get("description"); d != "" {
			prop["description"] = d
		}
		props[name] = prop

		if !optional && f.Type.Kind() != reflect.Pointer {
			required = append(required, name)
		}
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// fieldName resolves the schema name of f. ok is false for unexported,
// embedded and json:"-" fields.
func fieldName(f reflect.StructField) (name string, omitempty bool, ok bool) {
	if !f.IsExported() || f.Anonymous {
		return "", false, false
	}

	tag, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
	if tag == "-" && opts == "" {
		return "", false, false
	}

	name = f.Name
	if tag != "" {
		name = tag
	}

	for opt := range strings.SplitSeq(opts, ",") {
		if strings.TrimSpace(opt) == "omitempty" {
			omitempty = true
		}
	}

	return name, omitempty, true
}

func jsonType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if s, ok := kindTypes[t.Kind()]; ok {
		return s
	}
	return "string"
}

// ValidateParameters checks params against the required list, the property
// types and any string enums of schema. Properties the schema does not
// declare are accepted.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	for _, name := range stringList(schema["required"]) {
		if _, ok := params[name]; !ok {
			return &ValidationError{Field: name, Message: "required field is missing"}
		}
	}

	props, _ := schema["properties"].(map[string]any)

	for name, value := range params {
		prop, ok := props[name].(map[string]any)
		if !ok || value == nil {
			continue
		}

		want, _ := prop["type"].(string)
		if !matchesType(value, want) {
			return &ValidationError{
				Field:   name,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %T", want, value),
			}
		}

		if enum := stringList(prop["enum"]); len(enum) > 0 {
			if s, ok := value.(string); !ok || !slices.Contains(enum, s) {
				return &ValidationError{
					Field:   name,
					Value:   value,
					Message: fmt.Sprintf("value must be one of %v", enum),
				}
			}
		}
	}

	return nil
}

// stringList accepts both Go literal ([]string) and JSON decoded ([]any)
// schemas.
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func matchesType(value any, want string) bool {
	rv := reflect.ValueOf(value)

	switch want {
	case "string":
		return rv.Kind() == reflect.String
	case "boolean":
		return rv.Kind() == reflect.Bool
	case "integer":
		if rv.CanFloat() {
			f := rv.Float()
			return f == float64(int64(f))
		}
		return rv.CanInt() || rv.CanUint()
	case "number":
		return rv.CanFloat() || rv.CanInt() || rv.CanUint()
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	}

	return true
}
