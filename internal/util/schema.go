package util

import (
	"fmt"
	"reflect"
	"strings"
)

// ValidationError describes a single parameter violation.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Kind    string `json:"kind"` // "required_parameter_missing" or "incorrect_type"
	Message string `json:"message"`
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// CreateSchema derives a minimal JSON schema from a Go struct via reflection.
// Exported fields become properties; non-pointer fields without omitempty are
// required. The description struct tag maps to the schema description.
func CreateSchema(structType any) map[string]any {
	t := reflect.TypeOf(structType)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}

	properties := make(map[string]any)
	required := make([]string, 0)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		fieldName := field.Name
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				fieldName = parts[0]
			}
		}

		fieldSchema := map[string]any{
			"type": jsonType(field.Type),
		}
		if description := field.Tag.Get("description"); description != "" {
			fieldSchema["description"] = description
		}
		properties[fieldName] = fieldSchema

		if !hasOmitEmpty(jsonTag) && field.Type.Kind() != reflect.Ptr {
			required = append(required, fieldName)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ValidateParameters checks params against a schema and returns the first
// violation found, or nil.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	issues := ValidateParametersAll(params, schema)
	if len(issues) == 0 {
		return nil
	}
	return issues[0]
}

// ValidateParametersAll checks params against a schema and returns every
// violation: each missing required parameter and each type mismatch, not just
// the first. Extra parameters not declared in the schema are allowed.
func ValidateParametersAll(params map[string]any, schema map[string]any) []*ValidationError {
	var issues []*ValidationError

	for _, fieldName := range requiredFields(schema) {
		if _, exists := params[fieldName]; !exists {
			issues = append(issues, &ValidationError{
				Field:   fieldName,
				Kind:    "required_parameter_missing",
				Message: fmt.Sprintf("required parameter '%s' is missing", fieldName),
			})
		}
	}

	properties, _ := schema["properties"].(map[string]any)
	for fieldName, value := range params {
		propSchema, exists := properties[fieldName]
		if !exists {
			continue
		}
		propMap, ok := propSchema.(map[string]any)
		if !ok {
			continue
		}
		expectedType, _ := propMap["type"].(string)
		if !MatchesSchemaType(value, expectedType) {
			issues = append(issues, &ValidationError{
				Field:   fieldName,
				Value:   value,
				Kind:    "incorrect_type",
				Message: fmt.Sprintf("expected type %s, got %T", expectedType, value),
			})
		}
	}

	return issues
}

// requiredFields reads the required list from a schema, tolerating both
// []string (hand-built schemas) and []any (JSON decoded schemas).
func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		fields := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				fields = append(fields, s)
			}
		}
		return fields
	default:
		return nil
	}
}

// jsonType maps a Go type to its JSON schema type name.
func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return jsonType(t.Elem())
	default:
		return "string"
	}
}

func hasOmitEmpty(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			return true
		}
	}
	return false
}

// MatchesSchemaType reports whether a runtime value satisfies the declared
// JSON schema type. nil satisfies every type; unknown types are assumed valid.
func MatchesSchemaType(value any, expectedType string) bool {
	if value == nil {
		return true
	}

	switch expectedType {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON decoding yields float64 for all numbers
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		if _, ok := value.([]any); ok {
			return true
		}
		return reflect.ValueOf(value).Kind() == reflect.Slice
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
