package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

var structValidate = validator.New()

// Validator validates data against a schema
type Validator interface {
	// Validate validates data against the schema
	// Returns an error if validation fails
	Validate(data interface{}) error

	// JSONSchema returns the JSON Schema representation of this validator
	// This is used when sending schemas to AI providers
	JSONSchema() map[string]interface{}
}

// Schema represents a validation schema
// Can be implemented as JSON Schema or Go struct-based schema
type Schema interface {
	// Validator returns the validator for this schema
	Validator() Validator
}

// JSONSchemaValidator validates using JSON Schema
type JSONSchemaValidator struct {
	schema   map[string]interface{}
	compiled *jsonschema.Schema
}

// NewJSONSchema creates a new JSON Schema validator. Compilation happens lazily
// on first Validate call so a malformed schema only surfaces as a validation error.
func NewJSONSchema(schema map[string]interface{}) *JSONSchemaValidator {
	return &JSONSchemaValidator{schema: schema}
}

// Validate validates data against the JSON Schema
func (v *JSONSchemaValidator) Validate(data interface{}) error {
	if v.compiled == nil {
		compiled, err := compileSchema(v.schema)
		if err != nil {
			return fmt.Errorf("schema: compile: %w", err)
		}
		v.compiled = compiled
	}

	// jsonschema validates decoded JSON values (map[string]interface{}, []interface{},
	// string, float64, bool, nil), so round-trip arbitrary Go values through JSON first.
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("schema: marshal data: %w", err)
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("schema: unmarshal data: %w", err)
	}

	if err := v.compiled.Validate(decoded); err != nil {
		return fmt.Errorf("schema: validation failed: %w", err)
	}
	return nil
}

func compileSchema(schema map[string]interface{}) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	const resourceURL = "mem://schema.json"
	if err := compiler.AddResource(resourceURL, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(resourceURL)
}

// JSONSchema returns the JSON Schema
func (v *JSONSchemaValidator) JSONSchema() map[string]interface{} {
	return v.schema
}

// StructValidator validates using Go struct tags
type StructValidator struct {
	targetType reflect.Type
}

// NewStructSchema creates a new struct-based schema validator
func NewStructSchema(targetType reflect.Type) *StructValidator {
	return &StructValidator{targetType: targetType}
}

// Validate validates data against the struct schema. data must be assignable
// to (or already be) v.targetType; it is validated using the "validate" struct
// tags go-playground/validator understands.
func (v *StructValidator) Validate(data interface{}) error {
	val := reflect.ValueOf(data)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if !val.IsValid() {
		return fmt.Errorf("schema: nil value for struct validation")
	}
	if val.Type() != v.targetType {
		return fmt.Errorf("schema: value of type %s does not match expected type %s", val.Type(), v.targetType)
	}
	if err := structValidate.Struct(val.Interface()); err != nil {
		return fmt.Errorf("schema: struct validation failed: %w", err)
	}
	return nil
}

// JSONSchema generates a minimal JSON Schema from the struct's fields and
// "json"/"validate" tags. It covers the common case (required fields via
// "required" in the validate tag); it does not attempt full tag translation.
func (v *StructValidator) JSONSchema() map[string]interface{} {
	properties := map[string]interface{}{}
	var required []string

	t := v.targetType
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		name := field.Name
		if jsonTag, ok := field.Tag.Lookup("json"); ok {
			parts := bytesSplitFirstComma(jsonTag)
			if parts == "-" {
				continue
			}
			if parts != "" {
				name = parts
			}
		}
		properties[name] = map[string]interface{}{"type": jsonSchemaTypeFor(field.Type)}
		if tag := field.Tag.Get("validate"); contains(tag, "required") {
			required = append(required, name)
		}
	}

	result := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		result["required"] = required
	}
	return result
}

func bytesSplitFirstComma(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			return s[:i]
		}
	}
	return s
}

func contains(tag, part string) bool {
	for _, p := range splitOnComma(tag) {
		if p == part {
			return true
		}
	}
	return false
}

func splitOnComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func jsonSchemaTypeFor(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct, reflect.Ptr:
		return "object"
	default:
		return "string"
	}
}

// SimpleJSONSchema is a simple implementation of Schema
type SimpleJSONSchema struct {
	validator *JSONSchemaValidator
}

// NewSimpleJSONSchema creates a simple JSON Schema
func NewSimpleJSONSchema(schema map[string]interface{}) *SimpleJSONSchema {
	return &SimpleJSONSchema{
		validator: NewJSONSchema(schema),
	}
}

// Validator returns the validator
func (s *SimpleJSONSchema) Validator() Validator {
	return s.validator
}

// SimpleStructSchema is a simple implementation of Schema using structs
type SimpleStructSchema struct {
	validator *StructValidator
}

// NewSimpleStructSchema creates a simple struct schema
func NewSimpleStructSchema(targetType reflect.Type) *SimpleStructSchema {
	return &SimpleStructSchema{
		validator: NewStructSchema(targetType),
	}
}

// Validator returns the validator
func (s *SimpleStructSchema) Validator() Validator {
	return s.validator
}
