package scholar

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
)

// ResponseSchema describes the JSON document a structured request expects.
type ResponseSchema struct {
	// Name identifies the schema (some providers require it).
	Name string
	// Description tells the model what the document represents.
	Description string
	// Schema is a JSON Schema object.
	Schema json.RawMessage
}

var reflector = &jsonschema.Reflector{
	Anonymous:                 true,
	DoNotReference:            true,
	ExpandedStruct:            true,
	AllowAdditionalProperties: false,
}

// SchemaFor derives a JSON Schema from T. Field names come from json tags and
// descriptions from jsonschema_description tags. Fields without omitempty are
// required.
func SchemaFor[T any]() (json.RawMessage, error) {
	s := reflector.Reflect(new(T))
	s.Version = ""
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return data, nil
}

// MustSchemaFor is like SchemaFor but panics on error.
func MustSchemaFor[T any]() json.RawMessage {
	s, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// SchemaViolation describes where a document departs from its schema.
type SchemaViolation struct {
	Path   string
	Reason string
}

func (v *SchemaViolation) Error() string {
	if v.Path == "" {
		return v.Reason
	}
	return v.Path + ": " + v.Reason
}

// ValidateJSON checks content against the required fields and JSON types
// declared by schema. Keywords other than type, properties, required and
// items are ignored.
func ValidateJSON(schema json.RawMessage, content string) error {
	if !gjson.Valid(content) {
		return &SchemaViolation{Reason: "invalid JSON"}
	}
	var node map[string]any
	if err := json.Unmarshal(schema, &node); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return validateNode(node, gjson.Parse(content), "")
}

func validateNode(node map[string]any, value gjson.Result, path string) error {
	typ, _ := node["type"].(string)
	if typ != "" && !matchesType(typ, value) {
		return &SchemaViolation{Path: path, Reason: fmt.Sprintf("expected %s, got %s", typ, describe(value))}
	}

	switch {
	case value.IsObject():
		props, _ := node["properties"].(map[string]any)
		if req, ok := node["required"].([]any); ok {
			for _, r := range req {
				name, _ := r.(string)
				if !value.Get(gjson.Escape(name)).Exists() {
					return &SchemaViolation{Path: join(path, name), Reason: "required field missing"}
				}
			}
		}
		for name, raw := range props {
			child, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			field := value.Get(gjson.Escape(name))
			if !field.Exists() {
				continue
			}
			if err := validateNode(child, field, join(path, name)); err != nil {
				return err
			}
		}
	case value.IsArray():
		items, ok := node["items"].(map[string]any)
		if !ok {
			return nil
		}
		for i, elem := range value.Array() {
			if err := validateNode(items, elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func matchesType(typ string, v gjson.Result) bool {
	switch typ {
	case "object":
		return v.IsObject()
	case "array":
		return v.IsArray()
	case "string":
		return v.Type == gjson.String
	case "number":
		return v.Type == gjson.Number
	case "integer":
		return v.Type == gjson.Number && v.Num == float64(int64(v.Num))
	case "boolean":
		return v.IsBool()
	case "null":
		return v.Type == gjson.Null
	default:
		return true
	}
}

func describe(v gjson.Result) string {
	switch {
	case v.IsObject():
		return "object"
	case v.IsArray():
		return "array"
	case v.IsBool():
		return "boolean"
	}
	switch v.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.Null:
		return "null"
	}
	return "unknown"
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
