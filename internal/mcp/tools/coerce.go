package tools

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agenthub/agenthub-api/internal/domain"
)

// FieldType names the accepted parameter shapes.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt
	FieldBool
	FieldStringList
	FieldObject
)

// Field declares one accepted parameter.
type Field struct {
	Type        FieldType
	Required    bool
	Enum        []string
	Description string
}

// Schema declares a tool's accepted parameters. Callers are often
// non-strict, so Coerce applies the deterministic lenient rules before
// validation: numeric strings parse into integer fields, common boolean
// words into booleans, lone or comma-joined strings into arrays, and JSON
// strings into object fields. Unknown fields are rejected.
type Schema map[string]Field

// Coerce normalizes raw arguments against the schema and returns the
// coerced map. The input is not mutated.
func (s Schema) Coerce(raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(raw))

	for name, value := range raw {
		field, ok := s[name]
		if !ok {
			return nil, domain.Validationf("unknown field %q", name).
				WithDetail("allowed", s.fieldNames())
		}
		coerced, err := coerceValue(name, field, value)
		if err != nil {
			return nil, err
		}
		out[name] = coerced
	}

	for name, field := range s {
		if !field.Required {
			continue
		}
		if _, ok := out[name]; !ok {
			return nil, domain.MissingField(name)
		}
	}

	return out, nil
}

func (s Schema) fieldNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func coerceValue(name string, field Field, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch field.Type {
	case FieldString:
		s, ok := value.(string)
		if !ok {
			return nil, domain.Validationf("field %q must be a string", name)
		}
		if len(field.Enum) > 0 && !contains(field.Enum, s) {
			return nil, domain.Validationf("field %q must be one of the accepted values", name).
				WithDetail("field", name).WithDetail("accepted", field.Enum)
		}
		return s, nil

	case FieldInt:
		switch v := value.(type) {
		case float64:
			return int(v), nil
		case int:
			return v, nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, domain.Validationf("field %q must be an integer, got %q", name, v)
			}
			return n, nil
		default:
			return nil, domain.Validationf("field %q must be an integer", name)
		}

	case FieldBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "yes", "1":
				return true, nil
			case "false", "no", "0":
				return false, nil
			}
			return nil, domain.Validationf("field %q must be a boolean, got %q", name, v).
				WithDetail("accepted", []string{"true", "false", "yes", "no", "1", "0"})
		default:
			return nil, domain.Validationf("field %q must be a boolean", name)
		}

	case FieldStringList:
		switch v := value.(type) {
		case []any:
			out := make([]string, 0, len(v))
			for _, entry := range v {
				s, ok := entry.(string)
				if !ok {
					return nil, domain.Validationf("field %q must contain only strings", name)
				}
				out = append(out, strings.TrimSpace(s))
			}
			return out, nil
		case []string:
			return v, nil
		case string:
			// A lone string becomes a one-element array; a comma-joined
			// string is split with whitespace trimmed.
			if strings.TrimSpace(v) == "" {
				return []string{}, nil
			}
			parts := strings.Split(v, ",")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out, nil
		default:
			return nil, domain.Validationf("field %q must be an array of strings", name)
		}

	case FieldObject:
		switch v := value.(type) {
		case map[string]any:
			return v, nil
		case string:
			var parsed map[string]any
			if err := json.Unmarshal([]byte(v), &parsed); err != nil {
				return nil, domain.Validationf("field %q is not valid JSON: %v", name, err).
					WithDetail("field", name)
			}
			return parsed, nil
		default:
			return nil, domain.Validationf("field %q must be an object", name)
		}
	}

	return nil, domain.Internalf("unhandled field type for %q", name)
}

func contains(list []string, s string) bool {
	for _, entry := range list {
		if entry == s {
			return true
		}
	}
	return false
}

// JSONSchema renders the schema in the tools/list wire format.
func (s Schema) JSONSchema() map[string]any {
	properties := map[string]any{}
	required := []string{}
	for _, name := range s.fieldNames() {
		field := s[name]
		prop := map[string]any{"description": field.Description}
		switch field.Type {
		case FieldString:
			prop["type"] = "string"
			if len(field.Enum) > 0 {
				prop["enum"] = field.Enum
			}
		case FieldInt:
			prop["type"] = "integer"
		case FieldBool:
			prop["type"] = "boolean"
		case FieldStringList:
			prop["type"] = "array"
			prop["items"] = map[string]any{"type": "string"}
		case FieldObject:
			prop["type"] = "object"
		}
		properties[name] = prop
		if field.Required {
			required = append(required, name)
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

// actionError reports an unsupported action for a tool.
func actionError(tool, action string, accepted []string) *Response {
	return Fail(domain.CodeValidation,
		fmt.Sprintf("unsupported action %q for %s", action, tool),
		map[string]any{"accepted": accepted})
}
