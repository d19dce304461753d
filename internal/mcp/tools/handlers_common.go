package tools

import (
	"time"

	"github.com/google/uuid"

	"github.com/agenthub/agenthub-api/internal/domain"
)

// Argument accessors for coerced parameter maps. Type shapes are already
// guaranteed by Coerce; these helpers handle presence and per-action
// requiredness plus identifier normalization.

func getString(args map[string]any, name string) (string, bool) {
	v, ok := args[name].(string)
	return v, ok && v != ""
}

func reqString(args map[string]any, name string) (string, error) {
	v, ok := getString(args, name)
	if !ok {
		return "", domain.MissingField(name)
	}
	return v, nil
}

func optStringPtr(args map[string]any, name string) *string {
	if v, ok := args[name].(string); ok {
		return &v
	}
	return nil
}

func getInt(args map[string]any, name string) (int, bool) {
	v, ok := args[name].(int)
	return v, ok
}

func optIntPtr(args map[string]any, name string) *int {
	if v, ok := args[name].(int); ok {
		return &v
	}
	return nil
}

func getBool(args map[string]any, name string) bool {
	v, _ := args[name].(bool)
	return v
}

func getStringList(args map[string]any, name string) ([]string, bool) {
	v, ok := args[name].([]string)
	return v, ok
}

func getObject(args map[string]any, name string) (map[string]any, bool) {
	v, ok := args[name].(map[string]any)
	return v, ok
}

// reqUUID normalizes a required identifier argument; invalid formats fail
// before storage is touched.
func reqUUID(args map[string]any, name string) (uuid.UUID, error) {
	raw, err := reqString(args, name)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := domain.NormalizeID(raw)
	if err != nil {
		return uuid.Nil, domain.InvalidFormat(name, raw)
	}
	return id, nil
}

// uuidList normalizes a list of identifiers.
func uuidList(values []string, field string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(values))
	for _, raw := range values {
		id, err := domain.NormalizeID(raw)
		if err != nil {
			return nil, domain.InvalidFormat(field, raw)
		}
		out = append(out, id)
	}
	return out, nil
}

// optDueDate parses an optional RFC3339 or date-only due date.
func optDueDate(args map[string]any, name string) (*time.Time, error) {
	raw, ok := getString(args, name)
	if !ok {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, domain.Validationf("field %q must be an RFC3339 timestamp or YYYY-MM-DD date", name).
		WithDetail("field", name)
}
