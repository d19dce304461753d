package domain

// MergeData merges child data onto a parent map with the hierarchy's
// inheritance semantics: objects merge by key recursively, arrays are
// replaced wholesale, an explicit null in the child removes the key.
// Neither input is mutated.
func MergeData(parent, child map[string]any) map[string]any {
	out := make(map[string]any, len(parent)+len(child))
	for k, v := range parent {
		out[k] = copyValue(v)
	}
	for k, v := range child {
		if v == nil {
			delete(out, k)
			continue
		}
		childMap, childIsMap := v.(map[string]any)
		parentMap, parentIsMap := out[k].(map[string]any)
		if childIsMap && parentIsMap {
			out[k] = MergeData(parentMap, childMap)
			continue
		}
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = copyValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = copyValue(inner)
		}
		return out
	default:
		return v
	}
}

// FoldContexts fold-merges an ancestor chain ordered global-first down to
// the target, recording which tier supplied each top-level key.
func FoldContexts(chain []ContextRow) (map[string]any, map[string]ContextLevel) {
	data := map[string]any{}
	provenance := map[string]ContextLevel{}
	for _, row := range chain {
		before := data
		data = MergeData(data, row.Data)
		for k := range row.Data {
			if row.Data[k] == nil {
				delete(provenance, k)
				continue
			}
			provenance[k] = row.Level
		}
		// Keys removed by a null in this tier are gone from data as well.
		for k := range before {
			if _, ok := data[k]; !ok {
				delete(provenance, k)
			}
		}
	}
	return data, provenance
}
