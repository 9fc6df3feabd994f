package changes

import (
	"encoding/json"

	"github.com/google/go-cmp/cmp"
)

// Normalize maps a raw value to its comparable form: nil, "", empty arrays
// and empty maps become nil, numbers become float64, nil map entries are
// dropped. Nested values are normalized recursively.
func Normalize(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		if typed == "" {
			return nil
		}
		return typed
	case bool:
		return typed
	case float64:
		return typed
	case float32:
		return float64(typed)
	case int:
		return float64(typed)
	case int8:
		return float64(typed)
	case int16:
		return float64(typed)
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case uint:
		return float64(typed)
	case uint8:
		return float64(typed)
	case uint16:
		return float64(typed)
	case uint32:
		return float64(typed)
	case uint64:
		return float64(typed)
	case json.Number:
		if f, err := typed.Float64(); err == nil {
			return f
		}
		return typed.String()
	case []any:
		return normalizeSlice(typed)
	case []string:
		items := make([]any, len(typed))
		for i, v := range typed {
			items[i] = v
		}
		return normalizeSlice(items)
	case []map[string]any:
		items := make([]any, len(typed))
		for i, v := range typed {
			items[i] = v
		}
		return normalizeSlice(items)
	case map[string]any:
		if len(typed) == 0 {
			return nil
		}
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			if n := Normalize(v); n != nil {
				out[k] = n
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return value
	}
}

func normalizeSlice(items []any) any {
	if len(items) == 0 {
		return nil
	}
	out := make([]any, len(items))
	for i, v := range items {
		out[i] = Normalize(v)
	}
	return out
}

// Equal compares two raw values after normalization. Maps compare
// independent of key order; arrays compare element by element.
func Equal(a, b any) bool {
	return cmp.Equal(Normalize(a), Normalize(b))
}
