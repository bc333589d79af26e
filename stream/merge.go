package stream

import (
	"fmt"

	"github.com/hupe1980/actionweave/core"
)

// MergeDelta deep-merges src into dst: nil values are skipped, strings
// concatenate, maps merge recursively, lists append and numbers add. Any
// other combination fails with core.ErrUnsupportedDelta.
func MergeDelta(dst, src map[string]any) error {
	for k, v := range src {
		if v == nil {
			continue
		}

		existing, ok := dst[k]
		if !ok || existing == nil {
			c, err := cloneValue(v)
			if err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			dst[k] = c
			continue
		}

		merged, err := mergeValue(existing, v)
		if err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}

		dst[k] = merged
	}

	return nil
}

func mergeValue(existing, v any) (any, error) {
	switch e := existing.(type) {
	case string:
		if s, ok := v.(string); ok {
			return e + s, nil
		}
	case map[string]any:
		if m, ok := v.(map[string]any); ok {
			if err := MergeDelta(e, m); err != nil {
				return nil, err
			}
			return e, nil
		}
	case []any:
		if l, ok := asList(v); ok {
			c, err := cloneValue(l)
			if err != nil {
				return nil, err
			}
			return append(e, c.([]any)...), nil
		}
	case int:
		if n, ok := v.(int); ok {
			return e + n, nil
		}
		if f, ok := toFloat(v); ok {
			return float64(e) + f, nil
		}
	case int64:
		if n, ok := v.(int64); ok {
			return e + n, nil
		}
		if f, ok := toFloat(v); ok {
			return float64(e) + f, nil
		}
	case float64:
		if f, ok := toFloat(v); ok {
			return e + f, nil
		}
	}

	return nil, fmt.Errorf("%w: cannot merge %T into %T", core.ErrUnsupportedDelta, v, existing)
}

func cloneValue(v any) (any, error) {
	switch t := v.(type) {
	case string, int, int64, float64:
		return t, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		if err := MergeDelta(out, t); err != nil {
			return nil, err
		}
		return out, nil
	case []map[string]any, []any:
		l, _ := asList(t)
		out := make([]any, 0, len(l))
		for _, item := range l {
			if item == nil {
				out = append(out, nil)
				continue
			}
			c, err := cloneValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported value %T", core.ErrUnsupportedDelta, v)
	}
}

func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func toIndex(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
