package core

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Param is a single query parameter.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered list of query parameters.
//
// Order is preserved as given. Use ParamsFromMap when the source is an
// unordered mapping so that encoded query strings are reproducible.
type Params []Param

// ParamsFromMap converts a map into Params sorted by key.
func ParamsFromMap(values map[string]any) Params {
	if len(values) == 0 {
		return Params{}
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	params := make(Params, 0, len(keys))
	for _, key := range keys {
		params = append(params, Param{Key: key, Value: values[key]})
	}
	return params
}

// ParamsFromValues converts url.Values into Params sorted by key. Multiple
// values for one key are kept in their original order.
func ParamsFromValues(values url.Values) Params {
	if len(values) == 0 {
		return Params{}
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	params := make(Params, 0, len(keys))
	for _, key := range keys {
		for _, value := range values[key] {
			params = append(params, Param{Key: key, Value: value})
		}
	}
	return params
}

// Add appends a parameter and returns the extended list.
func (p Params) Add(key string, value any) Params {
	return append(p, Param{Key: key, Value: value})
}

// Get returns the first value stored under key.
func (p Params) Get(key string) (any, bool) {
	for _, param := range p {
		if param.Key == key {
			return param.Value, true
		}
	}
	return nil, false
}

// Merge returns a copy of p where every key present in overrides replaces all
// existing entries for that key. The override values take the position of the
// first existing entry; keys not yet present are appended in override order.
func (p Params) Merge(overrides Params) Params {
	byKey := make(map[string]Params, len(overrides))
	var order []string
	for _, override := range overrides {
		if _, seen := byKey[override.Key]; !seen {
			order = append(order, override.Key)
		}
		byKey[override.Key] = append(byKey[override.Key], override)
	}

	merged := make(Params, 0, len(p)+len(overrides))
	placed := make(map[string]bool, len(byKey))
	for _, param := range p {
		replacement, ok := byKey[param.Key]
		if !ok {
			merged = append(merged, param)
			continue
		}
		if !placed[param.Key] {
			merged = append(merged, replacement...)
			placed[param.Key] = true
		}
	}

	for _, key := range order {
		if !placed[key] {
			merged = append(merged, byKey[key]...)
		}
	}
	return merged
}

// Clone returns an independent copy.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	copy(out, p)
	return out
}

// FormatValue stringifies a parameter value for query encoding.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return formatFloat(v, 64)
	case float32:
		return formatFloat(float64(v), 32)
	case []string:
		return strings.Join(v, ",")
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// formatFloat writes the shortest representation, switching to exponent form
// below 1e-4 and from 1e16 on. Whole numbers carry no trailing ".0".
func formatFloat(v float64, bitSize int) string {
	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'g', -1, bitSize)
	}
	return strconv.FormatFloat(v, 'f', -1, bitSize)
}
