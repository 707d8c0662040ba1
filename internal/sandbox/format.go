package sandbox

import (
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// formatTop renders a value the way Python's str() would.
func formatTop(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return formatRepr(v)
}

// formatRepr renders a value the way Python's repr() would.
func formatRepr(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case *big.Int:
		return x.String()
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case string:
		return "'" + strings.ReplaceAll(x, "'", `\'`) + "'"
	case ndarray:
		return formatRepr([]any(x))
	case []any:
		parts := make([]string, len(x))
		for i, it := range x {
			parts[i] = formatRepr(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = formatRepr(k) + ": " + formatRepr(x[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return typeName(v)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
