package llm

import (
	"encoding/json"
	"strconv"
)

// stringifyArgs flattens model supplied arguments into the untyped string
// form consumed by tools. Objects and arrays are kept as JSON text.
func stringifyArgs(args map[string]any) map[string]string {
	out := make(map[string]string, len(args))
	for k, v := range args {
		switch x := v.(type) {
		case nil:
			continue
		case string:
			out[k] = x
		case float64:
			out[k] = strconv.FormatFloat(x, 'f', -1, 64)
		case float32:
			out[k] = strconv.FormatFloat(float64(x), 'f', -1, 32)
		case int:
			out[k] = strconv.Itoa(x)
		case int64:
			out[k] = strconv.FormatInt(x, 10)
		case bool:
			out[k] = strconv.FormatBool(x)
		default:
			raw, err := json.Marshal(x)
			if err != nil {
				continue
			}
			out[k] = string(raw)
		}
	}
	return out
}
