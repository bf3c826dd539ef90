package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stringify даёт строковое представление значения для поиска по q; вложенное кодируется в JSON.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64, int, int64, bool:
		return fmt.Sprintf("%v", t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return strings.TrimSpace(fmt.Sprintf("%v", v))
		}
		return string(b)
	}
}
