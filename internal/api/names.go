// api/names.go
package api

import (
	"strings"

	"mfgtrack/internal/domain"
)

// normalizeCollection возвращает каноническое имя коллекции: точное совпадение,
// иначе регистронезависимое ("OTKCHECKS" → "otkChecks").
func normalizeCollection(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", false
	}
	if domain.IsCollection(name) {
		return name, true
	}
	for _, c := range domain.Collections() {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}
