// api/schema_lint.go
package api

import (
	"mfgtrack/internal/domain"
	"mfgtrack/internal/dsl"
	"mfgtrack/internal/form"
	"mfgtrack/internal/reference"
)

// lintCatalog сверяет схемы форм со справочниками и коллекциями.
func lintCatalog(forms *dsl.Catalog, enums map[string]reference.EnumDirectory) []dsl.Issue {
	catalogs := make(map[string]bool, len(enums))
	for name := range enums {
		catalogs[name] = true
	}
	collections := make(map[string]bool)
	for _, c := range domain.Collections() {
		collections[c] = true
	}
	issues := forms.Lint(dsl.LintContext{KeyOf: form.KeyOf, Catalogs: catalogs, Collections: collections})
	if issues == nil {
		issues = []dsl.Issue{}
	}
	return issues
}
