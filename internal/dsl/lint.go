package dsl

import (
	"fmt"
	"strings"
)

type Issue struct {
	Form    string `json:"form"` // page/id
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// LintContext: внешние справочники, против которых сверяются схемы.
type LintContext struct {
	KeyOf       func(Field) string // как поле превращается в атрибут записи
	Catalogs    map[string]bool
	Collections map[string]bool
}

// Lint ищет противоречия в схемах, которые не мешают загрузке,
// но ломают сериализацию или предзаполнение.
func (c *Catalog) Lint(lc LintContext) []Issue {
	var issues []Issue

	for _, f := range c.ordered {
		name := f.Page + "/" + f.ID
		keys := make(map[string]string)

		for _, fl := range f.Fields {
			add := func(code, msg string) {
				issues = append(issues, Issue{Form: name, Field: fl.ID, Code: code, Message: msg})
			}

			switch fl.Type {
			case TypeSelect, TypeRadio:
				if len(fl.Options) == 0 && fl.Catalog == "" && fl.Source == "" {
					add("options_missing", "select/radio needs options, catalog or source")
				}
			case TypeComposition, TypeElements:
				if len(fl.Columns) < 3 {
					add("columns_missing", "table rows need at least 3 columns")
				}
			}

			if fl.Catalog != "" && lc.Catalogs != nil && !lc.Catalogs[fl.Catalog] {
				add("catalog_unknown", fmt.Sprintf("unknown catalog %q", fl.Catalog))
			}
			if fl.Source != "" && lc.Collections != nil && !lc.Collections[fl.Source] {
				add("source_unknown", fmt.Sprintf("unknown collection %q", fl.Source))
			}
			if fl.Required && fl.Type == TypeCheckbox {
				add("required_checkbox", "required has no effect on a checkbox")
			}

			// одинаковый ключ у двух полей: при заполнении одно затрёт другое
			if lc.KeyOf == nil || fl.IsTable() || fl.Type == TypeCheckbox {
				continue
			}
			k := strings.TrimSpace(lc.KeyOf(fl))
			if k == "" {
				add("key_empty", "field resolves to an empty attribute name")
				continue
			}
			if prev, dup := keys[k]; dup {
				add("key_duplicate", fmt.Sprintf("attribute %q is also written by field %q", k, prev))
				continue
			}
			keys[k] = fl.ID
		}
	}
	return issues
}
