package form

import (
	"mfgtrack/internal/dsl"
	"mfgtrack/internal/store"
)

// Fill предзаполняет форму записью для редактирования, через тот же KeyOf,
// что и Serialize. Поля без атрибута в записи остаются как есть.
func Fill(f *Form, rec *store.Record) {
	f.ItemID = rec.ID()

	for _, row := range f.Rows {
		if row.Table != nil {
			fillTable(row, rec)
			continue
		}
		v, ok := rec.Get(KeyOf(row.Field))
		if !ok {
			continue
		}
		for _, c := range row.Controls {
			switch c.Kind {
			case dsl.TypeCheckbox:
				c.Checked = checkedBy(v, c.Value)
			case dsl.TypeRadio:
				c.Checked = scalarString(v) == c.Value
			default:
				c.Value = scalarString(v)
			}
		}
	}
}

func checkedBy(v any, value string) bool {
	switch t := v.(type) {
	case bool:
		return t
	case []any:
		for _, it := range t {
			s := scalarString(it)
			if s == value || (value == "" && s == "true") {
				return true
			}
		}
	case []string:
		for _, s := range t {
			if s == value {
				return true
			}
		}
	}
	return false
}

func fillTable(row *Row, rec *store.Record) {
	var (
		attr string
		cell func(*store.Record) []string
	)
	switch row.Field.Type {
	case dsl.TypeComposition:
		attr = "composition"
		cell = func(l *store.Record) []string {
			kind := "Сырьё"
			if l.Str("type") == "chem" {
				kind = "Химия"
			}
			return []string{kind, l.Str("name"), l.Str("quantity")}
		}
	case dsl.TypeElements:
		attr = "elements"
		cell = func(l *store.Record) []string {
			return []string{l.Str("element"), l.Str("quantity"), l.Str("unit")}
		}
	default:
		return
	}

	v, ok := rec.Get(attr)
	if !ok {
		return
	}
	items, _ := v.([]any)
	row.Table.Lines = [][]string{}
	for _, it := range items {
		if l, ok := it.(*store.Record); ok {
			row.Table.Lines = append(row.Table.Lines, cell(l))
		}
	}
}
