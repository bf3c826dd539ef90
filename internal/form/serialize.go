package form

import (
	"strings"

	"mfgtrack/internal/dsl"
	"mfgtrack/internal/store"
)

const (
	CompositionLabel = "Состав"
	TaskNameLabel    = "Название задания"
	TaskDeadline     = "Срок"
	TaskElementsID   = "chem-elements-list"

	defaultUnit   = "кг"
	initialStatus = "Создан"
)

// Serialize собирает запись из формы: плоский проход по полям в порядке схемы,
// затем строки состава. Пустые обязательные поля или пустая запись дают
// *MissingFieldsError, и тогда в хранилище ничего не пишется.
func Serialize(f *Form) (*store.Record, error) {
	rec := store.NewRecord()

	for _, row := range f.Rows {
		if row.Table != nil {
			continue
		}
		key := KeyOf(row.Field)
		if key == "" {
			continue
		}
		for _, c := range row.Controls {
			if c.Kind == dsl.TypeHidden && c.Value == "" {
				continue
			}
			v, ok := ExtractValue(c)
			if !ok {
				continue
			}
			if c.Kind != dsl.TypeCheckbox {
				rec.Set(key, v)
				continue
			}
			// флажки копятся в массив под общим ключом
			cur, _ := rec.Get(key)
			arr, isArr := cur.([]any)
			if !isArr {
				arr = []any{}
			}
			if c.Checked {
				val := c.Value
				if val == "" {
					val = "true"
				}
				arr = append(arr, val)
			}
			rec.Set(key, arr)
		}
	}

	missing := missingLabels(f)
	if rec.Len() == 0 || len(missing) > 0 {
		return nil, &MissingFieldsError{Labels: missing}
	}

	if row, ok := f.RowByLabel(CompositionLabel); ok && row.Table != nil {
		if comp := compositionLines(row.Table); len(comp) > 0 {
			rec.Set("composition", comp)
		}
	}
	return rec, nil
}

func missingLabels(f *Form) []string {
	var out []string
	for _, row := range f.Rows {
		blank := false
		for _, c := range row.Controls {
			if !c.Required || c.Kind == dsl.TypeCheckbox || c.Kind == dsl.TypeRadio {
				continue
			}
			if strings.TrimSpace(c.Value) == "" {
				blank = true
			}
		}
		if blank && row.Field.Label != "" {
			out = append(out, row.Field.Label)
		}
	}
	return out
}

// compositionLines разбирает строки таблицы состава по позициям: тип, название, количество.
func compositionLines(t *Table) []any {
	out := []any{}
	for _, cells := range t.Lines {
		if len(cells) < 3 {
			continue
		}
		typeCell := strings.TrimSpace(cells[0])
		name := strings.TrimSpace(cells[1])
		qty := parseFloatOr0(strings.TrimSpace(cells[2]))

		kind := "raw"
		if strings.Contains(typeCell, "Хим") || strings.Contains(strings.ToLower(typeCell), "chem") {
			kind = "chem"
		}
		if name == "" || qty <= 0 {
			continue
		}
		out = append(out, store.R("type", kind, "name", name, "quantity", qty, "unit", defaultUnit))
	}
	return out
}

// SerializeTask собирает задание химику. Читаются только строки "Название задания"
// и "Срок" плюс таблица элементов; статус всегда "Создан".
func SerializeTask(f *Form) (*store.Record, error) {
	rec := store.NewRecord()

	if row, ok := f.RowByLabel(TaskNameLabel); ok {
		if c := firstControl(row, dsl.TypeText); c != nil {
			if v := strings.TrimSpace(c.Value); v != "" {
				rec.Set("name", v)
				rec.Set("description", v)
			}
		}
	}
	if row, ok := f.RowByLabel(TaskDeadline); ok {
		if c := firstControl(row, dsl.TypeDate); c != nil && c.Value != "" {
			rec.Set("deadline", c.Value)
		}
	}

	elements := []any{}
	if row, ok := f.Row(TaskElementsID); ok && row.Table != nil {
		for _, cells := range row.Table.Lines {
			if len(cells) < 3 {
				continue
			}
			el := strings.TrimSpace(cells[0])
			qty := parseFloatOr0(strings.TrimSpace(cells[1]))
			unit := strings.TrimSpace(cells[2])
			if el != "" && qty > 0 && unit != "" {
				elements = append(elements, store.R("element", el, "quantity", qty, "unit", unit))
			}
		}
	}
	rec.Set("elements", elements)
	rec.Set("status", initialStatus)

	if !rec.Has("name") {
		return nil, &MissingFieldsError{Labels: []string{TaskNameLabel}, Message: "Введите название задания"}
	}
	if len(elements) == 0 {
		return nil, &MissingFieldsError{Message: "Добавьте хотя бы один химический элемент"}
	}
	return rec, nil
}

func firstControl(row *Row, kind string) *Control {
	for _, c := range row.Controls {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}
