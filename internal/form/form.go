// Package form описывает модель заполняемой формы и её преобразование в запись хранилища.
//
// Форма строится по схеме dsl.Form. Каждая строка (Row) содержит подпись и элементы
// управления либо подтаблица позиций. Коллабораторы (UI, HTTP) выставляют
// значения через Set/Check/AddLine, ядро читает их через Serialize.
package form

import (
	"errors"
	"fmt"
	"strings"

	"mfgtrack/internal/dsl"
	"mfgtrack/internal/reference"
)

var (
	ErrUnknownField = errors.New("form: unknown field")
	ErrNotATable    = errors.New("form: field is not a table")
)

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Control описывает один элемент ввода. Для checkbox/radio Value хранит значение
// варианта, а Checked показывает, отмечен ли он.
type Control struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Value    string   `json:"value"`
	Checked  bool     `json:"checked,omitempty"`
	Required bool     `json:"required,omitempty"`
	Options  []Option `json:"options,omitempty"`
}

type Table struct {
	ID      string       `json:"id"`
	Columns []dsl.Column `json:"columns"`
	Lines   [][]string   `json:"lines"`
}

type Row struct {
	Field    dsl.Field  `json:"field"`
	Controls []*Control `json:"controls,omitempty"`
	Table    *Table     `json:"table,omitempty"`
}

func (r *Row) Label() string { return r.Field.Label }

// Form это экземпляр формы. ItemID хранит id редактируемой записи,
// Context содержит данные, переданные модалке (batchId, orderId).
type Form struct {
	ID      string            `json:"id"`
	Page    string            `json:"page"`
	Title   string            `json:"title"`
	ItemID  string            `json:"itemId,omitempty"`
	Context map[string]string `json:"context,omitempty"`
	Rows    []*Row            `json:"rows"`

	schema *dsl.Form
	enums  map[string]reference.EnumDirectory
}

// New строит пустую форму по схеме; опции select из справочников подставляются сразу.
// id: фактический id модалки (может быть алиасом схемы).
func New(schema *dsl.Form, id string, enums map[string]reference.EnumDirectory) *Form {
	if id == "" {
		id = schema.ID
	}
	f := &Form{
		ID:     id,
		Page:   schema.Page,
		Title:  schema.Title,
		schema: schema,
		enums:  enums,
	}
	f.build()
	return f
}

func (f *Form) Schema() *dsl.Form { return f.schema }

func (f *Form) build() {
	f.Rows = make([]*Row, 0, len(f.schema.Fields))
	for _, fl := range f.schema.Fields {
		row := &Row{Field: fl}
		switch {
		case fl.IsTable():
			row.Table = &Table{ID: fl.ID, Columns: fl.Columns, Lines: [][]string{}}
		case fl.Type == dsl.TypeCheckbox && len(fl.Options) > 0:
			for i, opt := range fl.Options {
				row.Controls = append(row.Controls, &Control{
					ID: fmt.Sprintf("%s-%d", fl.ID, i), Kind: fl.Type, Value: opt, Required: fl.Required,
				})
			}
		case fl.Type == dsl.TypeRadio:
			for i, opt := range fl.Options {
				row.Controls = append(row.Controls, &Control{
					ID: fmt.Sprintf("%s-%d", fl.ID, i), Kind: fl.Type, Value: opt,
					Checked: opt == fl.Value, Required: fl.Required,
				})
			}
		default:
			c := &Control{ID: fl.ID, Kind: fl.Type, Value: fl.Value, Required: fl.Required}
			if fl.Type == dsl.TypeSelect {
				c.Options = f.staticOptions(fl)
			}
			row.Controls = []*Control{c}
		}
		f.Rows = append(f.Rows, row)
	}
}

func (f *Form) staticOptions(fl dsl.Field) []Option {
	var out []Option
	for _, o := range fl.Options {
		out = append(out, Option{Value: o, Label: o})
	}
	if dir, ok := f.enums[fl.Catalog]; ok && fl.Catalog != "" {
		for _, it := range dir.Items {
			out = append(out, Option{Value: it.Code, Label: it.Name})
		}
	}
	return out
}

// Reset возвращает форму в исходное состояние: значения по умолчанию,
// пустые таблицы, без ItemID и контекста.
func (f *Form) Reset() {
	f.ItemID = ""
	f.Context = nil
	f.build()
}

func (f *Form) Row(fieldID string) (*Row, bool) {
	for _, r := range f.Rows {
		if r.Field.ID == fieldID {
			return r, true
		}
	}
	return nil, false
}

// RowByLabel ищет строку по точному тексту подписи.
func (f *Form) RowByLabel(label string) (*Row, bool) {
	for _, r := range f.Rows {
		if r.Field.Label == label {
			return r, true
		}
	}
	return nil, false
}

// Set задаёт значение поля. Для radio отмечает вариант с этим значением.
func (f *Form) Set(fieldID, value string) error {
	r, ok := f.Row(fieldID)
	if !ok || r.Table != nil {
		return fmt.Errorf("%w: %s", ErrUnknownField, fieldID)
	}
	if r.Field.Type == dsl.TypeRadio {
		for _, c := range r.Controls {
			c.Checked = c.Value == value
		}
		return nil
	}
	if r.Field.Type == dsl.TypeCheckbox {
		return f.checkOnly(r, []string{value})
	}
	r.Controls[0].Value = value
	return nil
}

// Check отмечает/снимает вариант checkbox. Для одиночного флажка value можно не указывать.
func (f *Form) Check(fieldID, value string, on bool) error {
	r, ok := f.Row(fieldID)
	if !ok || r.Field.Type != dsl.TypeCheckbox {
		return fmt.Errorf("%w: %s", ErrUnknownField, fieldID)
	}
	for _, c := range r.Controls {
		if value == "" || c.Value == value {
			c.Checked = on
			if value == "" {
				return nil
			}
		}
	}
	return nil
}

func (f *Form) checkOnly(r *Row, values []string) error {
	want := make(map[string]bool, len(values))
	for _, v := range values {
		want[v] = true
	}
	for _, c := range r.Controls {
		c.Checked = want[c.Value] || (len(r.Controls) == 1 && (want["true"] || want["on"]))
	}
	return nil
}

// AddLine дописывает строку в подтаблицу (ячейки: как их видит пользователь).
func (f *Form) AddLine(fieldID string, cells ...string) error {
	r, ok := f.Row(fieldID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, fieldID)
	}
	if r.Table == nil {
		return fmt.Errorf("%w: %s", ErrNotATable, fieldID)
	}
	line := make([]string, len(cells))
	copy(line, cells)
	r.Table.Lines = append(r.Table.Lines, line)
	return nil
}

func (f *Form) ClearLines(fieldID string) {
	if r, ok := f.Row(fieldID); ok && r.Table != nil {
		r.Table.Lines = [][]string{}
	}
}

// SetOptions подменяет варианты select (например, записи другой коллекции).
func (f *Form) SetOptions(fieldID string, opts []Option) error {
	r, ok := f.Row(fieldID)
	if !ok || r.Field.Type != dsl.TypeSelect {
		return fmt.Errorf("%w: %s", ErrUnknownField, fieldID)
	}
	r.Controls[0].Options = opts
	return nil
}

// Apply переносит значения, пришедшие снаружи: строка для обычных полей,
// список или bool для checkbox, строки таблиц: в lines.
func (f *Form) Apply(values map[string]any, lines map[string][][]string) error {
	for id, v := range values {
		r, ok := f.Row(id)
		if !ok || r.Table != nil {
			return fmt.Errorf("%w: %s", ErrUnknownField, id)
		}
		if r.Field.Type == dsl.TypeCheckbox {
			if err := f.checkOnly(r, checkboxValues(v)); err != nil {
				return err
			}
			continue
		}
		if err := f.Set(id, scalarString(v)); err != nil {
			return err
		}
	}
	for id, ls := range lines {
		f.ClearLines(id)
		for _, l := range ls {
			if err := f.AddLine(id, l...); err != nil {
				return err
			}
		}
	}
	return nil
}

// Values: текущее состояние полей для отдачи коллаборатору.
func (f *Form) Values() map[string]any {
	out := make(map[string]any, len(f.Rows))
	for _, r := range f.Rows {
		switch {
		case r.Table != nil:
			continue
		case r.Field.Type == dsl.TypeCheckbox:
			checked := []string{}
			for _, c := range r.Controls {
				if c.Checked {
					checked = append(checked, c.Value)
				}
			}
			out[r.Field.ID] = checked
		case r.Field.Type == dsl.TypeRadio:
			val := ""
			for _, c := range r.Controls {
				if c.Checked {
					val = c.Value
				}
			}
			out[r.Field.ID] = val
		default:
			out[r.Field.ID] = r.Controls[0].Value
		}
	}
	return out
}

func (f *Form) Lines() map[string][][]string {
	out := make(map[string][][]string)
	for _, r := range f.Rows {
		if r.Table != nil {
			out[r.Field.ID] = r.Table.Lines
		}
	}
	return out
}

func checkboxValues(v any) []string {
	switch t := v.(type) {
	case bool:
		if t {
			return []string{"true"}
		}
		return nil
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			out = append(out, scalarString(it))
		}
		return out
	default:
		return nil
	}
}
