package dsl

// Form: декларативная схема модальной формы страницы.
// Порядок Fields: порядок обхода при сериализации.
type Form struct {
	ID      string   `yaml:"id" json:"id"`
	Page    string   `yaml:"-" json:"page"`
	Title   string   `yaml:"title" json:"title"`
	Aliases []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	// Prefix: форма отвечает за все id с этим префиксом (modal-edit-role-*).
	Prefix string  `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Fields []Field `yaml:"fields" json:"fields"`
}

// Field описывает одну строку формы: подпись и элемент(ы) управления.
type Field struct {
	ID       string   `yaml:"id" json:"id"`
	Label    string   `yaml:"label,omitempty" json:"label,omitempty"`
	Key      string   `yaml:"key,omitempty" json:"key,omitempty"` // явный ключ вместо вычисленного по подписи
	Type     string   `yaml:"type" json:"type"`
	Required bool     `yaml:"required,omitempty" json:"required,omitempty"`
	Value    string   `yaml:"value,omitempty" json:"value,omitempty"` // начальное значение
	Options  []string `yaml:"options,omitempty" json:"options,omitempty"`

	// Catalog: опции из enum-справочника reference.
	Catalog string `yaml:"catalog,omitempty" json:"catalog,omitempty"`

	// Source: опции из коллекции хранилища.
	Source       string            `yaml:"source,omitempty" json:"source,omitempty"`
	SourceValue  string            `yaml:"source_value,omitempty" json:"source_value,omitempty"`
	SourceLabel  string            `yaml:"source_label,omitempty" json:"source_label,omitempty"`
	SourceFilter map[string]string `yaml:"source_filter,omitempty" json:"source_filter,omitempty"`

	// Columns: колонки табличной строки (composition, elements).
	Columns []Column `yaml:"columns,omitempty" json:"columns,omitempty"`
}

type Column struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

// Типы элементов управления.
const (
	TypeText        = "text"
	TypeTextarea    = "textarea"
	TypeNumber      = "number"
	TypeDate        = "date"
	TypeSelect      = "select"
	TypeCheckbox    = "checkbox"
	TypeRadio       = "radio"
	TypeHidden      = "hidden"
	TypePassword    = "password"
	TypeEmail       = "email"
	TypeTel         = "tel"
	TypeComposition = "composition"
	TypeElements    = "elements"
)

var knownTypes = map[string]bool{
	TypeText: true, TypeTextarea: true, TypeNumber: true, TypeDate: true,
	TypeSelect: true, TypeCheckbox: true, TypeRadio: true, TypeHidden: true,
	TypePassword: true, TypeEmail: true, TypeTel: true,
	TypeComposition: true, TypeElements: true,
}

func IsKnownType(t string) bool { return knownTypes[t] }

// IsTable: строка с подтаблицей позиций, а не с обычными полями ввода.
func (f Field) IsTable() bool {
	return f.Type == TypeComposition || f.Type == TypeElements
}

func (f Field) SourceValueKey() string {
	if f.SourceValue != "" {
		return f.SourceValue
	}
	return "name"
}

func (f Field) SourceLabelKey() string {
	if f.SourceLabel != "" {
		return f.SourceLabel
	}
	return "name"
}

// Field возвращает поле по id.
func (f *Form) Field(id string) (Field, bool) {
	for _, fl := range f.Fields {
		if fl.ID == id {
			return fl, true
		}
	}
	return Field{}, false
}
