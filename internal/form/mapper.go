package form

import (
	"regexp"
	"strconv"
	"strings"

	"mfgtrack/internal/dsl"
)

// labelKeys: подпись поля → атрибут записи. Используется и при сериализации,
// и при предзаполнении формы: расхождение ломает редактирование.
var labelKeys = map[string]string{
	"Название":       "name",
	"ФИО":            "name",
	"Email":          "email",
	"Пароль":         "password",
	"Роль":           "role",
	"Ед.":            "unit",
	"Кол-во":         "quantity",
	"Количество":     "quantity",
	"Дата прихода":   "date",
	"Дата":           "date",
	"Сырьё":          "material",
	"Партия":         "batch",
	"Поставщик":      "supplier",
	"Комментарий":    "comment",
	"ИНН":            "inn",
	"Контакт":        "contact",
	"Телефон":        "phone",
	"Адрес доставки": "address",
	"Адрес":          "address",
	"Рецепт":         "recipe",
	"Товар":          "product",
	"Линия":          "line",
	"Срок":           "deadline",
	"Исполнитель":    "executor",
	"Описание":       "description",
	"Принято":        "accepted",
	"Брак":           "rejected",
	"Причина брака":  "rejectReason",
	"Инспектор":      "inspector",
	"Проверено":      "checkedDate",
}

var spaceRun = regexp.MustCompile(`\s+`)

// CanonicalKey переводит подпись в имя атрибута; неизвестная подпись
// приводится к нижнему регистру с "_" вместо пробелов.
func CanonicalKey(label string) string {
	if k, ok := labelKeys[label]; ok {
		return k
	}
	return spaceRun.ReplaceAllString(strings.ToLower(label), "_")
}

// KeyOf возвращает атрибут, в который пишется поле. Порядок: явный key схемы, подпись,
// затем id без "modal-" с первым "-" → "_".
func KeyOf(f dsl.Field) string {
	if f.Key != "" {
		return f.Key
	}
	if l := strings.TrimSpace(f.Label); l != "" {
		return CanonicalKey(l)
	}
	if f.ID == "" {
		return ""
	}
	return strings.Replace(strings.Replace(f.ID, "modal-", "", 1), "-", "_", 1)
}

// ExtractValue читает типизированное значение элемента; ok=false: атрибут опускается.
func ExtractValue(c *Control) (any, bool) {
	switch c.Kind {
	case dsl.TypeCheckbox:
		return c.Checked, true
	case dsl.TypeRadio:
		if c.Checked {
			return c.Value, true
		}
		return nil, false
	case dsl.TypeSelect, dsl.TypeDate:
		if c.Value == "" {
			return nil, false
		}
		return c.Value, true
	case dsl.TypeNumber:
		if strings.TrimSpace(c.Value) == "" {
			return nil, false
		}
		f, ok := parseFloat(c.Value)
		if !ok {
			return nil, false
		}
		return f, true
	default:
		v := strings.TrimSpace(c.Value)
		if v == "" {
			return nil, false
		}
		return v, true
	}
}

var floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parseFloat разбирает число из начала строки: "12.5 кг" → 12.5.
func parseFloat(s string) (float64, bool) {
	m := floatPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseFloatOr0: parseFloat(x) || 0.
func parseFloatOr0(s string) float64 {
	f, _ := parseFloat(s)
	return f
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
