package domain

import (
	"encoding/json"
	"strconv"
	"strings"

	"mfgtrack/internal/store"
)

// Quantity: количество. В старых записях оно бывает строкой ("20"), поэтому
// при чтении принимается и число, и строка; неразборчивое значение читается как 0.
type Quantity float64

func (q *Quantity) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*q = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			f = 0
		}
		*q = Quantity(f)
		return nil
	}
	// bool, объект или массив вместо числа читаются как 0
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f = 0
	}
	*q = Quantity(f)
	return nil
}

func (q Quantity) Float() float64 { return float64(q) }

// Int: целая часть, как parseInt для счётчиков ОТК.
func (q Quantity) Int() int { return int(q) }

// Text: строковый атрибут. Коллекции не имеют схемы, и через CRUD в product или
// batch может попасть число (42) или bool; такие значения читаются их текстом,
// составные значения и null дают пустую строку.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case string:
		*t = Text(x)
	case float64:
		*t = Text(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		*t = Text(strconv.FormatBool(x))
	default:
		*t = ""
	}
	return nil
}

func (t Text) String() string { return string(t) }

// Composition: состав рецепта. Кроме строк {type, name, quantity, unit} встречаются
// строки "raw:Мука" / "chem:Соль" и объекты с component или element вместо name.
// Не-массив читается как пустой состав, нераспознанные элементы пропускаются.
type Composition []CompositionLine

func (c *Composition) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		*c = nil
		return nil
	}
	out := make(Composition, 0, len(items))
	for _, raw := range items {
		if strings.TrimSpace(string(raw)) == "null" {
			continue
		}
		var str string
		if json.Unmarshal(raw, &str) == nil {
			typ, name, ok := strings.Cut(str, ":")
			if !ok {
				typ, name = "", str
			}
			out = append(out, CompositionLine{Type: Text(typ), Name: Text(name)})
			continue
		}
		var line struct {
			CompositionLine
			Component Text `json:"component"`
			Element   Text `json:"element"`
		}
		if err := json.Unmarshal(raw, &line); err != nil {
			continue
		}
		l := line.CompositionLine
		switch {
		case l.Name != "":
		case line.Component != "":
			l.Name = line.Component
		default:
			l.Name = line.Element
		}
		out = append(out, l)
	}
	*c = out
	return nil
}

// Decode раскладывает запись хранилища в структуру.
func Decode(rec *store.Record, v any) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Encode превращает структуру в запись с порядком полей как в структуре.
func Encode(v any) (*store.Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	rec := store.NewRecord()
	if err := json.Unmarshal(b, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
