package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record хранит запись коллекции как упорядоченный набор атрибутов.
// Порядок ключей сохраняется при чтении/записи JSON.
type Record struct {
	keys []string
	vals map[string]any
}

func NewRecord() *Record {
	return &Record{vals: make(map[string]any)}
}

// R собирает запись из пар ключ/значение: R("name", "Сахар", "unit", "кг").
func R(kv ...any) *Record {
	if len(kv)%2 != 0 {
		panic("store.R: odd number of arguments")
	}
	r := NewRecord()
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("store.R: key %v is not a string", kv[i]))
		}
		r.Set(k, kv[i+1])
	}
	return r
}

func (r *Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.vals[key]
	return v, ok
}

func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Set перезаписывает значение на месте либо добавляет ключ в конец.
func (r *Record) Set(key string, v any) *Record {
	if r.vals == nil {
		r.vals = make(map[string]any)
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
	return r
}

func (r *Record) Delete(key string) {
	if r == nil {
		return
	}
	if _, ok := r.vals[key]; !ok {
		return
	}
	delete(r.vals, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

func (r *Record) ID() string { return r.Str("id") }

// Str: строковое представление скалярного атрибута; "" для отсутствующих и составных.
func (r *Record) Str(key string) string {
	v, _ := r.Get(key)
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Float читает число; строки разбираются, как это делал бы parseFloat.
func (r *Record) Float(key string) (float64, bool) {
	v, _ := r.Get(key)
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Merge переносит атрибуты patch поверх текущих; остальные ключи не трогаются.
func (r *Record) Merge(patch *Record) *Record {
	if patch == nil {
		return r
	}
	for _, k := range patch.keys {
		r.Set(k, cloneValue(patch.vals[k]))
	}
	return r
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{
		keys: make([]string, len(r.keys)),
		vals: make(map[string]any, len(r.vals)),
	}
	copy(out.keys, r.keys)
	for k, v := range r.vals {
		out.vals[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Record:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, it := range t {
			out[i] = cloneValue(it)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, it := range t {
			out[k] = cloneValue(it)
		}
		return out
	default:
		return v
	}
}

// Map: плоская копия для мест, где порядок не важен (фильтры, выгрузка).
func (r *Record) Map() map[string]any {
	out := make(map[string]any, r.Len())
	if r == nil {
		return out
	}
	for _, k := range r.keys {
		out[k] = r.vals[k]
	}
	return out
}

func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.vals[k])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON разбирает объект потоком токенов, чтобы не потерять порядок ключей.
// Вложенные объекты становятся *Record, массивы []any, числа float64.
func (r *Record) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("store: record must be a JSON object, got %v", tok)
	}
	r.keys = nil
	r.vals = make(map[string]any)
	return r.decodeObject(dec)
}

func (r *Record) decodeObject(dec *json.Decoder) error {
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("store: unexpected key token %v", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return err
		}
		r.Set(key, v)
	}
	_, err := dec.Token()
	return err
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		rec := NewRecord()
		if err := rec.decodeObject(dec); err != nil {
			return nil, err
		}
		return rec, nil
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("store: unexpected delimiter %v", d)
}
