package api

import (
	"cmp"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"mfgtrack/internal/store"
)

const (
	defaultLimit = 50
	maxLimit     = 1000
	nullsLast    = "last"
	nullsFirst   = "first"
)

type SortKey struct {
	Field string
	Desc  bool
}

// ListParams: параметры листинга коллекции. Фильтры сравниваются на равенство,
// Q ищется подстрокой в любом атрибуте.
type ListParams struct {
	Limit   int
	Offset  int
	Sort    []SortKey
	Filters map[string][]string
	Q       string
	Nulls   string
}

// служебные ключи query, которые не становятся фильтрами
var reservedParams = map[string]bool{
	"q": true, "nulls": true,
	"limit": true, "offset": true, "sort": true, "order": true,
	"_limit": true, "_offset": true, "_sort": true, "_order": true,
}

// param читает ключ с подчёркиванием (json-server) или без.
func param(q url.Values, name string) string {
	if v := strings.TrimSpace(q.Get("_" + name)); v != "" {
		return v
	}
	return strings.TrimSpace(q.Get(name))
}

func intParam(q url.Values, name string, def, lo, hi int) int {
	n, err := strconv.Atoi(param(q, name))
	if err != nil || n < lo || n > hi {
		return def
	}
	return n
}

func parseSort(raw string) []SortKey {
	var keys []SortKey
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		desc := strings.HasPrefix(p, "-")
		if f := strings.TrimLeft(p, "+-"); f != "" {
			keys = append(keys, SortKey{Field: f, Desc: desc})
		}
	}
	return keys
}

func parseListParams(q url.Values) ListParams {
	lp := ListParams{
		Limit:   intParam(q, "limit", defaultLimit, 0, maxLimit),
		Offset:  intParam(q, "offset", 0, 0, int(^uint(0)>>1)),
		Sort:    parseSort(param(q, "sort")),
		Filters: make(map[string][]string),
		Q:       strings.TrimSpace(q.Get("q")),
		Nulls:   strings.ToLower(strings.TrimSpace(q.Get("nulls"))),
	}
	if lp.Nulls != nullsFirst {
		lp.Nulls = nullsLast
	}
	for key, vals := range q {
		if reservedParams[key] {
			continue
		}
		var clean []string
		for _, v := range vals {
			if strings.TrimSpace(v) != "" {
				clean = append(clean, v)
			}
		}
		if len(clean) > 0 {
			lp.Filters[key] = clean
		}
	}
	return lp
}

func (lp ListParams) matches(r *store.Record) bool {
	for k, vals := range lp.Filters {
		if !slices.Contains(vals, r.Str(k)) {
			return false
		}
	}
	if lp.Q == "" {
		return true
	}
	q := strings.ToLower(lp.Q)
	for _, k := range r.Keys() {
		v, _ := r.Get(k)
		if strings.Contains(strings.ToLower(stringify(v)), q) {
			return true
		}
	}
	return false
}

func filterRecords(all []*store.Record, lp ListParams) []*store.Record {
	out := make([]*store.Record, 0, len(all))
	for _, r := range all {
		if lp.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// cmpByKey сравнивает записи по одному атрибуту. Числа сравниваются как числа,
// остальное как строки; пустые значения идут по политике nulls при любом направлении.
func cmpByKey(a, b *store.Record, key, nulls string, desc bool) int {
	va, _ := a.Get(key)
	vb, _ := b.Get(key)
	switch na, nb := va == nil, vb == nil; {
	case na && nb:
		return 0
	case na || nb:
		if (nulls == nullsLast) == na {
			return 1
		}
		return -1
	}

	var rel int
	fa, okA := a.Float(key)
	fb, okB := b.Float(key)
	if okA && okB {
		rel = cmp.Compare(fa, fb)
	} else {
		rel = strings.Compare(a.Str(key), b.Str(key))
	}
	if desc {
		return -rel
	}
	return rel
}

func sortRecordsMultiNulls(records []*store.Record, keys []SortKey, nulls string) {
	if len(keys) == 0 {
		return
	}
	slices.SortStableFunc(records, func(a, b *store.Record) int {
		for _, k := range keys {
			if c := cmpByKey(a, b, k.Field, nulls, k.Desc); c != 0 {
				return c
			}
		}
		return 0
	})
}

func paginate(records []*store.Record, offset, limit int) []*store.Record {
	start := min(max(offset, 0), len(records))
	end := min(start+limit, len(records))
	return records[start:end]
}
