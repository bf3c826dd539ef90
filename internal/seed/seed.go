// Package seed заполняет пустые коллекции демонстрационными данными.
package seed

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"mfgtrack/internal/store"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var embedded embed.FS

// Set: записи одной коллекции.
type Set struct {
	Collection string
	Records    []*store.Record
}

type setFile struct {
	Collection string      `yaml:"collection"`
	Records    []yaml.Node `yaml:"records"`
}

// Default: встроенные данные. Подстановки $today/$yesterday считаются от today.
func Default(today string) ([]Set, error) {
	return Load(embedded, "data", today)
}

func Load(fsys fs.FS, dir, today string) ([]Set, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && (strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	vars, err := dateVars(today)
	if err != nil {
		return nil, err
	}

	var out []Set
	for _, name := range names {
		b, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var files []setFile
		if err := yaml.Unmarshal(b, &files); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for _, f := range files {
			if f.Collection == "" {
				return nil, fmt.Errorf("%s: collection is required", name)
			}
			set := Set{Collection: f.Collection}
			for i := range f.Records {
				rec, err := record(&f.Records[i], vars)
				if err != nil {
					return nil, fmt.Errorf("%s: %s[%d]: %w", name, f.Collection, i, err)
				}
				set.Records = append(set.Records, rec)
			}
			out = append(out, set)
		}
	}
	return out, nil
}

// record читает mapping с сохранением порядка ключей.
func record(n *yaml.Node, vars map[string]string) (*store.Record, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: record must be a mapping", n.Line)
	}
	rec := store.NewRecord()
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		val, err := scalar(v, vars)
		if err != nil {
			return nil, err
		}
		rec.Set(k.Value, val)
	}
	return rec, nil
}

func scalar(n *yaml.Node, vars map[string]string) (any, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: only scalar values are supported", n.Line)
	}
	switch n.Tag {
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return f, nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return b, nil
	}
	if v, ok := vars[n.Value]; ok {
		return v, nil
	}
	return n.Value, nil
}

const dayLayout = "2006-01-02"

func dateVars(today string) (map[string]string, error) {
	t, err := time.Parse(dayLayout, today)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"$today":     today,
		"$yesterday": t.AddDate(0, 0, -1).Format(dayLayout),
	}, nil
}

// Apply добавляет записи только в пустые коллекции и возвращает число добавленных.
func Apply(ctx context.Context, st *store.Store, sets []Set, log *logrus.Logger) (int, error) {
	added := 0
	for _, s := range sets {
		existing, err := st.Get(ctx, s.Collection)
		if err != nil {
			return added, err
		}
		if len(existing) > 0 {
			continue
		}
		for _, r := range s.Records {
			if _, err := st.Add(ctx, s.Collection, r); err != nil {
				return added, err
			}
			added++
		}
		if log != nil {
			log.WithField("collection", s.Collection).WithField("records", len(s.Records)).Info("seeded")
		}
	}
	return added, nil
}
