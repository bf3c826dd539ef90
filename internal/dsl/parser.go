package dsl

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed forms/*.yaml
var embeddedForms embed.FS

// pageFile соответствует одному yaml-файлу со всеми формами страницы.
type pageFile struct {
	Page  string `yaml:"page"`
	Forms []Form `yaml:"forms"`
}

// Catalog: все схемы форм, сгруппированные по страницам.
type Catalog struct {
	pages map[string]map[string]*Form
	// алиасы и префиксы страницы
	aliases  map[string]map[string]*Form
	prefixes map[string][]*Form
	ordered  []*Form
}

// Default: схемы, вшитые в бинарник.
func Default() (*Catalog, error) {
	return LoadForms(embeddedForms, "forms")
}

// LoadForms обходит root в fsys и читает все *.yaml/*.yml.
func LoadForms(fsys fs.FS, root string) (*Catalog, error) {
	c := &Catalog{
		pages:    make(map[string]map[string]*Form),
		aliases:  make(map[string]map[string]*Form),
		prefixes: make(map[string][]*Form),
	}

	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		ext := strings.ToLower(path.Ext(d.Name()))
		if d.IsDir() || (ext != ".yaml" && ext != ".yml") {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		var pf pageFile
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		if pf.Page == "" {
			return fmt.Errorf("%s has no page (add `page: <name>` at the top)", p)
		}
		for i := range pf.Forms {
			f := pf.Forms[i]
			f.Page = pf.Page
			if err := c.add(&f); err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(c.ordered, func(i, j int) bool {
		if c.ordered[i].Page != c.ordered[j].Page {
			return c.ordered[i].Page < c.ordered[j].Page
		}
		return c.ordered[i].ID < c.ordered[j].ID
	})
	return c, nil
}

func (c *Catalog) add(f *Form) error {
	if strings.TrimSpace(f.ID) == "" {
		return fmt.Errorf("form without id on page %q", f.Page)
	}
	if c.taken(f.Page, f.ID) {
		return fmt.Errorf("duplicate form %q on page %q", f.ID, f.Page)
	}
	seen := make(map[string]bool, len(f.Fields))
	for _, fl := range f.Fields {
		if fl.ID == "" {
			return fmt.Errorf("form %q: field without id", f.ID)
		}
		if seen[fl.ID] {
			return fmt.Errorf("form %q: duplicate field %q", f.ID, fl.ID)
		}
		seen[fl.ID] = true
		if !IsKnownType(fl.Type) {
			return fmt.Errorf("form %q: field %q has unknown type %q", f.ID, fl.ID, fl.Type)
		}
	}

	if c.pages[f.Page] == nil {
		c.pages[f.Page] = make(map[string]*Form)
		c.aliases[f.Page] = make(map[string]*Form)
	}
	c.pages[f.Page][f.ID] = f
	for _, a := range f.Aliases {
		if c.taken(f.Page, a) {
			return fmt.Errorf("alias %q of form %q clashes on page %q", a, f.ID, f.Page)
		}
		c.aliases[f.Page][a] = f
	}
	if f.Prefix != "" {
		c.prefixes[f.Page] = append(c.prefixes[f.Page], f)
	}
	c.ordered = append(c.ordered, f)
	return nil
}

func (c *Catalog) taken(page, id string) bool {
	if _, ok := c.pages[page][id]; ok {
		return true
	}
	_, ok := c.aliases[page][id]
	return ok
}

// Form ищет схему: точный id, затем алиас, затем префикс.
func (c *Catalog) Form(page, id string) (*Form, bool) {
	if f, ok := c.pages[page][id]; ok {
		return f, true
	}
	if f, ok := c.aliases[page][id]; ok {
		return f, true
	}
	for _, f := range c.prefixes[page] {
		if strings.HasPrefix(id, f.Prefix) {
			return f, true
		}
	}
	return nil, false
}

// Forms: все схемы, отсортированные по странице и id.
func (c *Catalog) Forms() []*Form {
	out := make([]*Form, len(c.ordered))
	copy(out, c.ordered)
	return out
}

func (c *Catalog) Pages() []string {
	out := make([]string, 0, len(c.pages))
	for p := range c.pages {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
