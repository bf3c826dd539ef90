package reference

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed enums/*.yaml
var embeddedEnums embed.FS

// Default: справочники, вшитые в бинарник.
func Default() (map[string]EnumDirectory, error) {
	return LoadEnumCatalog(embeddedEnums, "enums")
}

// LoadEnumCatalog читает все enum-справочники из папки dir.
func LoadEnumCatalog(fsys fs.FS, dir string) (map[string]EnumDirectory, error) {
	result := make(map[string]EnumDirectory)
	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var enumDir EnumDirectory
		if err := yaml.Unmarshal(data, &enumDir); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		// Имя справочника: из enumDir.Name или из имени файла
		enumName := enumDir.Name
		if enumName == "" {
			enumName = strings.TrimSuffix(name, path.Ext(name))
			enumDir.Name = enumName
		}
		if _, dup := result[enumName]; dup {
			return nil, fmt.Errorf("duplicate enum %q (file: %s)", enumName, name)
		}
		sort.SliceStable(enumDir.Items, func(i, j int) bool {
			return enumDir.Items[i].Order < enumDir.Items[j].Order
		})
		result[enumName] = enumDir
	}
	return result, nil
}
