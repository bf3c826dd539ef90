package reference

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	for _, name := range []string{"units", "order_statuses", "otk_statuses", "task_statuses", "warehouse_statuses", "sale_statuses", "component_types"} {
		assert.Contains(t, cat, name)
	}
	assert.Equal(t, "кг", cat["units"].Codes()[0])
	assert.Equal(t, []string{"Создан", "В работе", "Принято", "Принято с браком"}, cat["order_statuses"].Codes())
	assert.True(t, cat["otk_statuses"].Has("Ожидает ОТК"))
}

func TestLoadEnumCatalogNameFromFile(t *testing.T) {
	fsys := fstest.MapFS{
		"e/colors.yml": {Data: []byte("items:\n  - {code: b, name: Синий, order: 2}\n  - {code: r, name: Красный, order: 1}\n")},
		"e/readme.txt": {Data: []byte("skip me")},
	}
	cat, err := LoadEnumCatalog(fsys, "e")
	require.NoError(t, err)
	require.Contains(t, cat, "colors")
	assert.Equal(t, "colors", cat["colors"].Name)
	assert.Equal(t, []string{"r", "b"}, cat["colors"].Codes())
}

func TestLoadEnumCatalogErrors(t *testing.T) {
	_, err := LoadEnumCatalog(fstest.MapFS{}, "missing")
	require.Error(t, err)

	dup := fstest.MapFS{
		"e/a.yaml": {Data: []byte("name: x\nitems: []\n")},
		"e/b.yaml": {Data: []byte("name: x\nitems: []\n")},
	}
	_, err = LoadEnumCatalog(dup, "e")
	require.Error(t, err)

	bad := fstest.MapFS{"e/a.yaml": {Data: []byte("items: [")}}
	_, err = LoadEnumCatalog(bad, "e")
	require.Error(t, err)
}
