package schema

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rimebridge/internal/marshal"
	"rimebridge/internal/proto"
)

func writeYAML(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
}

func schemaYAML(id, name string) string {
	return "schema:\n  schema_id: " + id + "\n  name: " + name + "\n  version: \"0.1\"\n  author:\n    - someone\n"
}

func fixture(t *testing.T) (shared, user string) {
	t.Helper()
	root := t.TempDir()
	shared = filepath.Join(root, "shared")
	user = filepath.Join(root, "user")
	writeYAML(t, shared, "luna_pinyin.schema.yaml", schemaYAML("luna_pinyin", "朙月拼音"))
	writeYAML(t, shared, "cangjie5.schema.yaml", schemaYAML("cangjie5", "倉頡五代"))
	writeYAML(t, shared, "bopomofo.schema.yaml", schemaYAML("bopomofo", "注音"))
	writeYAML(t, shared, "default.yaml",
		"schema_list:\n  - schema: luna_pinyin\n  - schema: cangjie5\n  - schema: missing\nmenu:\n  page_size: 7\n")
	require.NoError(t, os.MkdirAll(user, 0750))
	return shared, user
}

func names(items []proto.SchemaListItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.SchemaID + "/" + it.Name
	}
	return out
}

func TestCatalogSelectedAndAvailable(t *testing.T) {
	shared, user := fixture(t)
	c, err := Open(shared, user)
	require.NoError(t, err)

	reg := marshal.DefaultRegistry{}
	assert.Equal(t, []string{"luna_pinyin/朙月拼音", "cangjie5/倉頡五代"},
		names(marshal.SchemaList(reg, c.Selected())))
	assert.Equal(t, []string{"bopomofo/注音", "cangjie5/倉頡五代", "luna_pinyin/朙月拼音"},
		names(marshal.SchemaList(reg, c.Available())))
	assert.Equal(t, 7, c.PageSize())

	s, ok := c.Lookup("luna_pinyin")
	require.True(t, ok)
	assert.Equal(t, "0.1", s.Version)
	assert.Equal(t, []string{"someone"}, s.Authors)
}

func TestCatalogUserDirWins(t *testing.T) {
	shared, user := fixture(t)
	writeYAML(t, user, "luna_pinyin.schema.yaml", schemaYAML("luna_pinyin", "月"))
	writeYAML(t, user, "default.custom.yaml",
		"patch:\n  schema_list:\n    - schema: bopomofo\n    - schema: luna_pinyin\n  \"menu/page_size\": 9\n")

	c, err := Open(shared, user)
	require.NoError(t, err)

	got := c.Selected()
	require.Equal(t, 2, got.Size)
	assert.Equal(t, "bopomofo", *got.List[0].SchemaID)
	assert.Equal(t, "月", *got.List[1].Name)
	assert.Equal(t, 9, c.PageSize())
}

func TestCatalogWithoutSchemaListSelectsAll(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "b.schema.yaml", "schema:\n  schema_id: b\n")
	writeYAML(t, dir, "a.schema.yaml", schemaYAML("a", "A"))

	c, err := Open(dir, "")
	require.NoError(t, err)
	got := c.Selected()
	require.Equal(t, 2, got.Size)
	assert.Equal(t, "a", *got.List[0].SchemaID)
	assert.Nil(t, got.List[1].Name, "a schema without a name keeps a null name")
	assert.Equal(t, defaultPageSize, c.PageSize())

	items := marshal.SchemaList(marshal.DefaultRegistry{}, got)
	assert.Equal(t, "", items[1].Name)
}

func TestCatalogIDFromFileName(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "terra_pinyin.schema.yaml", "schema:\n  name: 地球拼音\n")
	c, err := Open(dir, "")
	require.NoError(t, err)
	_, ok := c.Lookup("terra_pinyin")
	assert.True(t, ok)
}

func TestCatalogErrors(t *testing.T) {
	_, err := Open(t.TempDir(), t.TempDir())
	assert.ErrorIs(t, err, ErrNoSchemas)

	shared, user := fixture(t)
	writeYAML(t, user, "default.yaml", "schema_list: [unterminated\n")
	_, err = Open(shared, user)
	assert.Error(t, err)
}

func TestCatalogSkipsBrokenSchemaFile(t *testing.T) {
	shared, user := fixture(t)
	writeYAML(t, user, "broken.schema.yaml", "schema: [\n")
	c, err := Open(shared, user)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Available().Size)
}

func TestCatalogWatch(t *testing.T) {
	shared, user := fixture(t)
	c, err := Open(shared, user)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	require.NoError(t, c.Watch(ctx, func(*Catalog) {
		select {
		case changed <- struct{}{}:
		default:
		}
	}))

	writeYAML(t, user, "default.custom.yaml", "patch:\n  schema_list:\n    - schema: bopomofo\n")

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("catalog was not reloaded")
	}
	got := c.Selected()
	require.Equal(t, 1, got.Size)
	assert.Equal(t, "bopomofo", *got.List[0].SchemaID)
}
