package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rimebridge/internal/store"
)

func writeTestConfig(t *testing.T) (configPath, historyPath string) {
	t.Helper()
	dir := t.TempDir()
	historyPath = filepath.Join(dir, "history.db")
	configPath = filepath.Join(dir, "config.toml")
	content := `
[rime]
shared_data_dir = "` + filepath.Join(dir, "shared") + `"
user_data_dir = "` + filepath.Join(dir, "user") + `"

[history]
enabled = true
path = "` + historyPath + `"
limit = 2

[logging]
level = "error"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath, historyPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, _ := writeTestConfig(t)
	return runWithConfig(t, configPath, args...)
}

func runWithConfig(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "rimebridge "+version+"\n", out)
}

func TestKeyParse(t *testing.T) {
	out, err := run(t, "key", "parse", "Control+a", "Return")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Control+a\tkeycode=0x61\tmodifier=0x4", lines[0])
	assert.Equal(t, "Return\tkeycode=0xff0d\tmodifier=0x0", lines[1])
}

func TestKeyParseJSON(t *testing.T) {
	out, err := run(t, "key", "parse", "--json", "Shift+A")
	require.NoError(t, err)
	assert.JSONEq(t, `{"keycode":65,"modifier":1,"repr":"Shift+A"}`, out)
}

func TestKeyFormat(t *testing.T) {
	out, err := run(t, "key", "format", "a", "-m", "Control", "-m", "Alt")
	require.NoError(t, err)
	assert.Equal(t, "Control+Alt+a\n", out)

	_, err = run(t, "key", "format", "a", "-m", "Nonsense")
	assert.Error(t, err)

	_, err = run(t, "key", "format", "NoSuchKey")
	assert.Error(t, err)
}

func TestKeyUnicode(t *testing.T) {
	out, err := run(t, "key", "unicode", "a")
	require.NoError(t, err)
	assert.Equal(t, "U+0061\ta\n", out)

	_, err = run(t, "key", "unicode", "Return")
	assert.Error(t, err)
}

func TestConvertArgs(t *testing.T) {
	out, err := run(t, "convert", "-c", "s2t.json", "汉字")
	require.NoError(t, err)
	assert.Equal(t, "漢字\n", out)
}

func TestConvertUnknownConfig(t *testing.T) {
	_, err := run(t, "convert", "-c", "nope.json", "汉字")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.json")
}

func TestConvertStdin(t *testing.T) {
	configPath, _ := writeTestConfig(t)
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader("汉字\n简体\n"))
	root.SetArgs([]string{"--config", configPath, "convert", "-c", "s2t"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "漢字\n簡體\n", out.String())
}

func TestDictPackUnpack(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "dict.txt")
	packed := filepath.Join(dir, "dict.ocd2z")
	back := filepath.Join(dir, "back.txt")
	require.NoError(t, os.WriteFile(src, []byte("汉\t漢\n"), 0644))

	_, err := run(t, "dict", "pack", src, packed)
	require.NoError(t, err)
	_, err = run(t, "dict", "unpack", packed, back)
	require.NoError(t, err)

	data, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Equal(t, "汉\t漢\n", string(data))
}

func TestHistory(t *testing.T) {
	configPath, historyPath := writeTestConfig(t)
	s, err := store.Open(historyPath)
	require.NoError(t, err)
	for _, text := range []string{"你好", "世界", "你好"} {
		_, err := s.InsertCommit(&store.CommitRecord{Text: text, SchemaID: "luna_pinyin"})
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	out, err := runWithConfig(t, configPath, "history", "top")
	require.NoError(t, err)
	assert.Contains(t, out, "2")
	assert.Contains(t, out, "你好")

	out, err = runWithConfig(t, configPath, "history", "recent", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "你好")
	assert.NotContains(t, out, "世界")

	out, err = runWithConfig(t, configPath, "history", "prune")
	require.NoError(t, err)
	assert.Equal(t, "deleted 1 commits\n", out)

	out, err = runWithConfig(t, configPath, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "commits:  2 (limit 2)")
}

func TestSchemas(t *testing.T) {
	configPath, _ := writeTestConfig(t)
	shared := filepath.Join(filepath.Dir(configPath), "shared")
	require.NoError(t, os.MkdirAll(shared, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(shared, "default.yaml"),
		[]byte("schema_list:\n  - schema: luna_pinyin\nmenu:\n  page_size: 7\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(shared, "luna_pinyin.schema.yaml"),
		[]byte("schema:\n  schema_id: luna_pinyin\n  name: 朙月拼音\n  version: \"0.9\"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(shared, "cangjie5.schema.yaml"),
		[]byte("schema:\n  schema_id: cangjie5\n  name: 倉頡五代\n"), 0644))

	out, err := runWithConfig(t, configPath, "schemas")
	require.NoError(t, err)
	assert.Contains(t, out, "luna_pinyin")
	assert.Contains(t, out, "朙月拼音")
	assert.NotContains(t, out, "cangjie5")
	assert.Contains(t, out, "page size: 7")

	out, err = runWithConfig(t, configPath, "schemas", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "cangjie5")
}
