package image

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func TestPack(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string]string{
		"main.rb":        "require 'lib/util'",
		"lib/util.rb":    "module Util; end",
		"lib/data/a.txt": "a",
	})
	require.NoError(t, os.Symlink(filepath.Join(dir, "main.rb"), filepath.Join(dir, "link.rb")))

	l, err := Pack(dir, "/srv/app", "main.rb")
	require.NoError(t, err)

	assert.Equal(t, "/srv/app", l.MountRoot)
	assert.Equal(t, "/srv/app/main.rb", l.StartFile)
	assert.Equal(t, []string{"srv/app/lib/data/a.txt", "srv/app/lib/util.rb", "srv/app/main.rb"}, l.PathList(),
		"must hold regular files only, in lexical order")

	entries, err := l.Entries()
	require.NoError(t, err)
	assert.Equal(t, "module Util; end", string(entries[1].Content))
}

func TestPack_DefaultMountRoot(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string]string{"a.txt": "a"})

	l, err := Pack(dir, "", "")
	require.NoError(t, err)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(abs), l.MountRoot)
}

func TestPack_Errors(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string]string{"a.txt": "a"})

	_, err := Pack(dir, "relative/root", "")
	assert.Error(t, err)

	_, err = Pack(dir, "/app", "missing.rb")
	assert.Error(t, err)

	_, err = Pack(filepath.Join(dir, "nope"), "/app", "")
	assert.Error(t, err)
}

func TestWriteEmbedStub(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteEmbedStub(&buf, "main", "app.efs"))
	assert.Contains(t, buf.String(), "package main")
	assert.Contains(t, buf.String(), "//go:embed app.efs")
	assert.Contains(t, buf.String(), "image.RegisterEmbedded(embeddedImage)")

	assert.Error(t, WriteEmbedStub(&buf, "not-a-pkg", "app.efs"))
}
