package preview

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const docsMakefile = `SPHINXOPTS    ?=
SPHINXBUILD   ?= sphinx-build
SOURCEDIR     = source
BUILDDIR      = _build

html:
	@$(SPHINXBUILD) -M html "$(SOURCEDIR)" "$(BUILDDIR)" $(SPHINXOPTS)
`

// writeTree creates files below root from a path -> content map.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// docsDir returns a docs folder with a Makefile and a small source tree.
func docsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"Makefile":                 docsMakefile,
		"source/index.rst":         "Index\n=====\n",
		"source/conf.py":           "project = 'x'\n",
		"source/user/guide.rst":    "Guide\n=====\n",
		"source/user/diagram.svg":  "<svg/>",
		"source/user/notes.bin":    "ignored",
		"source/_build/html/x.rst": "stale",
	})
	return dir
}

// bump moves the modification time of path forward.
func bump(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	later := info.ModTime().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))
}
