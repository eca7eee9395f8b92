package preview

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

func TestLoadLayout(t *testing.T) {
	dir := docsDir(t)

	l, err := LoadLayout(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, l.Dir)
	assert.Equal(t, "_build", l.BuildDirName)
	assert.Equal(t, filepath.Join(dir, "_build", "html"), l.BuildDir)
	assert.Equal(t, filepath.Join(dir, "source"), l.SourceDir)
	assert.Equal(t, filepath.Join(dir, "_build", "html", ".dev-pool"), l.DevPoolFile())
	assert.Equal(t, filepath.Join(dir, "_build", "html", "_static"), l.StaticDir())
}

func TestLoadLayout_MissingMakefile(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadLayout(dir)
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryNotFound))
	assert.Contains(t, err.Error(), "File Makefile not found, is "+dir+" a docs folder?")
}

func TestLoadLayout_MissingVariables(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"Makefile": "BUILDDIR = _build\n"})

	_, err := LoadLayout(dir)
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryValidation))
	assert.Contains(t, err.Error(), "Failed parse Makefile")
}

func TestLoadLayout_MissingSourceDir(t *testing.T) {
	dir := docsDir(t)
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "source")))

	_, err := LoadLayout(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not find SOURCEDIR "+filepath.Join(dir, "source")+".")
}
