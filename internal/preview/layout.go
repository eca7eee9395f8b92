package preview

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

var (
	buildDirRe  = regexp.MustCompile(`^BUILDDIR\s*\??=\s*(.*)$`)
	sourceDirRe = regexp.MustCompile(`^SOURCEDIR\s*\??=\s*(.*)$`)
)

// Layout describes a documentation folder driven by a Sphinx style Makefile.
type Layout struct {
	// Dir is the absolute docs folder holding the Makefile.
	Dir string
	// BuildDirName is the BUILDDIR value of the Makefile.
	BuildDirName string
	// BuildDir is the served HTML output, <Dir>/<BUILDDIR>/html.
	BuildDir string
	// SourceDir is <Dir>/<SOURCEDIR>.
	SourceDir string
}

// DevPoolFile is the path of the pool strategy timestamp file.
func (l Layout) DevPoolFile() string { return filepath.Join(l.BuildDir, ".dev-pool") }

// StaticDir is where the theme assets are served from.
func (l Layout) StaticDir() string { return filepath.Join(l.BuildDir, "_static") }

// LoadLayout reads BUILDDIR and SOURCEDIR from <dir>/Makefile.
func LoadLayout(dir string) (Layout, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Layout{}, derrors.WrapError(err, derrors.CategoryFileSystem, "resolve docs directory").
			WithContext("path", dir).Build()
	}
	makefile := filepath.Join(abs, "Makefile")
	// #nosec G304 -- the Makefile of the docs folder given on the command line.
	f, err := os.Open(makefile)
	if err != nil {
		return Layout{}, derrors.NotFoundError(fmt.Sprintf("File Makefile not found, is %s a docs folder?", abs)).
			WithCause(err).Build()
	}
	defer func() { _ = f.Close() }()

	var build, source string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if m := buildDirRe.FindStringSubmatch(line); m != nil && build == "" {
			build = strings.TrimSpace(m[1])
		}
		if m := sourceDirRe.FindStringSubmatch(line); m != nil && source == "" {
			source = strings.TrimSpace(m[1])
		}
	}
	if err := sc.Err(); err != nil {
		return Layout{}, derrors.WrapError(err, derrors.CategoryFileSystem, "read Makefile").
			WithContext("file", makefile).Build()
	}
	if build == "" || source == "" {
		return Layout{}, derrors.ValidationError(fmt.Sprintf("Failed parse Makefile, is %s a docs folder?", abs)).Build()
	}

	l := Layout{
		Dir:          abs,
		BuildDirName: build,
		BuildDir:     filepath.Join(abs, build, "html"),
		SourceDir:    filepath.Join(abs, source),
	}
	if info, err := os.Stat(l.SourceDir); err != nil || !info.IsDir() {
		return Layout{}, derrors.NotFoundError(fmt.Sprintf("Could not find SOURCEDIR %s.", l.SourceDir)).Build()
	}
	return l, nil
}
