package hdl

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

// MakefileOptions tune the generated makefiles.
type MakefileOptions struct {
	Copyright string
}

type makeVar struct {
	Name   string
	Values []string
}

type makefileData struct {
	Copyright string
	NameVar   string
	Name      string
	Vars      []makeVar
	Include   string
}

var makefileTemplate = template.Must(template.New("makefile").Parse(`####################################################################################
## Copyright (c) {{.Copyright}}
### SPDX short identifier: BSD-1-Clause
## Auto-generated, do not modify!
####################################################################################

{{.NameVar}} := {{.Name}}
{{range .Vars}}
{{- $name := .Name}}
{{range .Values}}{{$name}} += {{.}}
{{end}}
{{- end}}
include {{.Include}}
`))

func renderMakefile(d makefileData) ([]byte, error) {
	var vars []makeVar
	for _, v := range d.Vars {
		if len(v.Values) > 0 {
			vars = append(vars, v)
		}
	}
	d.Vars = vars
	var buf bytes.Buffer
	if err := makefileTemplate.Execute(&buf, d); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryCodegen, "render makefile").
			WithContext("name", d.Name).Build()
	}
	return buf.Bytes(), nil
}

// RenderLibraryMakefile renders the Makefile of a resolved library.
func RenderLibraryMakefile(root string, lib *Library, opts MakefileOptions) ([]byte, error) {
	vars := []makeVar{{Name: "GENERIC_DEPS", Values: lib.GenericDeps}}
	for _, v := range lib.VendorNames() {
		p := v.MakeVar()
		vars = append(vars,
			makeVar{Name: p + "_DEPS", Values: lib.VendorDeps[v]},
			makeVar{Name: p + "_LIB_DEPS", Values: lib.LibDeps[v]},
			makeVar{Name: p + "_INTERFACE_DEPS", Values: lib.InterfaceDeps[v]},
		)
	}
	include, err := includePath(filepath.Join(root, lib.Dir), filepath.Join(root, "library", "scripts", "library.mk"))
	if err != nil {
		return nil, err
	}
	return renderMakefile(makefileData{
		Copyright: opts.Copyright,
		NameVar:   "LIBRARY_NAME",
		Name:      lib.Name,
		Vars:      vars,
		Include:   include,
	})
}

// RenderProjectMakefile renders the Makefile of a resolved project.
func RenderProjectMakefile(root string, p *Project, opts MakefileOptions) ([]byte, error) {
	mk := "project-" + string(p.Vendor) + ".mk"
	include, err := includePath(filepath.Join(root, p.Dir), filepath.Join(root, "projects", "scripts", mk))
	if err != nil {
		return nil, err
	}
	return renderMakefile(makefileData{
		Copyright: opts.Copyright,
		NameVar:   "PROJECT_NAME",
		Name:      p.Name,
		Vars: []makeVar{
			{Name: "M_DEPS", Values: p.MDeps},
			{Name: "LIB_DEPS", Values: p.LibDeps},
		},
		Include: include,
	})
}

// WriteLibraryMakefile writes <library>/Makefile when its content changed.
func WriteLibraryMakefile(root string, libs map[string]*Library, key string, opts MakefileOptions) (bool, error) {
	lib, ok := libs[key]
	if !ok {
		return false, derrors.NotFoundError("unknown library").WithContext("library", key).Build()
	}
	out, err := RenderLibraryMakefile(root, lib, opts)
	if err != nil {
		return false, err
	}
	return writeIfChanged(filepath.Join(root, lib.Dir, "Makefile"), out)
}

// WriteProjectMakefile writes <project>/Makefile when its content changed.
func WriteProjectMakefile(root string, projects map[string]*Project, key string, opts MakefileOptions) (bool, error) {
	p, ok := projects[key]
	if !ok {
		return false, derrors.NotFoundError("unknown project").WithContext("project", key).Build()
	}
	out, err := RenderProjectMakefile(root, p, opts)
	if err != nil {
		return false, err
	}
	return writeIfChanged(filepath.Join(root, p.Dir, "Makefile"), out)
}

func includePath(from, target string) (string, error) {
	rel, err := filepath.Rel(from, target)
	if err != nil {
		return "", derrors.WrapError(err, derrors.CategoryCodegen, "relativize include").
			WithContext("path", target).Build()
	}
	return filepath.ToSlash(rel), nil
}

func writeIfChanged(path string, content []byte) (bool, error) {
	// #nosec G304 -- path is a Makefile under the repository root.
	if prev, err := os.ReadFile(path); err == nil && bytes.Equal(prev, content) {
		return false, nil
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return false, derrors.WrapError(err, derrors.CategoryFileSystem, "write makefile").
			WithContext("path", path).Build()
	}
	return true, nil
}
