package hdl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

// ProjectFilesScript lists the top-level sources of a project.
const ProjectFilesScript = "system_project.tcl"

// ParseProject derives a project from the path of its block design script.
func ParseProject(root, path string) (*Project, error) {
	v, ok := ProjectVendor(filepath.Base(path))
	if !ok {
		return nil, derrors.ValidationError("not a project script").WithContext("file", path).Build()
	}
	dir := filepath.Dir(path)
	key, err := filepath.Rel(filepath.Join(root, "projects"), dir)
	if err != nil || key == "." || strings.HasPrefix(key, "..") {
		return nil, derrors.ValidationError("project script outside of projects/").
			WithContext("file", path).Build()
	}
	key = filepath.ToSlash(key)
	rel, _ := filepath.Rel(root, dir)
	return &Project{
		Key:     key,
		Name:    strings.ReplaceAll(key, "/", "_"),
		Dir:     rel,
		Carrier: filepath.Base(dir),
		Vendor:  v,
		Script:  filepath.Base(path),
	}, nil
}

// ResolveProject follows the sourced scripts of a project and collects the
// libraries it instantiates (LibDeps) and the files outside of the project
// directory it depends on (MDeps). The returned messages are warnings.
func ResolveProject(root string, p *Project, libs map[string]*Library) []string {
	absDir := filepath.Join(root, p.Dir)
	r := &projectResolver{
		root:    root,
		dir:     absDir,
		libIdx:  newLibraryIndex(libs),
		visited: map[string]bool{},
		libs:    map[string]bool{},
		mdeps:   map[string]bool{},
		project: p,
	}
	r.visit(filepath.Join(absDir, p.Script))
	r.projectFiles(filepath.Join(absDir, ProjectFilesScript))

	p.LibDeps = sortedUnique(keys(r.libs))
	p.MDeps = sortedUnique(keys(r.mdeps))
	return r.msgs
}

type projectResolver struct {
	root    string
	dir     string
	libIdx  *libraryIndex
	visited map[string]bool
	libs    map[string]bool
	mdeps   map[string]bool
	msgs    []string
	project *Project
}

func (r *projectResolver) warnf(format string, args ...any) {
	r.msgs = append(r.msgs, fmt.Sprintf("project %s: ", r.project.Key)+fmt.Sprintf(format, args...))
}

func (r *projectResolver) visit(path string) {
	if r.visited[path] {
		return
	}
	r.visited[path] = true
	cmds, err := ParseTclFile(path)
	if err != nil {
		rel, _ := filepath.Rel(r.root, path)
		r.warnf("cannot read %s", filepath.ToSlash(rel))
		return
	}
	r.dependOn(path)

	Walk(cmds, func(c Command) {
		switch c.Name() {
		case "source":
			src := c.Arg(0)
			rel, ok := relPath(r.root, r.dir, r.root, src)
			if !ok {
				r.warnf("cannot resolve source %s", src)
				return
			}
			r.visit(filepath.Join(r.root, rel))
		case "ad_ip_instance":
			r.instance(c.Arg(0))
		case "add_instance":
			r.instance(c.Arg(1))
		}
	})
}

func (r *projectResolver) instance(ip string) {
	if key, ok := r.libIdx.lookup(ip, r.project.Vendor); ok {
		r.libs[key] = true
	}
}

// dependOn records path as an M_DEPS entry when it lives outside the project
// directory and the shared scripts.
func (r *projectResolver) dependOn(path string) {
	if within(r.dir, path) || isScriptsPath(r.root, path) {
		return
	}
	rel, err := filepath.Rel(r.dir, path)
	if err != nil {
		return
	}
	r.mdeps[filepath.ToSlash(rel)] = true
}

// projectFiles reads the adi_project_files lists of system_project.tcl.
func (r *projectResolver) projectFiles(path string) {
	cmds, err := ParseTclFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.warnf("cannot read %s: %v", ProjectFilesScript, err)
		}
		return
	}
	Walk(cmds, func(c Command) {
		if c.Name() != "adi_project_files" || len(c.Words) < 3 {
			return
		}
		for _, f := range ListItems(c.Words[2]) {
			rel, ok := relPath(r.root, r.dir, r.root, f)
			if !ok {
				r.warnf("cannot resolve project file %s", f)
				continue
			}
			r.dependOn(filepath.Join(r.root, rel))
		}
	})
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
