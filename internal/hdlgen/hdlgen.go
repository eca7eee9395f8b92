// Package hdlgen implements the hdl-gen command: it regenerates the library
// and project makefiles and the testbench register map packages of an HDL
// repository.
package hdlgen

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"git.home.luguber.info/inful/doctools/internal/config"
	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
	"git.home.luguber.info/inful/doctools/internal/hdl"
	"git.home.luguber.info/inful/doctools/internal/hdl/regmap"
	"git.home.luguber.info/inful/doctools/internal/logfields"
)

// Options configure a generation run.
type Options struct {
	// Input is any path inside the HDL repository.
	Input string
	HDL   config.HDLConfig
	// Now fixes the generation time of the register map packages.
	Now time.Time
}

// Report summarizes a generation run.
type Report struct {
	Root        string
	Testbenches bool
	Carriers    int
	Interfaces  int
	Libraries   int
	Projects    int
	Regmaps     int
	Written     []string
	Warnings    []string
}

func (r *Report) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
	slog.Warn(msg)
}

func (r *Report) wrote(root, path string) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	r.Written = append(r.Written, filepath.ToSlash(rel))
	slog.Debug("Wrote file", logfields.Path(rel))
}

// Run regenerates every makefile and register map package of the repository.
func Run(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()
	root, err := FindRoot(opts.Input)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(root, opts.HDL.Sentinel)); err != nil {
		return nil, derrors.ValidationError("not an HDL repository").
			WithContext("path", root).
			WithContext("sentinel", opts.HDL.Sentinel).
			Build()
	}
	rep := &Report{Root: root}
	slog.Info("Generating HDL files", logfields.Path(root))

	if info, err := os.Stat(filepath.Join(root, opts.HDL.TestbenchDir)); err == nil && info.IsDir() {
		rep.Testbenches = true
	} else {
		slog.Info("Testbenches not found, register map packages are skipped", logfields.Path(opts.HDL.TestbenchDir))
	}

	carriers, msgs, err := hdl.ParseVendors(root)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		rep.warn(m)
	}
	for _, c := range carriers {
		rep.Carriers += len(c)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	libs, err := generateLibraries(root, opts, rep)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := generateProjects(root, opts, libs, carriers, rep); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := generateRegmaps(root, opts, rep); err != nil {
		return nil, err
	}

	slog.Info("HDL generation complete",
		slog.Int("carriers", rep.Carriers),
		slog.Int("libraries", rep.Libraries),
		slog.Int("projects", rep.Projects),
		slog.Int("regmaps", rep.Regmaps),
		slog.Int("written", len(rep.Written)),
		slog.Int("warnings", len(rep.Warnings)),
		logfields.Duration(time.Since(start)))
	return rep, nil
}

func generateLibraries(root string, opts Options, rep *Report) (map[string]*hdl.Library, error) {
	var scripts, ifScripts []string
	err := walkFiles(filepath.Join(root, "library"), func(path string, d fs.DirEntry) {
		base := d.Name()
		if base == hdl.InterfacesScript {
			ifScripts = append(ifScripts, path)
			return
		}
		if _, ok := hdl.LibraryVendor(base); ok {
			scripts = append(scripts, path)
		}
	})
	if err != nil {
		return nil, err
	}

	ifDirs, msgs, err := hdl.InterfaceDirs(root, ifScripts)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		rep.warn(m)
	}
	rep.Interfaces = len(ifDirs)

	libs, msgs, err := hdl.LoadLibraries(root, scripts)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		rep.warn(m)
	}
	rep.Libraries = len(libs)

	keys := make([]string, 0, len(libs))
	for k := range libs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, m := range hdl.ResolveLibrary(root, libs, k, ifDirs) {
			rep.warn(m)
		}
	}

	order, err := hdl.LibraryOrder(libs)
	if err != nil {
		rep.warn(err.Error())
		order = keys
	}
	mk := hdl.MakefileOptions{Copyright: opts.HDL.Copyright}
	for _, k := range order {
		written, err := hdl.WriteLibraryMakefile(root, libs, k, mk)
		if err != nil {
			return nil, err
		}
		if written {
			rep.wrote(root, filepath.Join(root, libs[k].Dir, "Makefile"))
		}
	}
	return libs, nil
}

func generateProjects(root string, opts Options, libs map[string]*hdl.Library, carriers map[hdl.Vendor]map[string]hdl.Carrier, rep *Report) error {
	projects := map[string]*hdl.Project{}
	err := walkFiles(filepath.Join(root, "projects"), func(path string, d fs.DirEntry) {
		if _, ok := hdl.ProjectVendor(d.Name()); !ok {
			return
		}
		p, err := hdl.ParseProject(root, path)
		if err != nil {
			rep.warn(err.Error())
			return
		}
		if prev, dup := projects[p.Key]; dup {
			rep.warn(fmt.Sprintf("project %s: both %s and %s found", p.Key, prev.Script, p.Script))
			return
		}
		projects[p.Key] = p
	})
	if err != nil {
		return err
	}
	rep.Projects = len(projects)

	keys := make([]string, 0, len(projects))
	for k := range projects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	mk := hdl.MakefileOptions{Copyright: opts.HDL.Copyright}
	for _, k := range keys {
		p := projects[k]
		if msg := hdl.ValidateCarrier(p, carriers); msg != "" {
			rep.warn(msg)
		}
		for _, m := range hdl.ResolveProject(root, p, libs) {
			rep.warn(m)
		}
		if deps, err := hdl.ProjectClosure(libs, p); err == nil {
			slog.Debug("Resolved project", logfields.Project(p.Key), logfields.Carrier(p.Carrier),
				logfields.Vendor(string(p.Vendor)), logfields.Count(len(deps)))
		}
		written, err := hdl.WriteProjectMakefile(root, projects, k, mk)
		if err != nil {
			return err
		}
		if written {
			rep.wrote(root, filepath.Join(root, p.Dir, "Makefile"))
		}
	}
	return nil
}

func generateRegmaps(root string, opts Options, rep *Report) error {
	set := regmap.Set{}
	err := walkFiles(filepath.Join(root, opts.HDL.RegmapDir), func(path string, d fs.DirEntry) {
		if regmap.NameFromFile(d.Name()) == "" {
			return
		}
		rm, err := regmap.ParseFile(path)
		if err != nil {
			rep.warn(err.Error())
			return
		}
		for _, w := range rm.Warnings {
			rep.warn(w)
		}
		set[rm.Name] = rm
	})
	if err != nil {
		return err
	}
	rep.Regmaps = len(set)
	if len(set) == 0 {
		return nil
	}

	for _, err := range regmap.Resolve(set) {
		rep.warn(err.Error())
	}
	if err := regmap.Expand(set); err != nil {
		return err
	}
	if !rep.Testbenches {
		return nil
	}

	outDir := filepath.Join(root, opts.HDL.RegmapOutputDir)
	wopts := regmap.WriteOptions{Now: opts.Now, Copyright: opts.HDL.Copyright}
	for _, name := range set.Names() {
		written, err := regmap.WritePackage(outDir, set[name], name, wopts)
		if err != nil {
			return err
		}
		if written {
			rep.wrote(root, filepath.Join(outDir, regmap.PackageFileName(name)))
		}
		slog.Debug("Generated register map", logfields.Regmap(name), slog.Bool("written", written))
	}
	return nil
}

// walkFiles calls fn for every regular file below dir, skipping the shared
// scripts directories. A missing dir is not an error.
func walkFiles(dir string, fn func(path string, d fs.DirEntry)) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			if path != dir && (d.Name() == "scripts" || d.Name() == ".git") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			fn(path, d)
		}
		return nil
	})
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "scan directory").
			WithContext("path", dir).Build()
	}
	return nil
}
