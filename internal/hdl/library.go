package hdl

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

var interfaceRe = regexp.MustCompile(`analog\.com:interface:(\w+)`)

// ParseLibrary reads one vendor script of a library.
func ParseLibrary(path string) (*VendorLibrary, error) {
	v, ok := LibraryVendor(filepath.Base(path))
	if !ok {
		return nil, derrors.ValidationError("not a library vendor script").WithContext("file", path).Build()
	}
	cmds, err := ParseTclFile(path)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "read library script").
			WithContext("file", path).Build()
	}

	lib := &VendorLibrary{Vendor: v, Script: filepath.Base(path)}
	seenIf := map[string]bool{}
	Walk(cmds, func(c Command) {
		switch c.Name() {
		case "adi_ip_create", "ad_ip_create":
			if lib.Name == "" {
				lib.Name = c.Arg(0)
			}
		case "adi_ip_files", "ad_ip_files":
			if len(c.Words) > 2 {
				lib.Files = append(lib.Files, ListItems(c.Words[2])...)
			}
		case "adi_ip_add_core_dependencies":
			for _, w := range c.Args() {
				for _, vlnv := range ListItems(w) {
					if dep := vlnvLibrary(vlnv); dep != "" {
						lib.CoreDeps = append(lib.CoreDeps, dep)
					}
				}
			}
		case "add_hdl_instance":
			if ip := c.Arg(1); ip != "" {
				lib.CoreDeps = append(lib.CoreDeps, ip)
			}
		case "source":
			if f := c.Arg(0); f != "" {
				lib.Sources = append(lib.Sources, f)
			}
		}
		for _, w := range c.Words {
			for _, m := range interfaceRe.FindAllStringSubmatch(w.Text, -1) {
				name := strings.TrimSuffix(m[1], "_rtl")
				if !seenIf[name] {
					seenIf[name] = true
					lib.Interfaces = append(lib.Interfaces, name)
				}
			}
		}
	})
	if lib.Name == "" {
		return nil, derrors.ParseError("library script does not create an IP").At(path, 0).Build()
	}
	return lib, nil
}

// vlnvLibrary returns the library name of a vendor:library:name:version
// identifier. Interface identifiers are skipped.
func vlnvLibrary(vlnv string) string {
	parts := strings.Split(vlnv, ":")
	if len(parts) < 3 || parts[1] == "interface" {
		return ""
	}
	return parts[2]
}

// LoadLibraries parses the given vendor scripts and groups the variants by
// library directory.
func LoadLibraries(root string, scripts []string) (map[string]*Library, []string, error) {
	libRoot := filepath.Join(root, "library")
	libs := map[string]*Library{}
	var msgs []string
	sorted := append([]string(nil), scripts...)
	sort.Strings(sorted)
	for _, script := range sorted {
		vl, err := ParseLibrary(script)
		if err != nil {
			return nil, nil, err
		}
		dir := filepath.Dir(script)
		key, err := filepath.Rel(libRoot, dir)
		if err != nil || strings.HasPrefix(key, "..") {
			return nil, nil, derrors.ValidationError("library script outside of library/").
				WithContext("file", script).Build()
		}
		key = filepath.ToSlash(key)
		rel, _ := filepath.Rel(root, dir)

		lib, ok := libs[key]
		if !ok {
			lib = &Library{Key: key, Dir: rel, Name: vl.Name, Vendors: map[Vendor]*VendorLibrary{}}
			libs[key] = lib
		}
		if prev, dup := lib.Vendors[vl.Vendor]; dup {
			msgs = append(msgs, fmt.Sprintf("library %s: %s and %s are both %s scripts", key, prev.Script, vl.Script, vl.Vendor))
			continue
		}
		if vl.Name != lib.Name {
			msgs = append(msgs, fmt.Sprintf("library %s: %s creates %s, expected %s", key, vl.Script, vl.Name, lib.Name))
		}
		lib.Vendors[vl.Vendor] = vl
	}
	return libs, msgs, nil
}

// ResolveLibrary computes the makefile dependencies of the library key.
// interfaceDirs maps interface names to their directory relative to root.
// The returned messages are warnings.
func ResolveLibrary(root string, libs map[string]*Library, key string, interfaceDirs map[string]string) []string {
	lib, ok := libs[key]
	if !ok {
		return []string{fmt.Sprintf("library %s: unknown", key)}
	}
	absDir := filepath.Join(root, lib.Dir)
	var msgs []string
	warnf := func(format string, args ...any) {
		msgs = append(msgs, fmt.Sprintf("library %s: ", key)+fmt.Sprintf(format, args...))
	}

	vendors := lib.VendorNames()
	files := map[Vendor][]string{}
	for _, v := range vendors {
		for _, f := range lib.Vendors[v].Files {
			rel, ok := relPath(root, absDir, absDir, f)
			if !ok {
				warnf("cannot resolve file %s", f)
				continue
			}
			files[v] = append(files[v], rel)
		}
		files[v] = sortedUnique(files[v])
	}

	lib.GenericDeps = intersect(vendors, files)
	generic := map[string]bool{}
	for _, f := range lib.GenericDeps {
		generic[f] = true
	}

	idx := newLibraryIndex(libs)
	lib.VendorDeps = map[Vendor][]string{}
	lib.LibDeps = map[Vendor][]string{}
	lib.InterfaceDeps = map[Vendor][]string{}
	for _, v := range vendors {
		vl := lib.Vendors[v]
		deps := []string{vl.Script}
		for _, f := range files[v] {
			if !generic[f] {
				deps = append(deps, f)
			}
		}
		for _, s := range vl.Sources {
			rel, ok := relPath(root, absDir, absDir, s)
			if !ok {
				warnf("cannot resolve sourced file %s", s)
				continue
			}
			if !isScriptsPath(root, filepath.Join(absDir, rel)) {
				deps = append(deps, rel)
			}
		}
		lib.VendorDeps[v] = sortedUnique(deps)

		var libDeps []string
		for _, d := range vl.CoreDeps {
			depKey, ok := idx.lookup(d, v)
			if !ok {
				warnf("%s dependency %s is not a known library", v, d)
				continue
			}
			if depKey != key {
				libDeps = append(libDeps, depKey)
			}
		}
		lib.LibDeps[v] = sortedUnique(libDeps)

		var ifDeps []string
		for _, name := range vl.Interfaces {
			dir, ok := interfaceDirs[name]
			if !ok {
				warnf("interface %s is not defined", name)
				continue
			}
			rel, err := filepath.Rel(absDir, filepath.Join(root, dir))
			if err != nil {
				warnf("interface %s: %v", name, err)
				continue
			}
			rel = filepath.ToSlash(rel)
			ifDeps = append(ifDeps, rel+"/"+name+".xml", rel+"/"+name+"_rtl.xml")
		}
		lib.InterfaceDeps[v] = sortedUnique(ifDeps)
	}
	return msgs
}

// libraryIndex finds the library key of an IP name or key.
type libraryIndex struct {
	libs   map[string]*Library
	byName map[string][]string // IP name -> sorted keys
}

func newLibraryIndex(libs map[string]*Library) *libraryIndex {
	idx := &libraryIndex{libs: libs, byName: map[string][]string{}}
	keys := make([]string, 0, len(libs))
	for key := range libs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		name := libs[key].Name
		idx.byName[name] = append(idx.byName[name], key)
	}
	return idx
}

// lookup resolves name for vendor v. A library key wins over an IP name.
// When several libraries create the same IP, the first key in sorted order
// with a v variant is used, else the first key.
func (idx *libraryIndex) lookup(name string, v Vendor) (string, bool) {
	if _, ok := idx.libs[name]; ok {
		return name, true
	}
	keys := idx.byName[name]
	if len(keys) == 0 {
		return "", false
	}
	for _, key := range keys {
		if _, ok := idx.libs[key].Vendors[v]; ok {
			return key, true
		}
	}
	return keys[0], true
}

func intersect(vendors []Vendor, files map[Vendor][]string) []string {
	if len(vendors) == 0 {
		return nil
	}
	count := map[string]int{}
	for _, v := range vendors {
		for _, f := range files[v] {
			count[f]++
		}
	}
	var out []string
	for f, n := range count {
		if n == len(vendors) {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// relPath resolves a path written in a script run from cwd and returns it
// relative to base. Paths with variables other than ad_hdl_dir cannot be
// resolved.
func relPath(root, cwd, base, p string) (string, bool) {
	p = strings.NewReplacer("${ad_hdl_dir}", root, "$ad_hdl_dir", root).Replace(p)
	if p == "" || strings.ContainsAny(p, "$[") {
		return "", false
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(cwd, p)
	}
	rel, err := filepath.Rel(base, filepath.Clean(p))
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// isScriptsPath reports whether path lies in a shared scripts directory.
func isScriptsPath(root, path string) bool {
	for _, d := range []string{"scripts", "projects/scripts", "library/scripts"} {
		if within(filepath.Join(root, d), path) {
			return true
		}
	}
	return false
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, "../")
}
