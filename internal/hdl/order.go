package hdl

import (
	"sort"
	"strings"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

// libraryEdges returns the library keys a library depends on for any vendor.
func libraryEdges(lib *Library) []string {
	var out []string
	for _, deps := range lib.LibDeps {
		out = append(out, deps...)
	}
	return sortedUnique(out)
}

type orderer struct {
	libs  map[string]*Library
	state map[string]int
	stack []string
	out   []string
}

const (
	unvisited = iota
	visiting
	done
)

// visit appends key after its dependencies, depth first.
func (o *orderer) visit(key string) error {
	switch o.state[key] {
	case done:
		return nil
	case visiting:
		cycle := append([]string(nil), o.stack[indexOf(o.stack, key):]...)
		cycle = append(cycle, key)
		return derrors.ResolveError("library dependency cycle: "+strings.Join(cycle, " -> ")).
			WithContext("library", key).Build()
	}
	o.state[key] = visiting
	o.stack = append(o.stack, key)
	if lib, ok := o.libs[key]; ok {
		for _, dep := range libraryEdges(lib) {
			if err := o.visit(dep); err != nil {
				return err
			}
		}
	}
	o.stack = o.stack[:len(o.stack)-1]
	o.state[key] = done
	o.out = append(o.out, key)
	return nil
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return 0
}

// LibraryOrder returns every library key with dependencies before their
// dependents. Ties are broken by key.
func LibraryOrder(libs map[string]*Library) ([]string, error) {
	o := &orderer{libs: libs, state: map[string]int{}}
	ks := make([]string, 0, len(libs))
	for k := range libs {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	for _, k := range ks {
		if err := o.visit(k); err != nil {
			return nil, err
		}
	}
	return o.out, nil
}

// Closure returns the transitive library dependencies of key in build order,
// excluding key itself.
func Closure(libs map[string]*Library, key string) ([]string, error) {
	o := &orderer{libs: libs, state: map[string]int{}}
	if err := o.visit(key); err != nil {
		return nil, err
	}
	return o.out[:len(o.out)-1], nil
}

// ProjectClosure returns every library a resolved project needs, directly or
// through other libraries, in build order.
func ProjectClosure(libs map[string]*Library, p *Project) ([]string, error) {
	o := &orderer{libs: libs, state: map[string]int{}}
	for _, dep := range p.LibDeps {
		if err := o.visit(dep); err != nil {
			return nil, err
		}
	}
	return o.out, nil
}
