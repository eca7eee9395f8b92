package regmap

import (
	"fmt"
	"strings"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

type resolveState int

const (
	unresolved resolveState = iota
	resolving
	resolved
	failed
)

type regKey struct {
	regmap string
	title  string
	index  int
}

type resolver struct {
	set   Set
	state map[regKey]resolveState
	errs  []error
}

// Resolve replaces every import register of the set with a copy of the
// register it points at. Imports that cannot be resolved are reported and
// removed from their sub-regmap.
func Resolve(set Set) []error {
	r := &resolver{set: set, state: map[regKey]resolveState{}}
	for _, name := range set.Names() {
		rm := set[name]
		for _, s := range rm.Subregmaps {
			for i := range s.Registers {
				r.resolve(rm, s, i)
			}
		}
	}
	for _, name := range set.Names() {
		rm := set[name]
		for _, s := range rm.Subregmaps {
			kept := s.Registers[:0]
			for i, reg := range s.Registers {
				if r.state[regKey{rm.Name, s.ID, i}] != failed {
					kept = append(kept, reg)
				}
			}
			s.Registers = kept
		}
	}
	return r.errs
}

func (r *resolver) resolve(rm *Regmap, s *Subregmap, i int) bool {
	key := regKey{rm.Name, s.ID, i}
	reg := &s.Registers[i]
	if reg.Import == nil {
		return true
	}
	switch r.state[key] {
	case resolved:
		return true
	case failed:
		return false
	case resolving:
		r.fail(key, rm, reg, fmt.Sprintf("import cycle through %s", reg.Import))
		return false
	}
	r.state[key] = resolving

	trm, ts, ti, msg := r.lookup(rm, s, reg.Import)
	if msg != "" {
		r.fail(key, rm, reg, msg)
		return false
	}
	if !r.resolve(trm, ts, ti) {
		if r.state[key] != failed {
			r.fail(key, rm, reg, fmt.Sprintf("imported register %s is unresolved", reg.Import))
		}
		return false
	}

	src := &ts.Registers[ti]
	reg.Fields = cloneFields(src.Fields)
	if reg.Description == "" {
		reg.Description = src.Description
	}
	if reg.Loop == nil && src.Loop != nil {
		l := *src.Loop
		reg.Loop = &l
	}
	reg.Name = reg.Import.Register
	reg.Import = nil
	r.state[key] = resolved
	return true
}

// lookup finds the imported register in the same regmap or in any regmap
// named by the sub-regmap's USING lines.
func (r *resolver) lookup(rm *Regmap, s *Subregmap, imp *Import) (*Regmap, *Subregmap, int, string) {
	candidates := []*Regmap{rm}
	var missing []string
	for _, u := range s.Using {
		other, ok := r.set[u]
		if !ok {
			missing = append(missing, u)
			continue
		}
		if other != rm {
			candidates = append(candidates, other)
		}
	}
	titleFound := false
	for _, c := range candidates {
		ts, ok := c.Subregmap(imp.Title)
		if !ok {
			continue
		}
		titleFound = true
		for i := range ts.Registers {
			if ts.Registers[i].Name == imp.Register || importName(&ts.Registers[i]) == imp.Register {
				return c, ts, i, ""
			}
		}
	}
	switch {
	case titleFound:
		return nil, nil, 0, fmt.Sprintf("unknown register %s", imp)
	case len(missing) > 0:
		return nil, nil, 0, fmt.Sprintf("unknown title %s (regmaps not found: %s)", imp.Title, strings.Join(missing, ", "))
	default:
		return nil, nil, 0, fmt.Sprintf("unknown title %s", imp.Title)
	}
}

// importName is the name a register will carry once its import is resolved.
func importName(reg *Register) string {
	if reg.Import != nil {
		return reg.Import.Register
	}
	return reg.Name
}

func (r *resolver) fail(key regKey, rm *Regmap, reg *Register, msg string) {
	r.state[key] = failed
	r.errs = append(r.errs, derrors.ResolveError(msg).
		At(rm.File, reg.Line).
		WithContext("regmap", rm.Name).
		WithContext("register", reg.Name).
		Build())
}

func cloneFields(in []Field) []Field {
	out := make([]Field, len(in))
	for i, f := range in {
		out[i] = f
		if f.Loop != nil {
			l := *f.Loop
			out[i].Loop = &l
		}
	}
	return out
}
