package regmap

import (
	"errors"
	"fmt"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

// MaxBit is the highest bit position of a 32-bit register.
const MaxBit = 31

// Expand unrolls the WHERE loops of every resolved sub-regmap into its
// Expanded register list and evaluates addresses, bit positions and defaults.
func Expand(set Set) error {
	var errs []error
	for _, name := range set.Names() {
		rm := set[name]
		for _, s := range rm.Subregmaps {
			expanded, err := expandSubregmap(rm, s)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			s.Expanded = expanded
		}
	}
	return errors.Join(errs...)
}

func expandSubregmap(rm *Regmap, s *Subregmap) ([]Register, error) {
	var out []Register
	for i := range s.Registers {
		reg := &s.Registers[i]
		if reg.Import != nil {
			return nil, expandErr(rm, reg.Line, "unresolved import register %s", reg.Name)
		}
		if l := reg.Loop; l != nil && l.To > l.From && !usesVar(reg.AddressExpr, l.Var) {
			return nil, expandErr(rm, reg.Line, "register %s: address %s does not depend on loop variable %s",
				reg.Name, reg.AddressExpr, l.Var)
		}
		for _, idx := range indices(reg.Loop) {
			vars := bind(nil, reg.Loop, idx)
			r, err := expandRegister(rm, reg, idx, vars)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
	}
	warnSharedAddresses(rm, s, out)
	return out, nil
}

func warnSharedAddresses(rm *Regmap, s *Subregmap, regs []Register) {
	seen := make(map[int64]string, len(regs))
	for _, r := range regs {
		if prev, ok := seen[r.Address]; ok {
			rm.Warnings = append(rm.Warnings, fmt.Sprintf("%s:%d: %s: registers %s and %s share address 0x%x",
				rm.File, r.Line, s.ID, prev, r.Name, r.Address))
			continue
		}
		seen[r.Address] = r.Name
	}
}

func expandRegister(rm *Regmap, reg *Register, idx int, vars map[string]int64) (Register, error) {
	addr, err := Eval(reg.AddressExpr, vars)
	if err != nil {
		return Register{}, expandErr(rm, reg.Line, "register %s: address: %v", reg.Name, err)
	}
	if addr < 0 {
		return Register{}, expandErr(rm, reg.Line, "register %s: negative address %d", reg.Name, addr)
	}
	out := Register{
		Name:        substitute(reg.Name, reg.Loop, idx),
		AddressExpr: reg.AddressExpr,
		Description: reg.Description,
		Line:        reg.Line,
		Address:     addr,
	}
	for _, f := range reg.Fields {
		if f.Loop != nil && reg.Loop != nil && f.Loop.Var == reg.Loop.Var {
			return Register{}, expandErr(rm, f.Line, "field %s reuses loop variable %s of register %s", f.Name, f.Loop.Var, reg.Name)
		}
		for _, fidx := range indices(f.Loop) {
			fvars := bind(vars, f.Loop, fidx)
			ef, err := expandField(rm, f, fvars)
			if err != nil {
				return Register{}, err
			}
			ef.Name = substitute(substitute(f.Name, f.Loop, fidx), reg.Loop, idx)
			out.Fields = append(out.Fields, ef)
		}
	}
	return out, nil
}

func expandField(rm *Regmap, f Field, vars map[string]int64) (Field, error) {
	msb, err := Eval(f.MSBExpr, vars)
	if err != nil {
		return Field{}, expandErr(rm, f.Line, "field %s: msb: %v", f.Name, err)
	}
	lsb, err := Eval(f.LSBExpr, vars)
	if err != nil {
		return Field{}, expandErr(rm, f.Line, "field %s: lsb: %v", f.Name, err)
	}
	if msb < lsb {
		return Field{}, expandErr(rm, f.Line, "field %s: msb %d below lsb %d", f.Name, msb, lsb)
	}
	if lsb < 0 || msb > MaxBit {
		return Field{}, expandErr(rm, f.Line, "field %s: bits [%d:%d] outside [%d:0]", f.Name, msb, lsb, MaxBit)
	}
	out := f
	out.Loop = nil
	out.MSB, out.LSB = int(msb), int(lsb)

	d, err := evalDefault(f.DefaultExpr, vars)
	if err != nil {
		return Field{}, expandErr(rm, f.Line, "field %s: default: %v", f.Name, err)
	}
	if d.Set && !d.Symbolic() && d.Value>>uint(msb-lsb+1) != 0 {
		rm.Warnings = append(rm.Warnings, fmt.Sprintf("%s:%d: default 0x%x of %s does not fit in %d bits",
			rm.File, f.Line, d.Value, f.Name, msb-lsb+1))
	}
	out.Default = d
	return out, nil
}

func evalDefault(expr string, vars map[string]int64) (Default, error) {
	if expr == "" {
		return Default{}, nil
	}
	v, err := Eval(expr, vars)
	if err == nil {
		if v < 0 {
			return Default{}, fmt.Errorf("negative value %d", v)
		}
		return Default{Set: true, Value: uint64(v)}, nil
	}
	var unknown *UnknownSymbolError
	if !errors.As(err, &unknown) {
		return Default{}, err
	}
	syms := symbols(expr, vars)
	for _, s := range syms {
		if !isParameter(s) {
			return Default{}, fmt.Errorf("unknown symbol %q", s)
		}
	}
	return Default{Set: true, Symbol: svExpr(expr, vars), Symbols: syms}, nil
}

// isParameter reports whether an identifier names a synthesis parameter,
// which are written in upper case.
func isParameter(s string) bool {
	if s == "" || (s[0] >= 'a' && s[0] <= 'z') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= 'a' && s[i] <= 'z' {
			return false
		}
	}
	return true
}

func indices(l *Loop) []int {
	if l == nil {
		return []int{0}
	}
	out := make([]int, 0, l.To-l.From+1)
	for i := l.From; i <= l.To; i++ {
		out = append(out, i)
	}
	return out
}

func bind(vars map[string]int64, l *Loop, idx int) map[string]int64 {
	out := make(map[string]int64, len(vars)+1)
	for k, v := range vars {
		out[k] = v
	}
	if l != nil {
		out[l.Var] = int64(idx)
	}
	return out
}

func expandErr(rm *Regmap, line int, format string, args ...any) error {
	return derrors.ResolveError(fmt.Sprintf(format, args...)).
		At(rm.File, line).
		WithContext("regmap", rm.Name).
		Build()
}
