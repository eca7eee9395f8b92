package regmap

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Access is the software access type of a field.
type Access string

const (
	AccessRO   Access = "RO"
	AccessRW   Access = "RW"
	AccessWO   Access = "WO"
	AccessR    Access = "R"
	AccessW    Access = "W"
	AccessW1C  Access = "W1C"
	AccessRW1C Access = "RW1C"
	AccessW1S  Access = "W1S"
	AccessRW1S Access = "RW1S"
	AccessRWC  Access = "RWC"
	AccessNA   Access = "NA"
)

var knownAccess = map[Access]bool{
	AccessRO: true, AccessRW: true, AccessWO: true, AccessR: true, AccessW: true,
	AccessW1C: true, AccessRW1C: true, AccessW1S: true, AccessRW1S: true,
	AccessRWC: true, AccessNA: true,
}

// Known reports whether the access type is one the testbench understands.
func (a Access) Known() bool { return knownAccess[a] }

// Loop is a `WHERE n IS FROM a TO b` clause. Var is the lowercase loop
// variable; both bounds are inclusive.
type Loop struct {
	Var  string
	From int
	To   int
}

// Import points at a register of another sub-regmap: `<TITLE_ID>.<REG_NAME>`.
type Import struct {
	Title    string
	Register string
}

func (i Import) String() string { return i.Title + "." + i.Register }

// Field is one bit range of a register.
type Field struct {
	Name        string
	MSBExpr     string
	LSBExpr     string
	DefaultExpr string
	Access      Access
	Loop        *Loop
	Description string
	Line        int

	// Populated by Expand.
	MSB     int
	LSB     int
	Default Default
}

// Default is the evaluated reset value of a field. A symbolic default keeps
// the expression and the parameter names it references.
type Default struct {
	Set     bool
	Value   uint64
	Symbol  string
	Symbols []string
}

// Symbolic reports whether the default depends on a parameter.
func (d Default) Symbolic() bool { return d.Symbol != "" }

// Register is a REG block.
type Register struct {
	Name        string
	AddressExpr string
	Loop        *Loop
	Description string
	Fields      []Field
	Import      *Import
	Line        int

	// Populated by Expand; word address.
	Address int64
}

// ByteAddress is the address as seen on the bus.
func (r Register) ByteAddress() int64 { return r.Address * 4 }

// Parameters returns the sorted symbols referenced by the field defaults.
func (r Register) Parameters() []string {
	seen := map[string]bool{}
	for _, f := range r.Fields {
		for _, s := range f.Default.Symbols {
			seen[s] = true
		}
	}
	return sortedKeys(seen)
}

// Subregmap is the content of one TITLE section.
type Subregmap struct {
	Title     string
	ID        string
	Using     []string
	Registers []Register
	Line      int

	// Expanded holds the concrete registers after Expand, in declaration order.
	Expanded []Register
}

// Parameters returns the sorted union of the register parameters.
func (s *Subregmap) Parameters() []string {
	seen := map[string]bool{}
	for i := range s.Expanded {
		for _, p := range s.Expanded[i].Parameters() {
			seen[p] = true
		}
	}
	return sortedKeys(seen)
}

// register looks up an unexpanded register by name.
func (s *Subregmap) register(name string) (*Register, bool) {
	for i := range s.Registers {
		if s.Registers[i].Name == name {
			return &s.Registers[i], true
		}
	}
	return nil, false
}

// Regmap is one parsed adi_regmap_<name>.txt file.
type Regmap struct {
	Name       string
	File       string
	CTime      time.Time
	Subregmaps []*Subregmap
	Warnings   []string
}

// Subregmap looks up a sub-regmap by title ID.
func (r *Regmap) Subregmap(id string) (*Subregmap, bool) {
	for _, s := range r.Subregmaps {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Set is the collection of regmaps processed together, keyed by name.
type Set map[string]*Regmap

// Names returns the regmap names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// NameFromFile extracts <name> from adi_regmap_<name>.txt, or "" if the file
// does not follow the convention.
func NameFromFile(base string) string {
	m := fileNameRe.FindStringSubmatch(base)
	if m == nil {
		return ""
	}
	return m[1]
}

// substitute replaces the lowercase loop variable in a name by its index.
func substitute(name string, loop *Loop, idx int) string {
	if loop == nil {
		return name
	}
	return strings.ReplaceAll(name, loop.Var, strconv.Itoa(idx))
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
