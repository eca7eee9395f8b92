package hdl

import (
	"path/filepath"
	"sort"
	"strings"
)

// Vendor is an FPGA toolchain.
type Vendor string

const (
	Xilinx Vendor = "xilinx"
	Intel  Vendor = "intel"
)

// Vendors lists the supported toolchains in output order.
var Vendors = []Vendor{Xilinx, Intel}

// LibrarySuffix is the suffix of the vendor script of an IP library.
func (v Vendor) LibrarySuffix() string {
	if v == Intel {
		return "_hw.tcl"
	}
	return "_ip.tcl"
}

// ProjectScript is the block design script of a project.
func (v Vendor) ProjectScript() string {
	if v == Intel {
		return "system_qsys.tcl"
	}
	return "system_bd.tcl"
}

// VendorScript is the carrier definition script, relative to the repository root.
func (v Vendor) VendorScript() string {
	return filepath.Join("projects", "scripts", "adi_project_"+string(v)+".tcl")
}

// MakeVar is the prefix of the vendor specific makefile variables.
func (v Vendor) MakeVar() string { return strings.ToUpper(string(v)) }

// LibraryVendor returns the vendor of a library script file name.
func LibraryVendor(base string) (Vendor, bool) {
	for _, v := range Vendors {
		if strings.HasSuffix(base, v.LibrarySuffix()) && base != v.LibrarySuffix() {
			return v, true
		}
	}
	return "", false
}

// ProjectVendor returns the vendor of a project script file name.
func ProjectVendor(base string) (Vendor, bool) {
	for _, v := range Vendors {
		if base == v.ProjectScript() {
			return v, true
		}
	}
	return "", false
}

// Carrier is a board defined by a vendor script.
type Carrier struct {
	Name   string
	Device string
	Board  string
	Family string
	Line   int
}

// Port is one signal of an interface definition.
type Port struct {
	Direction string
	Width     string
	Name      string
	Type      string
}

// Interface is a bus interface defined with adi_if_define.
type Interface struct {
	Name  string
	Dir   string
	Ports []Port
}

// VendorLibrary is the content of one vendor script of a library.
type VendorLibrary struct {
	Vendor     Vendor
	Script     string
	Name       string
	Files      []string
	CoreDeps   []string
	Interfaces []string
	Sources    []string
}

// Library is an IP core under library/, with one variant per vendor.
type Library struct {
	// Key is the directory relative to library/, e.g. "jesd204/jesd204_tx".
	Key     string
	Dir     string
	Name    string
	Vendors map[Vendor]*VendorLibrary

	// Populated by ResolveLibrary.
	GenericDeps   []string
	VendorDeps    map[Vendor][]string
	LibDeps       map[Vendor][]string
	InterfaceDeps map[Vendor][]string
}

// VendorNames returns the vendors the library supports in output order.
func (l *Library) VendorNames() []Vendor {
	var out []Vendor
	for _, v := range Vendors {
		if _, ok := l.Vendors[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Project is a reference design under projects/.
type Project struct {
	// Key is the directory relative to projects/, e.g. "fmcomms2/zed".
	Key     string
	Name    string
	Dir     string
	Carrier string
	Vendor  Vendor
	Script  string

	// Populated by ResolveProject.
	LibDeps []string
	MDeps   []string
}

func sortedUnique(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
