package hdl

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

var carrierRe = regexp.MustCompile(`^\[regexp\s+"_(\w+)\$"\s+\$project_name\]$`)

// ParseVendor reads the carrier definitions of a vendor script. The returned
// messages report duplicated carriers and carriers without a device.
func ParseVendor(path string) (map[string]Carrier, []string, error) {
	cmds, err := ParseTclFile(path)
	if err != nil {
		return nil, nil, derrors.WrapError(err, derrors.CategoryFileSystem, "read vendor script").
			WithContext("file", path).Build()
	}

	carriers := map[string]Carrier{}
	var msgs []string
	Walk(cmds, func(c Command) {
		if c.Name() != "if" {
			return
		}
		for _, br := range ifBranches(c) {
			m := carrierRe.FindStringSubmatch(strings.TrimSpace(br.cond.Text))
			if m == nil {
				continue
			}
			car := carrierFrom(m[1], br.body)
			if prev, dup := carriers[car.Name]; dup {
				msgs = append(msgs, fmt.Sprintf("line %d: carrier %s already defined at line %d", car.Line, car.Name, prev.Line))
				continue
			}
			if car.Device == "" {
				msgs = append(msgs, fmt.Sprintf("line %d: carrier %s has no device", car.Line, car.Name))
			}
			carriers[car.Name] = car
		}
	})
	return carriers, msgs, nil
}

type ifBranch struct {
	cond Word
	body Word
}

// ifBranches returns the condition and body of the if and elseif branches.
func ifBranches(c Command) []ifBranch {
	var out []ifBranch
	w := c.Words
	for i := 1; i+1 < len(w); {
		if w[i+1].Kind != WordBraced {
			return out
		}
		out = append(out, ifBranch{cond: w[i], body: w[i+1]})
		i += 2
		if i < len(w) && w[i].Text == "elseif" {
			i++
			continue
		}
		return out
	}
	return out
}

func carrierFrom(name string, body Word) Carrier {
	car := Carrier{Name: name, Line: body.Line}
	for _, s := range ParseTcl(body.Text, body.Line) {
		if s.Name() != "set" || len(s.Words) < 3 {
			continue
		}
		switch s.Arg(0) {
		case "device":
			car.Device = s.Arg(1)
		case "board":
			car.Board = s.Arg(1)
		case "family":
			car.Family = s.Arg(1)
		}
	}
	return car
}

// ParseVendors reads the carrier scripts of every vendor present under root.
func ParseVendors(root string) (map[Vendor]map[string]Carrier, []string, error) {
	out := map[Vendor]map[string]Carrier{}
	var msgs []string
	for _, v := range Vendors {
		rel := v.VendorScript()
		carriers, m, err := ParseVendor(filepath.Join(root, rel))
		if err != nil {
			if derrors.HasCategory(err, derrors.CategoryFileSystem) {
				msgs = append(msgs, fmt.Sprintf("%s: vendor script not found", rel))
				continue
			}
			return nil, nil, err
		}
		for _, s := range m {
			msgs = append(msgs, rel+": "+s)
		}
		out[v] = carriers
	}
	return out, msgs, nil
}

// ValidateCarrier returns a warning when the project carrier is not defined
// by the vendor script of its toolchain.
func ValidateCarrier(p *Project, carriers map[Vendor]map[string]Carrier) string {
	defined, ok := carriers[p.Vendor]
	if !ok {
		return ""
	}
	if _, ok := defined[p.Carrier]; ok {
		return ""
	}
	return fmt.Sprintf("project %s: carrier %s is not defined in %s", p.Key, p.Carrier, p.Vendor.VendorScript())
}
