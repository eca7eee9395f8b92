package hdl

import (
	"fmt"
	"path/filepath"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

// InterfacesScript is the file name of interface definition scripts.
const InterfacesScript = "interfaces_ip.tcl"

// ParseInterfaces reads the adi_if_define and adi_if_ports commands of an
// interface script.
func ParseInterfaces(path string) ([]Interface, error) {
	cmds, err := ParseTclFile(path)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "read interface script").
			WithContext("file", path).Build()
	}
	dir := filepath.Dir(path)
	var (
		out     []Interface
		current *Interface
	)
	for _, c := range cmds {
		switch c.Name() {
		case "adi_if_define":
			if c.Arg(0) == "" {
				return nil, derrors.ParseError("adi_if_define without a name").At(path, c.Line).Build()
			}
			out = append(out, Interface{Name: c.Arg(0), Dir: dir})
			current = &out[len(out)-1]
		case "adi_if_ports":
			if current == nil {
				return nil, derrors.ParseError("adi_if_ports before adi_if_define").At(path, c.Line).Build()
			}
			if len(c.Words) < 4 {
				return nil, derrors.ParseError(fmt.Sprintf("adi_if_ports needs direction, width and name, got %d arguments", len(c.Words)-1)).
					At(path, c.Line).Build()
			}
			current.Ports = append(current.Ports, Port{
				Direction: c.Arg(0),
				Width:     c.Arg(1),
				Name:      c.Arg(2),
				Type:      c.Arg(3),
			})
		}
	}
	return out, nil
}

// InterfaceDirs maps every interface name to the directory defining it,
// relative to root.
func InterfaceDirs(root string, paths []string) (map[string]string, []string, error) {
	dirs := map[string]string{}
	var msgs []string
	for _, p := range paths {
		ifs, err := ParseInterfaces(p)
		if err != nil {
			return nil, nil, err
		}
		for _, i := range ifs {
			rel, err := filepath.Rel(root, i.Dir)
			if err != nil {
				return nil, nil, derrors.WrapError(err, derrors.CategoryFileSystem, "relativize interface directory").
					WithContext("path", i.Dir).Build()
			}
			if prev, dup := dirs[i.Name]; dup && prev != rel {
				msgs = append(msgs, fmt.Sprintf("interface %s defined in %s and %s", i.Name, prev, rel))
				continue
			}
			dirs[i.Name] = rel
		}
	}
	return dirs, msgs, nil
}
