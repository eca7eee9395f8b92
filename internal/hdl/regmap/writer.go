package regmap

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

// WriteOptions tune the generated package.
type WriteOptions struct {
	// Now is the generation time; zero means time.Now().
	Now time.Time
	// Copyright is the holder named in the license header.
	Copyright string
}

const (
	datePrefix      = "/* Generated on "
	copyrightPrefix = "// Copyright (C) "
)

var copyrightYearRe = regexp.MustCompile(`^// Copyright \(C\) \d+ `)

var pkgTemplate = template.Must(template.New("pkg").Funcs(template.FuncMap{
	"lower": strings.ToLower,
	"hex":   func(v int64) string { return fmt.Sprintf("'h%X", v) },
	"fieldDefault": func(d Default) string {
		switch {
		case d.Symbolic():
			return d.Symbol
		case d.Set:
			return fmt.Sprintf("'h%X", d.Value)
		default:
			return "0"
		}
	},
	"params": func(ps []string) string {
		var b strings.Builder
		for _, p := range ps {
			b.WriteString(", " + p)
		}
		return b.String()
	},
}).Parse(`// ***************************************************************************
// ***************************************************************************
// Copyright (C) {{.Year}} {{.Copyright}}. All rights reserved.
//
// In this HDL repository, there are many different and unique modules, consisting
// of various HDL (Verilog or VHDL) components. The individual modules are
// developed independently, and may be accompanied by separate and unique license
// terms.
//
// The user should read each of these license terms, and understand the
// freedoms and responsibilities that he or she has by using this source/core.
//
// This core is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A
// PARTICULAR PURPOSE.
//
// ***************************************************************************
// ***************************************************************************
/* Auto generated Register Map */
` + datePrefix + `{{.Date}} */

package adi_regmap_{{.Name}}_pkg;
  import adi_regmap_pkg::*;
{{range .Subregmaps}}
/* {{.Title}} ({{lower .ID}}) */

  class adi_regmap_{{lower .ID}} extends adi_regmap;
{{range .Expanded}}
    /* {{.Name}} */
    class {{.Name}}_CLASS extends register_base;
{{- range .Fields}}
      field_base {{.Name}}_F;
{{- end}}

      function new(
        input string name,
        input int address,
{{- range .Parameters}}
        input int {{.}},
{{- end}}
        input adi_regmap parent = null);

        super.new(name, address, parent);
{{range .Fields}}
        this.{{.Name}}_F = new("{{.Name}}", {{.MSB}}, {{.LSB}}, {{.Access}}, {{fieldDefault .Default}}, this);
{{- end}}

        this.initialization_done = 1;
      endfunction: new
    endclass: {{.Name}}_CLASS
{{end}}
{{- range .Expanded}}
    {{.Name}}_CLASS {{.Name}}_R;
{{- end}}

    function new(
      input string name,
      input int address,
{{- range .Parameters}}
      input int {{.}},
{{- end}}
      input adi_api parent = null);

      super.new(name, address, parent);
{{range .Expanded}}
      this.{{.Name}}_R = new("{{.Name}}", {{hex .ByteAddress}}{{params .Parameters}}, this);
{{- end}}

      this.info($sformatf("Initialized"), ADI_VERBOSITY_HIGH);
    endfunction: new

  endclass: adi_regmap_{{lower .ID}}
{{end}}
endpackage: adi_regmap_{{.Name}}_pkg
`))

type pkgData struct {
	Name       string
	Year       int
	Date       string
	Copyright  string
	Subregmaps []*Subregmap
}

// PackageFileName is the SystemVerilog file written for a regmap name.
func PackageFileName(name string) string {
	return "adi_regmap_" + name + "_pkg.sv"
}

// RenderPackage renders the SystemVerilog package of an expanded regmap.
func RenderPackage(rm *Regmap, name string, opts WriteOptions) ([]byte, error) {
	if name == "" {
		name = rm.Name
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	data := pkgData{
		Name:       name,
		Year:       now.Year(),
		Date:       now.Format(time.ANSIC),
		Copyright:  opts.Copyright,
		Subregmaps: rm.Subregmaps,
	}
	var buf bytes.Buffer
	if err := pkgTemplate.Execute(&buf, data); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryCodegen, "render regmap package").
			WithContext("regmap", name).Build()
	}
	return buf.Bytes(), nil
}

// WritePackage writes adi_regmap_<name>_pkg.sv into dir. The file is left
// untouched when only the generation date would change; the returned bool
// reports whether it was written.
func WritePackage(dir string, rm *Regmap, name string, opts WriteOptions) (bool, error) {
	if name == "" {
		name = rm.Name
	}
	out, err := RenderPackage(rm, name, opts)
	if err != nil {
		return false, err
	}
	path := filepath.Join(dir, PackageFileName(name))
	// #nosec G304 -- path is built from the output directory and a regmap name.
	if prev, err := os.ReadFile(path); err == nil && bytes.Equal(withoutDate(prev), withoutDate(out)) {
		return false, nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return false, derrors.WrapError(err, derrors.CategoryFileSystem, "create regmap output directory").
			WithContext("path", dir).Build()
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return false, derrors.WrapError(err, derrors.CategoryFileSystem, "write regmap package").
			WithContext("path", path).Build()
	}
	return true, nil
}

// withoutDate drops the generation date line and the copyright year so
// regenerating an unchanged regmap keeps the file untouched.
func withoutDate(b []byte) []byte {
	var out [][]byte
	for _, l := range bytes.Split(b, []byte("\n")) {
		if bytes.HasPrefix(l, []byte(datePrefix)) {
			continue
		}
		out = append(out, copyrightYearRe.ReplaceAll(l, []byte(copyrightPrefix)))
	}
	return bytes.Join(out, []byte("\n"))
}
