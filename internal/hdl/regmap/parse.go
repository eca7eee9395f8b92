package regmap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

var (
	fileNameRe = regexp.MustCompile(`^adi_regmap_(\w+)\.txt$`)
	whereRe    = regexp.MustCompile(`^WHERE\s+([a-z])\s+IS\s+FROM\s+(.+?)\s+TO\s+(.+)$`)
	usingRe    = regexp.MustCompile(`^USING\s+(\S+)$`)
	bitsRe     = regexp.MustCompile(`^\[([^\]:]+)(?::([^\]]+))?\]\s*(.*)$`)
)

const (
	kwTitle    = "TITLE"
	kwEndTitle = "ENDTITLE"
	kwReg      = "REG"
	kwEndReg   = "ENDREG"
	kwField    = "FIELD"
	kwEndField = "ENDFIELD"
)

// blockLine is a trimmed line of a block body with its source line number.
type blockLine struct {
	text string
	no   int
}

type parser struct {
	file  string
	rm    *Regmap
	title *Subregmap
	reg   *Register
}

// ParseFile parses a regmap file and records its modification time.
func ParseFile(path string) (*Regmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "open regmap").
			WithContext("file", path).Build()
	}
	defer func() { _ = f.Close() }()

	rm, err := Parse(f, path)
	if err != nil {
		return nil, err
	}
	if info, statErr := f.Stat(); statErr == nil {
		rm.CTime = info.ModTime()
	}
	return rm, nil
}

// Parse reads a regmap description. file is used for the regmap name and in
// error locations.
func Parse(r io.Reader, file string) (*Regmap, error) {
	base := filepath.Base(file)
	name := NameFromFile(base)
	if name == "" {
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	p := &parser{file: base, rm: &Regmap{Name: name, File: file}}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var (
		open  string
		start int
		body  []blockLine
		no    int
	)
	for sc.Scan() {
		no++
		line := strings.TrimSpace(sc.Text())
		if open == "" {
			switch line {
			case "":
				continue
			case kwTitle, kwReg, kwField:
				open, start, body = line, no, nil
				continue
			}
			if strings.HasPrefix(line, "#") {
				continue
			}
			return nil, p.errorf(no, "unexpected %q outside of a block", line)
		}

		switch line {
		case endOf(open):
			if err := p.block(open, start, body); err != nil {
				return nil, err
			}
			open = ""
		case kwTitle, kwReg, kwField, kwEndTitle, kwEndReg, kwEndField:
			return nil, p.errorf(no, "%s inside %s block opened at line %d", line, open, start)
		default:
			body = append(body, blockLine{text: line, no: no})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "read regmap").
			WithContext("file", file).Build()
	}
	if open != "" {
		return nil, p.errorf(start, "unterminated %s block", open)
	}
	return p.rm, nil
}

func endOf(kw string) string { return "END" + kw }

func (p *parser) errorf(line int, format string, args ...any) error {
	return derrors.ParseError(fmt.Sprintf(format, args...)).At(p.file, line).Build()
}

func (p *parser) warnf(line int, format string, args ...any) {
	p.rm.Warnings = append(p.rm.Warnings, fmt.Sprintf("%s:%d: %s", p.file, line, fmt.Sprintf(format, args...)))
}

func (p *parser) block(kw string, start int, body []blockLine) error {
	switch kw {
	case kwTitle:
		return p.titleBlock(start, body)
	case kwReg:
		return p.regBlock(start, body)
	default:
		return p.fieldBlock(start, body)
	}
}

func (p *parser) titleBlock(start int, body []blockLine) error {
	lines := nonEmpty(body)
	if len(lines) < 2 {
		return p.errorf(start, "TITLE needs a title and an ID")
	}
	s := &Subregmap{Title: lines[0].text, ID: lines[1].text, Line: start}
	if strings.ContainsAny(s.ID, " \t.") {
		return p.errorf(lines[1].no, "invalid title ID %q", s.ID)
	}
	if _, dup := p.rm.Subregmap(s.ID); dup {
		return p.errorf(lines[1].no, "duplicate title ID %q", s.ID)
	}
	for _, l := range lines[2:] {
		m := usingRe.FindStringSubmatch(l.text)
		if m == nil {
			return p.errorf(l.no, "unexpected %q in TITLE", l.text)
		}
		s.Using = append(s.Using, m[1])
	}
	p.rm.Subregmaps = append(p.rm.Subregmaps, s)
	p.title = s
	p.reg = nil
	return nil
}

func (p *parser) regBlock(start int, body []blockLine) error {
	if p.title == nil {
		return p.errorf(start, "REG outside of TITLE")
	}
	lines := nonEmpty(body)
	if len(lines) < 2 {
		return p.errorf(start, "REG needs an address and a name")
	}
	reg := Register{AddressExpr: lines[0].text, Name: lines[1].text, Line: start}
	rest := body[indexAfter(body, lines[1].no):]
	loop, rest, err := p.where(rest)
	if err != nil {
		return err
	}
	reg.Loop = loop
	reg.Description = description(rest)

	if title, name, ok := strings.Cut(reg.Name, "."); ok {
		if title == "" || name == "" {
			return p.errorf(lines[1].no, "invalid import register %q", reg.Name)
		}
		reg.Import = &Import{Title: title, Register: name}
	}
	if _, dup := p.title.register(reg.Name); dup {
		p.warnf(lines[1].no, "duplicate register %s in %s", reg.Name, p.title.ID)
	}
	p.title.Registers = append(p.title.Registers, reg)
	p.reg = &p.title.Registers[len(p.title.Registers)-1]
	return nil
}

func (p *parser) fieldBlock(start int, body []blockLine) error {
	if p.reg == nil {
		return p.errorf(start, "FIELD outside of REG")
	}
	if p.reg.Import != nil {
		return p.errorf(start, "FIELD in import register %s", p.reg.Name)
	}
	lines := nonEmpty(body)
	if len(lines) < 3 {
		return p.errorf(start, "FIELD needs a bit range, a name and an access type")
	}
	m := bitsRe.FindStringSubmatch(lines[0].text)
	if m == nil {
		return p.errorf(lines[0].no, "bad bit range %q", lines[0].text)
	}
	f := Field{
		MSBExpr:     strings.TrimSpace(m[1]),
		LSBExpr:     strings.TrimSpace(m[2]),
		DefaultExpr: strings.TrimSpace(m[3]),
		Name:        lines[1].text,
		Access:      Access(strings.ToUpper(lines[2].text)),
		Line:        start,
	}
	if f.LSBExpr == "" {
		f.LSBExpr = f.MSBExpr
	}
	if !f.Access.Known() {
		p.warnf(lines[2].no, "unknown access type %q for field %s", lines[2].text, f.Name)
	}
	rest := body[indexAfter(body, lines[2].no):]
	loop, rest, err := p.where(rest)
	if err != nil {
		return err
	}
	f.Loop = loop
	f.Description = description(rest)
	p.reg.Fields = append(p.reg.Fields, f)
	return nil
}

// where consumes an optional leading WHERE clause.
func (p *parser) where(body []blockLine) (*Loop, []blockLine, error) {
	for i, l := range body {
		if l.text == "" {
			continue
		}
		if !strings.HasPrefix(l.text, "WHERE") {
			return nil, body, nil
		}
		m := whereRe.FindStringSubmatch(l.text)
		if m == nil {
			return nil, nil, p.errorf(l.no, "bad WHERE clause %q", l.text)
		}
		from, err := Eval(m[2], nil)
		if err != nil {
			return nil, nil, p.errorf(l.no, "bad loop start: %v", err)
		}
		to, err := Eval(m[3], nil)
		if err != nil {
			return nil, nil, p.errorf(l.no, "bad loop end: %v", err)
		}
		if to < from {
			return nil, nil, p.errorf(l.no, "empty loop %d..%d", from, to)
		}
		return &Loop{Var: m[1], From: int(from), To: int(to)}, body[i+1:], nil
	}
	return nil, body, nil
}

func nonEmpty(body []blockLine) []blockLine {
	var out []blockLine
	for _, l := range body {
		if l.text != "" {
			out = append(out, l)
		}
	}
	return out
}

// indexAfter returns the body index following source line no.
func indexAfter(body []blockLine, no int) int {
	for i, l := range body {
		if l.no == no {
			return i + 1
		}
	}
	return len(body)
}

func description(body []blockLine) string {
	parts := make([]string, len(body))
	for i, l := range body {
		parts[i] = l.text
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
