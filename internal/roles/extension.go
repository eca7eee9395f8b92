package roles

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindRole is the node kind of a resolved role.
var KindRole = ast.NewNodeKind("Role")

// Node is an inline role occurrence.
type Node struct {
	ast.BaseInline
	Role string
	Raw  string
	Ref  Reference
}

// Kind implements ast.Node.
func (n *Node) Kind() ast.NodeKind { return KindRole }

// Dump implements ast.Node.
func (n *Node) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Role": n.Role,
		"Raw":  n.Raw,
		"URL":  n.Ref.URL,
	}, nil)
}

var roleOpenRe = regexp.MustCompile("^:([A-Za-z][A-Za-z0-9_-]*):(`+)")

type roleParser struct {
	resolver *Resolver
}

func (p *roleParser) Trigger() []byte { return []byte{':'} }

func (p *roleParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	if prev := block.PrecendingCharacter(); unicode.IsLetter(prev) || unicode.IsDigit(prev) {
		return nil
	}
	line, _ := block.PeekLine()
	m := roleOpenRe.FindSubmatchIndex(line)
	if m == nil {
		return nil
	}
	name := string(line[m[2]:m[3]])
	fence := line[m[4]:m[5]]
	rest := line[m[1]:]
	end := bytes.Index(rest, fence)
	if end < 0 {
		return nil
	}
	raw := string(rest[:end])
	ref, ok := p.resolver.Resolve(name, strings.TrimSpace(raw))
	if !ok {
		return nil
	}
	block.Advance(m[1] + end + len(fence))
	return &Node{Role: name, Raw: raw, Ref: ref}
}

type roleRenderer struct{}

func (r *roleRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindRole, r.render)
}

func (r *roleRenderer) render(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	ref := n.(*Node).Ref
	switch ref.Kind {
	case KindSpan:
		_, _ = w.WriteString(`<span class="`)
		_, _ = w.Write(util.EscapeHTML([]byte(strings.Join(ref.Classes, " "))))
		_, _ = w.WriteString(`">`)
		_, _ = w.Write(util.EscapeHTML([]byte(ref.Text)))
		_, _ = w.WriteString("</span>")
	case KindLink:
		_, _ = w.WriteString(`<a href="`)
		_, _ = w.Write(util.EscapeHTML(util.URLEscape([]byte(ref.URL), true)))
		_, _ = w.WriteString(`"`)
		if len(ref.Classes) > 0 {
			_, _ = w.WriteString(` class="`)
			_, _ = w.Write(util.EscapeHTML([]byte(strings.Join(ref.Classes, " "))))
			_, _ = w.WriteString(`"`)
		}
		_, _ = w.WriteString(">")
		_, _ = w.Write(util.EscapeHTML([]byte(ref.Text)))
		_, _ = w.WriteString("</a>")
	}
	return ast.WalkSkipChildren, nil
}

// Extension registers the role parser and renderer with goldmark.
type Extension struct {
	Resolver *Resolver
}

// NewExtension returns an extension resolving roles with r.
func NewExtension(r *Resolver) *Extension { return &Extension{Resolver: r} }

// Extend implements goldmark.Extender.
func (e *Extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&roleParser{resolver: e.Resolver}, 150),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&roleRenderer{}, 500),
	))
}
