package markdown

import (
	"bytes"
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/doctools/internal/roles"
)

// New returns a goldmark instance with GitHub flavoured Markdown, heading ids
// and, when configured, the reference roles.
func New(opts Options) goldmark.Markdown {
	exts := []goldmark.Extender{extension.GFM}
	if opts.Roles != nil {
		exts = append(exts, roles.NewExtension(opts.Roles))
	}
	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
}

// Render converts a Markdown body to an HTML fragment.
func Render(body []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := New(opts).Convert(body, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseBody parses a Markdown body into a Goldmark AST.
func ParseBody(body []byte, opts Options) gmast.Node {
	return New(opts).Parser().Parse(text.NewReader(body))
}

// ExtractLinks parses a Markdown body and extracts link-like constructs,
// including the targets of reference roles.
func ExtractLinks(body []byte, opts Options) ([]Link, error) {
	ctx := parser.NewContext()
	root := New(opts).Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	links := make([]Link, 0)
	err := gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			// Goldmark resolves reference-style links to a Link node with a Destination.
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		case *roles.Node:
			if node.Ref.Kind == roles.KindLink {
				links = append(links, Link{Kind: LinkKindRole, Destination: node.Ref.URL, Role: node.Role})
			}
		}
		return gmast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	// Reference definitions are stored in the parse context (not represented as AST nodes).
	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}
	return links, nil
}
