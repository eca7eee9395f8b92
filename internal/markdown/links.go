package markdown

import "git.home.luguber.info/inful/doctools/internal/roles"

// Options controls how Markdown is parsed and rendered.
type Options struct {
	// Roles enables the inline reference roles; nil leaves them as text.
	Roles *roles.Resolver
}

type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindRole                LinkKind = "role"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

type Link struct {
	Kind        LinkKind
	Destination string
	// Role is the role name of LinkKindRole links.
	Role string
}
