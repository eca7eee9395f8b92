// Package roles implements the inline reference roles of the documentation,
// such as :adi:`AD9081` or :git-hdl:`library/axi_dmac`, as a goldmark
// extension.
//
// A role is written as `:name:` immediately followed by a backtick span. The
// content may use the `label <target>` form to override the link text.
package roles
