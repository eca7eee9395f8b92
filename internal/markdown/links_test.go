package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doctools/internal/config"
	"git.home.luguber.info/inful/doctools/internal/roles"
)

func TestExtractLinks_InlineLink(t *testing.T) {
	links, err := ExtractLinks([]byte("See [API](api.md) for details."), Options{})
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, LinkKindInline, links[0].Kind)
	require.Equal(t, "api.md", links[0].Destination)
}

func TestExtractLinks_ImageLink(t *testing.T) {
	links, err := ExtractLinks([]byte("![Diagram](diagram.png)"), Options{})
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, LinkKindImage, links[0].Kind)
	require.Equal(t, "diagram.png", links[0].Destination)
}

func TestExtractLinks_AutoLink(t *testing.T) {
	links, err := ExtractLinks([]byte("<https://example.com/path>"), Options{})
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, LinkKindAuto, links[0].Kind)
	require.Equal(t, "https://example.com/path", links[0].Destination)
}

func TestExtractLinks_ReferenceLinkUsageAndDefinition(t *testing.T) {
	src := []byte("See [API][ref].\n\n[ref]: api.md\n")
	links, err := ExtractLinks(src, Options{})
	require.NoError(t, err)

	require.Len(t, links, 2)
	require.Equal(t, LinkKindInline, links[0].Kind)
	require.Equal(t, "api.md", links[0].Destination)
	require.Equal(t, LinkKindReferenceDefinition, links[1].Kind)
	require.Equal(t, "api.md", links[1].Destination)
}

func TestExtractLinks_Roles(t *testing.T) {
	src := []byte("Use :adi:`AD9081` with :red:`care` and :git-hdl:`/`.\n\n`:adi:`x``\n")
	opts := Options{Roles: roles.New(config.RolesConfig{})}

	links, err := ExtractLinks(src, opts)
	require.NoError(t, err)
	require.Equal(t, []Link{
		{Kind: LinkKindRole, Destination: "https://www.analog.com/AD9081", Role: "adi"},
		{Kind: LinkKindRole, Destination: "https://github.com/analogdevicesinc/hdl/tree/main/", Role: "git-hdl"},
	}, links)

	links, err = ExtractLinks(src, Options{})
	require.NoError(t, err)
	require.Empty(t, links)
}
