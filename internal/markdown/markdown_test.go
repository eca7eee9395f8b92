package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doctools/internal/config"
	"git.home.luguber.info/inful/doctools/internal/roles"
)

func TestRender(t *testing.T) {
	src := []byte("# AXI DMAC\n\nSee :adi:`AD9081` and ~~old~~ notes.\n")

	out, err := Render(src, Options{Roles: roles.New(config.RolesConfig{})})
	require.NoError(t, err)
	assert.Equal(t, `<h1 id="axi-dmac">AXI DMAC</h1>
<p>See <a href="https://www.analog.com/AD9081" class="icon adi">AD9081</a> and <del>old</del> notes.</p>
`, string(out))
}

func TestRender_WithoutRoles(t *testing.T) {
	out, err := Render([]byte(":adi:`AD9081`"), Options{})
	require.NoError(t, err)
	assert.Equal(t, "<p>:adi:<code>AD9081</code></p>\n", string(out))
}

func TestParseBody(t *testing.T) {
	root := ParseBody([]byte(":red:`x`"), Options{Roles: roles.New(config.RolesConfig{})})
	para := root.FirstChild()
	require.NotNil(t, para)
	node, ok := para.FirstChild().(*roles.Node)
	require.True(t, ok)
	assert.Equal(t, "red", node.Role)
	assert.Equal(t, roles.KindSpan, node.Ref.Kind)
}
