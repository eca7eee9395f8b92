package roles

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doctools/internal/config"
)

func defaultResolver() *Resolver {
	return New(config.RolesConfig{
		Repos: map[string]config.RepoConfig{"hdl": {Branch: "hdl_2023_r2"}},
	})
}

func TestResolve(t *testing.T) {
	r := defaultResolver()
	tests := []struct {
		role, text string
		want       Reference
	}{
		{"red", "warning", Reference{Kind: KindSpan, Text: "warning", Classes: []string{"red"}}},
		{"green", "ok", Reference{Kind: KindSpan, Text: "ok", Classes: []string{"green"}}},
		{"datasheet", "AD9081", Reference{Kind: KindNone}},
		{"dokuwiki", "resources/eval/user-guides/ad9081", Reference{
			Kind: KindLink, Text: "ad9081", URL: "https://wiki.analog.com/resources/eval/user-guides/ad9081",
		}},
		{"dokuwiki", "User guide <resources/eval>", Reference{
			Kind: KindLink, Text: "User guide", URL: "https://wiki.analog.com/resources/eval",
		}},
		{"ez", "/", Reference{
			Kind: KindLink, Text: "EngineerZone", URL: "https://ez.analog.com/", Classes: []string{"icon", "ez"},
		}},
		{"ez", "FPGA forum <fpga>", Reference{
			Kind: KindLink, Text: "FPGA forum", URL: "https://ez.analog.com/fpga", Classes: []string{"icon", "ez"},
		}},
		{"adi", "AD9081", Reference{
			Kind: KindLink, Text: "AD9081", URL: "https://www.analog.com/AD9081", Classes: []string{"icon", "adi"},
		}},
		{"adi", "the board <EVAL-AD9081>", Reference{
			Kind: KindLink, Text: "the board", URL: "https://www.analog.com/EVAL-AD9081", Classes: []string{"icon", "adi"},
		}},
		{"xilinx", "products/boards/zc706", Reference{
			Kind: KindLink, Text: "zc706", URL: "https://www.xilinx.com/products/boards/zc706",
		}},
		{"mw", "MATLAB <products/matlab>", Reference{
			Kind: KindLink, Text: "MATLAB", URL: "https://www.mathworks.com/products/matlab",
		}},
		{"git-hdl", "/", Reference{
			Kind: KindLink, Text: "ADI HDL repository",
			URL: "https://github.com/analogdevicesinc/hdl/tree/hdl_2023_r2/", Classes: []string{"icon", "git"},
		}},
		{"git-hdl", "library/axi_dmac", Reference{
			Kind: KindLink, Text: "library/axi_dmac",
			URL: "https://github.com/analogdevicesinc/hdl/tree/hdl_2023_r2/library/axi_dmac", Classes: []string{"icon", "git"},
		}},
		{"git-linux", "DMA driver <main:drivers/dma/dma-axi-dmac.c>", Reference{
			Kind: KindLink, Text: "DMA driver",
			URL: "https://github.com/analogdevicesinc/linux/tree/main/drivers/dma/dma-axi-dmac.c", Classes: []string{"icon", "git"},
		}},
		{"git-no-OS", "raw+2023_R2:/", Reference{
			Kind: KindLink, Text: "ADI no-OS repository",
			URL: "https://raw.githubusercontent.com/analogdevicesinc/no-OS/2023_R2/", Classes: []string{"icon", "git"},
		}},
		{"git-scopy", "gui+:README.md", Reference{
			Kind: KindLink, Text: "README.md",
			URL: "https://github.com/analogdevicesinc/scopy/tree/main/README.md", Classes: []string{"icon", "git"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.role+" "+tt.text, func(t *testing.T) {
			got, ok := r.Resolve(tt.role, tt.text)
			require.True(t, ok)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_UnknownRole(t *testing.T) {
	_, ok := defaultResolver().Resolve("git-unknown", "x")
	assert.False(t, ok)
}

func TestResolve_ConfiguredURLs(t *testing.T) {
	r := New(config.RolesConfig{URLs: map[string]string{
		"adi":     "https://example.com/adi",
		"git_gui": "https://git.example.com/{repo}/src",
	}})

	ref, _ := r.Resolve("adi", "AD9081")
	assert.Equal(t, "https://example.com/adi/AD9081", ref.URL)
	ref, _ = r.Resolve("git-doctools", "docs")
	assert.Equal(t, "https://git.example.com/doctools/src/main/docs", ref.URL)
	ref, _ = r.Resolve("intel", "fpga")
	assert.Equal(t, config.DefaultURLIntel+"/fpga", ref.URL)
}

func TestNames(t *testing.T) {
	names := defaultResolver().Names()
	assert.Len(t, names, 9+len(GitRepos))
	assert.Contains(t, names, "git-wiki-scripts")
	assert.IsNonDecreasing(t, names)
}
