package hdl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProject(t *testing.T) {
	root := hdlRepo(t)
	p, err := ParseProject(root, filepath.Join(root, "projects/fmcomms2/zed/system_bd.tcl"))
	require.NoError(t, err)
	assert.Equal(t, &Project{
		Key:     "fmcomms2/zed",
		Name:    "fmcomms2_zed",
		Dir:     "projects/fmcomms2/zed",
		Carrier: "zed",
		Vendor:  Xilinx,
		Script:  "system_bd.tcl",
	}, p)

	_, err = ParseProject(root, filepath.Join(root, "projects/system_bd.tcl"))
	require.Error(t, err)
	_, err = ParseProject(root, filepath.Join(root, "projects/fmcomms2/zed/other.tcl"))
	require.Error(t, err)
}

func TestResolveProject(t *testing.T) {
	root := hdlRepo(t)
	libs := loadRepoLibraries(t, root)
	p, err := ParseProject(root, filepath.Join(root, "projects/fmcomms2/zed/system_bd.tcl"))
	require.NoError(t, err)

	msgs := ResolveProject(root, p, libs)
	assert.Equal(t, []string{"project fmcomms2/zed: cannot read projects/fmcomms2/common/missing.tcl"}, msgs)
	assert.Equal(t, []string{"axi_dmac", "util_cdc"}, p.LibDeps)
	assert.Equal(t, []string{
		"../../../library/common/ad_iobuf.v",
		"../../common/zed/zed_system_bd.tcl",
		"../../common/zed/zed_system_constr.xdc",
		"../common/fmcomms2_bd.tcl",
	}, p.MDeps)
}

func TestWriteProjectMakefile(t *testing.T) {
	root := hdlRepo(t)
	libs := loadRepoLibraries(t, root)
	p, err := ParseProject(root, filepath.Join(root, "projects/fmcomms2/zed/system_bd.tcl"))
	require.NoError(t, err)
	ResolveProject(root, p, libs)

	projects := map[string]*Project{p.Key: p}
	written, err := WriteProjectMakefile(root, projects, p.Key, MakefileOptions{Copyright: "Analog Devices, Inc."})
	require.NoError(t, err)
	assert.True(t, written)

	got, err := os.ReadFile(filepath.Join(root, "projects/fmcomms2/zed/Makefile"))
	require.NoError(t, err)
	assert.Equal(t, `####################################################################################
## Copyright (c) Analog Devices, Inc.
### SPDX short identifier: BSD-1-Clause
## Auto-generated, do not modify!
####################################################################################

PROJECT_NAME := fmcomms2_zed

M_DEPS += ../../../library/common/ad_iobuf.v
M_DEPS += ../../common/zed/zed_system_bd.tcl
M_DEPS += ../../common/zed/zed_system_constr.xdc
M_DEPS += ../common/fmcomms2_bd.tcl

LIB_DEPS += axi_dmac
LIB_DEPS += util_cdc

include ../../scripts/project-xilinx.mk
`, string(got))
}

func TestResolveProjectBreaksSourceCycles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"projects/common/a.tcl":        "source $ad_hdl_dir/projects/common/b.tcl\n",
		"projects/common/b.tcl":        "source $ad_hdl_dir/projects/common/a.tcl\nsource $other/x.tcl\n",
		"projects/x/zed/system_bd.tcl": "source ../../common/a.tcl\n",
	})
	p, err := ParseProject(root, filepath.Join(root, "projects/x/zed/system_bd.tcl"))
	require.NoError(t, err)

	msgs := ResolveProject(root, p, nil)
	assert.Equal(t, []string{"project x/zed: cannot resolve source $other/x.tcl"}, msgs)
	assert.Equal(t, []string{"../../common/a.tcl", "../../common/b.tcl"}, p.MDeps)
	assert.Empty(t, p.LibDeps)
}
