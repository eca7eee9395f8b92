package hdl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTree creates files below root. Paths use forward slashes.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

const vendorXilinx = `# carriers
proc adi_project {project_name {mode 0} {parameter_list {}} } {
  if [regexp "_zed$" $project_name] {
    set device "xc7z020clg484-1"
    set board [lsearch -all -inline [get_board_parts] *zed*]
  }
  if [regexp "_zcu102$" $project_name] {
    set device "xczu9eg-ffvb1156-2-e"
  } elseif [regexp "_nodev$" $project_name] {
    set board "none"
  }
  if [regexp "_zed$" $project_name] {
    set device "dup"
  }
}
`

// hdlRepo writes a small HDL repository and returns its root.
func hdlRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"LICENSE_ADIJESD204":                "",
		"scripts/adi_env.tcl":               "set ad_hdl_dir [file normalize [file join [file dirname [info script]] \"..\"]]\n",
		"library/scripts/adi_ip_xilinx.tcl": "",
		"library/scripts/adi_ip_intel.tcl":  "",
		"library/interfaces/interfaces_ip.tcl": `source ../../scripts/adi_env.tcl
source $ad_hdl_dir/library/scripts/adi_ip_xilinx.tcl

adi_if_define fifo_wr
adi_if_ports output 1 en
adi_if_ports output -1 data
adi_if_ports input 1 overflow

adi_if_define fifo_rd
adi_if_ports output 1 en
adi_if_ports input -1 data valid
`,
		"library/util_cdc/util_cdc_ip.tcl": `source ../../scripts/adi_env.tcl
source $ad_hdl_dir/library/scripts/adi_ip_xilinx.tcl

adi_ip_create util_cdc
adi_ip_files util_cdc [list \
  "sync_bits.v" \
  "sync_data.v" ]
`,
		"library/axi_dmac/axi_dmac_ip.tcl": `# ip
source ../../scripts/adi_env.tcl
source $ad_hdl_dir/library/scripts/adi_ip_xilinx.tcl

adi_ip_create axi_dmac
adi_ip_files axi_dmac [list \
  "$ad_hdl_dir/library/common/ad_mem_asym.v" \
  "axi_dmac_constr.ttcl" \
  "axi_dmac.v" \
  "request_arb.v" ]

adi_ip_add_core_dependencies [list \
  analog.com:$VIVADO_IP_LIBRARY:util_cdc:1.0 \
  analog.com:$VIVADO_IP_LIBRARY:util_missing:1.0 \
]

adi_add_bus "fifo_wr" "slave" \
  "analog.com:interface:fifo_wr_rtl:1.0" \
  "analog.com:interface:fifo_wr:1.0" \
  { {"fifo_wr_en" "EN"} }
`,
		"library/axi_dmac/axi_dmac_hw.tcl": `source ../../scripts/adi_env.tcl
source ../scripts/adi_ip_intel.tcl

ad_ip_create axi_dmac {AXI DMA Controller}
ad_ip_files axi_dmac [list \
  $ad_hdl_dir/library/common/ad_mem_asym.v \
  axi_dmac.v \
  request_arb.v \
  axi_dmac_constr.sdc]
`,
		"projects/scripts/adi_project_xilinx.tcl": vendorXilinx,
		"projects/scripts/adi_pd.tcl":             "",
		"projects/common/zed/zed_system_bd.tcl": `ad_ip_instance util_cdc sys_cdc
ad_ip_instance processing_system7 sys_ps7
`,
		"projects/common/zed/zed_system_constr.xdc": "",
		"projects/fmcomms2/common/fmcomms2_bd.tcl": `ad_ip_instance axi_dmac axi_ad9361_dac_dma
source $ad_hdl_dir/projects/common/zed/zed_system_bd.tcl
`,
		"projects/fmcomms2/zed/system_bd.tcl": `source $ad_hdl_dir/projects/common/zed/zed_system_bd.tcl
source $ad_hdl_dir/projects/scripts/adi_pd.tcl
source ../common/fmcomms2_bd.tcl
source ../common/missing.tcl
`,
		"projects/fmcomms2/zed/system_project.tcl": `source ../../../scripts/adi_env.tcl
source $ad_hdl_dir/projects/scripts/adi_project_xilinx.tcl

adi_project fmcomms2_zed
adi_project_files fmcomms2_zed [list \
  "$ad_hdl_dir/library/common/ad_iobuf.v" \
  "system_top.v" \
  "$ad_hdl_dir/projects/common/zed/zed_system_constr.xdc" ]
`,
		"projects/fmcomms2/zc706/system_bd.tcl": "source ../common/fmcomms2_bd.tcl\n",
	})
	return root
}
