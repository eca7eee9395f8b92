// Package hdl reads the Tcl build scripts of an HDL repository and derives
// the dependency data of its IP libraries and projects.
//
// Libraries live under library/ and carry one vendor script per toolchain
// (*_ip.tcl for Xilinx, *_hw.tcl for Intel). Projects live under projects/
// and are described by system_bd.tcl or system_qsys.tcl. The resolved
// dependencies are written as the Makefile of each library and project.
package hdl
