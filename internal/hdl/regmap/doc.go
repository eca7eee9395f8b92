// Package regmap parses register-map descriptions (adi_regmap_<name>.txt),
// resolves register imports between them, expands WHERE loops into concrete
// registers and fields, and writes SystemVerilog register-map packages for
// the testbenches.
//
// The pipeline is always Parse -> Resolve -> Expand -> WritePackage; each
// step works on a Set so imports can cross file boundaries.
package regmap
