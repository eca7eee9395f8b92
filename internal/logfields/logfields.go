package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyFile       = "file"
	KeyPath       = "path"
	KeyRegmap     = "regmap"
	KeyLibrary    = "library"
	KeyProject    = "project"
	KeyVendor     = "vendor"
	KeyCarrier    = "carrier"
	KeyCount      = "count"
	KeyPort       = "port"
	KeyURL        = "url"
	KeyStrategy   = "strategy"
	KeyBuildID    = "build_id"
	KeyCommand    = "command"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func File(f string) slog.Attr      { return slog.String(KeyFile, f) }
func Path(p string) slog.Attr      { return slog.String(KeyPath, p) }
func Regmap(name string) slog.Attr { return slog.String(KeyRegmap, name) }
func Library(key string) slog.Attr { return slog.String(KeyLibrary, key) }
func Project(key string) slog.Attr { return slog.String(KeyProject, key) }
func Vendor(v string) slog.Attr    { return slog.String(KeyVendor, v) }
func Carrier(c string) slog.Attr   { return slog.String(KeyCarrier, c) }
func Count(n int) slog.Attr        { return slog.Int(KeyCount, n) }
func Port(p int) slog.Attr         { return slog.Int(KeyPort, p) }
func URL(u string) slog.Attr       { return slog.String(KeyURL, u) }
func Strategy(s string) slog.Attr  { return slog.String(KeyStrategy, s) }
func BuildID(id string) slog.Attr  { return slog.String(KeyBuildID, id) }
func Command(c string) slog.Attr   { return slog.String(KeyCommand, c) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
