package config

import "time"

// Default link targets of the documentation roles.
const (
	DefaultURLDokuwiki = "https://wiki.analog.com"
	DefaultURLEZ       = "https://ez.analog.com"
	DefaultURLMW       = "https://www.mathworks.com"
	DefaultURLGitGUI   = "https://github.com/analogdevicesinc/{repo}/tree"
	DefaultURLGitRaw   = "https://raw.githubusercontent.com/analogdevicesinc/{repo}"
	DefaultURLADI      = "https://www.analog.com"
	DefaultURLXilinx   = "https://www.xilinx.com"
	DefaultURLIntel    = "https://www.intel.com"
)

// DefaultURLs returns a fresh copy of the role URL table.
func DefaultURLs() map[string]string {
	return map[string]string{
		"dokuwiki": DefaultURLDokuwiki,
		"ez":       DefaultURLEZ,
		"mw":       DefaultURLMW,
		"git_gui":  DefaultURLGitGUI,
		"git_raw":  DefaultURLGitRaw,
		"adi":      DefaultURLADI,
		"xilinx":   DefaultURLXilinx,
		"intel":    DefaultURLIntel,
	}
}

func applyDefaults(cfg *Config) {
	applyHDLDefaults(&cfg.HDL)
	applyPreviewDefaults(&cfg.Preview)
	applyRolesDefaults(&cfg.Roles)
}

func applyHDLDefaults(h *HDLConfig) {
	if h.Sentinel == "" {
		h.Sentinel = "LICENSE_ADIJESD204"
	}
	if h.RegmapDir == "" {
		h.RegmapDir = "docs/regmap"
	}
	if h.TestbenchDir == "" {
		h.TestbenchDir = "testbenches"
	}
	if h.RegmapOutputDir == "" {
		h.RegmapOutputDir = "testbenches/common/sv"
	}
	if h.Copyright == "" {
		h.Copyright = "Analog Devices, Inc."
	}
}

func applyPreviewDefaults(p *PreviewConfig) {
	if p.Port == 0 {
		p.Port = 8000
	}
	if p.Strategy == "" {
		p.Strategy = StrategyBrowser
	}
	if p.PollInterval == 0 {
		p.PollInterval = time.Second
	}
	if len(p.BuildCommand) == 0 {
		p.BuildCommand = []string{"make", "html"}
	}
	if len(p.WatchPatterns) == 0 {
		p.WatchPatterns = []string{"*.jpeg", "*.jpg", "*.md", "*.png", "*.py", "*.rst", "*.svg", "*.txt"}
	}
	if p.Unmanaged == nil {
		p.Unmanaged = []string{"PyADI-IIO_Logo"}
	}
	if p.ThemeStaticDir == "" {
		p.ThemeStaticDir = "adi_doctools/theme/cosmic/static"
	}
}

func applyRolesDefaults(r *RolesConfig) {
	if r.URLs == nil {
		r.URLs = map[string]string{}
	}
	for k, v := range DefaultURLs() {
		if _, ok := r.URLs[k]; !ok {
			r.URLs[k] = v
		}
	}
}
