package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/doctools/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"doctools.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	HDLGen     HDLGenCmd     `cmd:"" name:"hdl-gen" help:"Generate library/project makefiles and register map packages of an HDL repository"`
	AuthorMode AuthorModeCmd `cmd:"" name:"author-mode" help:"Build, serve and live-reload a documentation folder"`
	Render     RenderCmd     `cmd:"" help:"Render Markdown files to HTML with the reference roles"`
	Init       InitCmd       `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// LoadConfig reads the configuration file named by -c.
func (c *CLI) LoadConfig() (*config.Config, error) {
	return config.Load(c.Config)
}
