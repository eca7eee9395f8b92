package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"git.home.luguber.info/inful/doctools/internal/preview"
)

// AuthorModeCmd implements the 'author-mode' command.
type AuthorModeCmd struct {
	Directory string `short:"d" name:"directory" type:"path" help:"Docs folder with a Makefile."`
	Port      int    `short:"p" name:"port" help:"Server port (default from config, 8000)."`
	Dev       bool   `short:"r" name:"dev" help:"Watch and bundle the theme sources of --source."`
	NoBrowser bool   `name:"no-browser" help:"Do not drive a browser; pages poll the dev-pool file."`
	JustRegen bool   `short:"g" name:"just-regen" help:"Bundle the theme once and exit."`
	Source    string `name:"source" type:"path" default:"." help:"Doctools checkout holding the theme sources."`
	SSE       bool   `name:"sse" help:"Push reloads with server-sent events."`
}

func (a *AuthorModeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if a.JustRegen {
		return preview.Regenerate(ctx, a.Source, cfg.Preview, os.Stdout, os.Stderr)
	}

	opts := a.options(cfg.Preview.Port)
	opts.Preview = cfg.Preview
	srv, err := preview.New(opts)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func (a *AuthorModeCmd) options(defaultPort int) preview.Options {
	port := a.Port
	if port == 0 {
		port = defaultPort
	}
	source := a.Source
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}
	return preview.Options{
		Directory: a.Directory,
		Port:      port,
		Dev:       a.Dev,
		Source:    source,
		NoBrowser: a.NoBrowser,
		SSE:       a.SSE,
	}
}
