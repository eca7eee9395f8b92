package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
	"git.home.luguber.info/inful/doctools/internal/logfields"
	"git.home.luguber.info/inful/doctools/internal/markdown"
	"git.home.luguber.info/inful/doctools/internal/roles"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	Files  []string `arg:"" type:"existingfile" help:"Markdown files to render."`
	Output string   `short:"o" name:"output" help:"Output directory (defaults to next to each input)."`
	Links  bool     `name:"links" help:"List the links of each file instead of rendering."`
}

func (r *RenderCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	opts := markdown.Options{Roles: roles.New(cfg.Roles)}
	for _, file := range r.Files {
		if err := r.renderFile(file, opts, os.Stdout); err != nil {
			return err
		}
	}
	return nil
}

func (r *RenderCmd) renderFile(file string, opts markdown.Options, stdout io.Writer) error {
	// #nosec G304 -- files named on the command line.
	body, err := os.ReadFile(file)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "read markdown").
			WithContext("file", file).Build()
	}

	if r.Links {
		links, err := markdown.ExtractLinks(body, opts)
		if err != nil {
			return err
		}
		for _, l := range links {
			kind := string(l.Kind)
			if l.Role != "" {
				kind += ":" + l.Role
			}
			_, _ = fmt.Fprintf(stdout, "%s\t%s\t%s\n", file, kind, l.Destination)
		}
		return nil
	}

	out, err := markdown.Render(body, opts)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryBuild, "render markdown").
			WithContext("file", file).Build()
	}
	target := outputPath(file, r.Output)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "create output directory").
			WithContext("path", target).Build()
	}
	if err := os.WriteFile(target, out, 0o600); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "write html").
			WithContext("path", target).Build()
	}
	slog.Info("Rendered", logfields.File(file), logfields.Path(target))
	return nil
}

// outputPath replaces the extension of file with .html, inside dir when set.
func outputPath(file, dir string) string {
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)) + ".html"
	if dir == "" {
		return filepath.Join(filepath.Dir(file), name)
	}
	return filepath.Join(dir, name)
}
