package preview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
	"git.home.luguber.info/inful/doctools/internal/logfields"
)

// Paths of the theme bundler inside a doctools checkout.
const (
	RollupConfig = "ci/rollup.config.app.mjs"
	RollupBin    = "node_modules/.bin/rollup"
)

// ThemeOutputs are the bundler artifacts copied into the served _static dir.
var ThemeOutputs = []string{"app.umd.js", "app.umd.js.map", "style.min.css", "style.min.css.map", "icons.svg"}

// Bundler runs the theme bundler of a doctools source checkout.
type Bundler struct {
	// Source is the checkout root holding ci/ and node_modules/.
	Source string
	// StaticDir is the bundler output directory, relative to Source.
	StaticDir string
	Stdout    io.Writer
	Stderr    io.Writer

	mu    sync.Mutex
	watch *exec.Cmd
	done  chan struct{}
}

// OutputDir is the absolute directory the bundler writes ThemeOutputs to.
func (b *Bundler) OutputDir() string { return filepath.Join(b.Source, b.StaticDir) }

// Outputs returns the absolute paths of ThemeOutputs.
func (b *Bundler) Outputs() []string {
	out := make([]string, 0, len(ThemeOutputs))
	for _, name := range ThemeOutputs {
		out = append(out, filepath.Join(b.OutputDir(), name))
	}
	return out
}

// Check verifies the checkout is a symbolic install with the npm tools.
func (b *Bundler) Check() error {
	cfg := filepath.Join(b.Source, RollupConfig)
	if _, err := os.Stat(cfg); err != nil {
		return derrors.NotFoundError(fmt.Sprintf("Couldn't find %s, ensure this a symbolic install", cfg)).Build()
	}
	bin := filepath.Join(b.Source, RollupBin)
	if _, err := os.Stat(bin); err != nil {
		return derrors.NotFoundError(fmt.Sprintf("Couldn't find %s, please you install the npm tools locally.", bin)).Build()
	}
	return nil
}

// Missing lists the outputs that do not exist yet.
func (b *Bundler) Missing() []string {
	var missing []string
	for _, p := range b.Outputs() {
		if info, err := os.Stat(p); err != nil || info.IsDir() {
			missing = append(missing, p)
		}
	}
	return missing
}

// Verify reports the first output the bundler failed to produce.
func (b *Bundler) Verify() error {
	if missing := b.Missing(); len(missing) > 0 {
		return derrors.BuildError(fmt.Sprintf("Could not find %s, check rollup output.", missing[0])).Build()
	}
	return nil
}

func (b *Bundler) command(ctx context.Context, args ...string) *exec.Cmd {
	args = append([]string{"-c", RollupConfig}, args...)
	// #nosec G204 -- the bundler binary lives in the checkout given on the command line.
	cmd := exec.CommandContext(ctx, filepath.Join(b.Source, RollupBin), args...)
	cmd.Dir = b.Source
	cmd.Stdout = b.Stdout
	cmd.Stderr = b.Stderr
	return cmd
}

// RunOnce bundles the theme and waits for the bundler to exit.
func (b *Bundler) RunOnce(ctx context.Context) error {
	start := time.Now()
	if err := b.command(ctx).Run(); err != nil {
		return derrors.WrapError(err, derrors.CategoryBuild, "theme bundler failed").
			WithContext("source", b.Source).Build()
	}
	slog.Info("Theme bundled", logfields.Path(b.OutputDir()), logfields.Duration(time.Since(start)))
	return nil
}

// Watch starts the bundler in watch mode as a child process in its own
// process group. Stop terminates it.
func (b *Bundler) Watch(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.watch != nil {
		return nil
	}
	cmd := b.command(ctx, "--watch")
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killGroup(cmd) }
	if err := cmd.Start(); err != nil {
		return derrors.WrapError(err, derrors.CategoryBuild, "failed to start theme bundler").
			WithContext("source", b.Source).Build()
	}
	done := make(chan struct{})
	go func() {
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			slog.Warn("Theme bundler exited", logfields.Error(err))
		}
		close(done)
	}()
	b.watch, b.done = cmd, done
	slog.Info("Theme bundler watching", logfields.Path(b.Source))
	return nil
}

// Stop terminates the watch process group and waits for it to exit.
func (b *Bundler) Stop() {
	b.mu.Lock()
	cmd, done := b.watch, b.done
	b.watch, b.done = nil, nil
	b.mu.Unlock()
	if cmd == nil {
		return
	}
	if err := killGroup(cmd); err != nil {
		slog.Debug("Theme bundler kill", logfields.Error(err))
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		slog.Warn("Theme bundler did not exit")
	}
}
