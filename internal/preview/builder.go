package preview

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
	"git.home.luguber.info/inful/doctools/internal/logfields"
	"git.home.luguber.info/inful/doctools/internal/metrics"
)

// DevPoolEnv is set (empty) in the build environment when the page polls the
// dev-pool file; the theme then embeds the polling script itself.
const DevPoolEnv = "ADOC_DEVPOOL"

// Builder runs the documentation build command in the docs folder.
type Builder struct {
	Dir     string
	Command []string
	// Pool adds DevPoolEnv to the environment.
	Pool     bool
	Recorder metrics.Recorder
	Stdout   io.Writer
	Stderr   io.Writer

	mu sync.Mutex
}

// Build runs one build and returns its id. Builds never overlap.
func (b *Builder) Build(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	rec := b.recorder()
	if len(b.Command) == 0 {
		return id, derrors.ConfigError("empty build command").Build()
	}

	// #nosec G204 -- the build command comes from the user's configuration.
	cmd := exec.CommandContext(ctx, b.Command[0], b.Command[1:]...)
	cmd.Dir = b.Dir
	cmd.Stdout = b.Stdout
	cmd.Stderr = b.Stderr
	cmd.Env = os.Environ()
	if b.Pool {
		cmd.Env = append(cmd.Env, DevPoolEnv+"=")
	}

	command := strings.Join(b.Command, " ")
	slog.Debug("Building docs", logfields.BuildID(id), logfields.Command(command), logfields.Path(b.Dir))
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	rec.ObserveRebuildDuration(elapsed)

	switch {
	case err == nil:
		rec.IncRebuild(metrics.OutcomeSuccess)
		slog.Info("Docs built", logfields.BuildID(id), logfields.Duration(elapsed))
		return id, nil
	case ctx.Err() != nil:
		rec.IncRebuild(metrics.OutcomeCanceled)
		return id, derrors.WrapError(ctx.Err(), derrors.CategoryBuild, "build canceled").
			WithContext("build_id", id).Build()
	default:
		rec.IncRebuild(metrics.OutcomeFailed)
		eb := derrors.WrapError(err, derrors.CategoryBuild, "build failed").
			WithContext("build_id", id).
			WithContext("command", command)
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			eb = eb.WithContext("exit_code", exitErr.ExitCode())
		}
		return id, eb.Build()
	}
}

func (b *Builder) recorder() metrics.Recorder {
	if b.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return b.Recorder
}
