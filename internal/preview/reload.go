package preview

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

// Reloader tells the browser that a new build is available.
type Reloader interface {
	// Name is the strategy label used in logs and metrics.
	Name() string
	// Script is injected into served HTML pages; empty disables injection.
	Script() string
	// Start runs once the server is listening.
	Start(ctx context.Context) error
	// Reload is called after every rebuild or theme sync.
	Reload(ctx context.Context, buildID string) error
	Close() error
}

// poolReloader writes the build time into the dev-pool file polled by the
// injected script.
type poolReloader struct {
	file string
	now  func() time.Time
}

func newPoolReloader(file string) *poolReloader {
	return &poolReloader{file: file, now: time.Now}
}

func (p *poolReloader) Name() string   { return "pool" }
func (p *poolReloader) Script() string { return poolScript }
func (p *poolReloader) Close() error   { return nil }

func (p *poolReloader) Start(context.Context) error { return p.touch() }

func (p *poolReloader) Reload(context.Context, string) error { return p.touch() }

func (p *poolReloader) touch() error {
	now := p.now()
	ts := strconv.FormatFloat(float64(now.Unix())+float64(now.Nanosecond())/1e9, 'f', -1, 64)
	if err := os.WriteFile(p.file, []byte(ts), 0o600); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "write dev-pool file").
			WithContext("path", p.file).Build()
	}
	return nil
}

// sseReloader pushes the build id to EventSource clients.
type sseReloader struct {
	hub *LiveReloadHub
}

func (s *sseReloader) Name() string                { return "sse" }
func (s *sseReloader) Script() string              { return sseScript }
func (s *sseReloader) Start(context.Context) error { return nil }

func (s *sseReloader) Reload(_ context.Context, buildID string) error {
	s.hub.Broadcast(buildID)
	return nil
}

func (s *sseReloader) Close() error {
	s.hub.Shutdown()
	return nil
}

// removeDevPool deletes a dev-pool file left over from a pool session so
// that the theme does not start polling.
func removeDevPool(file string) error {
	if err := os.Remove(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "remove dev-pool file").
			WithContext("path", file).Build()
	}
	return nil
}
