package preview

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
	"git.home.luguber.info/inful/doctools/internal/logfields"
	"git.home.luguber.info/inful/doctools/internal/metrics"
)

const themeSyncDelay = 200 * time.Millisecond

// ThemeSync copies bundler outputs into the served static directory
// whenever the bundler rewrites them.
type ThemeSync struct {
	Src      string
	Dst      string
	Names    []string
	Recorder metrics.Recorder
	// OnSync is called after a batch of outputs has been copied.
	OnSync func()

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

// CopyAll copies every output into Dst.
func (s *ThemeSync) CopyAll() error {
	for _, name := range s.Names {
		if err := s.copy(name); err != nil {
			return err
		}
	}
	return nil
}

// Run watches Src until ctx is cancelled.
func (s *ThemeSync) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "fsnotify").Build()
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(s.Src); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "watch theme outputs").
			WithContext("path", s.Src).Build()
	}
	defer s.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Theme watcher error", logfields.Error(err))
		}
	}
}

func (s *ThemeSync) handleEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	name := filepath.Base(ev.Name)
	if !slices.Contains(s.Names, name) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		s.pending = map[string]struct{}{}
	}
	s.pending[name] = struct{}{}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(themeSyncDelay, s.flush)
}

func (s *ThemeSync) flush() {
	s.mu.Lock()
	names := make([]string, 0, len(s.pending))
	for name := range s.pending {
		names = append(names, name)
	}
	s.pending = nil
	s.mu.Unlock()
	slices.Sort(names)

	copied := 0
	for _, name := range names {
		if err := s.copy(name); err != nil {
			slog.Warn("Theme sync failed", logfields.File(name), logfields.Error(err))
			continue
		}
		copied++
	}
	if copied == 0 {
		return
	}
	slog.Info("Theme outputs updated", logfields.Count(copied))
	if s.OnSync != nil {
		s.OnSync()
	}
}

func (s *ThemeSync) stopTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *ThemeSync) copy(name string) error {
	src := filepath.Join(s.Src, name)
	dst := filepath.Join(s.Dst, name)
	if err := copyFile(src, dst); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "copy theme output").
			WithContext("src", src).WithContext("dst", dst).Build()
	}
	if s.Recorder != nil {
		s.Recorder.IncThemeSync()
	}
	slog.Debug("Theme output copied", logfields.File(name))
	return nil
}

func copyFile(src, dst string) error {
	// #nosec G304 -- theme outputs of the bundler.
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	tmp := dst + ".tmp"
	// #nosec G304 -- destination inside the build directory.
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
