package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/doctools/internal/config"
	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
	"git.home.luguber.info/inful/doctools/internal/logfields"
	"git.home.luguber.info/inful/doctools/internal/metrics"
)

// MetricsPath serves the Prometheus metrics of author mode.
const MetricsPath = "/_doctools/metrics"

// Options configures an author-mode session.
type Options struct {
	// Directory is the docs folder holding the Makefile.
	Directory string
	Port      int
	// Dev watches and bundles the theme of the doctools checkout at Source.
	Dev    bool
	Source string
	// NoBrowser forces the pool strategy.
	NoBrowser bool
	// SSE selects the server-sent events strategy.
	SSE     bool
	Preview config.PreviewConfig
	// Stdout and Stderr receive the output of the build tools.
	Stdout io.Writer
	Stderr io.Writer
}

func (o Options) strategy() config.ReloadStrategy {
	switch {
	case o.SSE:
		return config.StrategySSE
	case o.NoBrowser:
		return config.StrategyPool
	case o.Preview.Strategy == "":
		return config.StrategyBrowser
	default:
		return o.Preview.Strategy
	}
}

// Server is one author-mode session.
type Server struct {
	opts     Options
	layout   Layout
	recorder metrics.Recorder
	registry *prom.Registry
	builder  *Builder
	bundler  *Bundler
	tracker  *SourceTracker
	hub      *LiveReloadHub

	mu       sync.Mutex
	reloader Reloader

	themeDirty atomic.Bool
	fatal      chan error
	ready      chan struct{}
	addr       net.Addr
}

// New validates the docs folder and prepares a session.
func New(opts Options) (*Server, error) {
	if opts.Directory == "" {
		return nil, derrors.ValidationError("Please provide a --directory.").Build()
	}
	layout, err := LoadLayout(opts.Directory)
	if err != nil {
		return nil, err
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Preview.PollInterval <= 0 {
		opts.Preview.PollInterval = time.Second
	}

	s := &Server{
		opts:     opts,
		layout:   layout,
		recorder: metrics.NoopRecorder{},
		fatal:    make(chan error, 1),
		ready:    make(chan struct{}),
	}
	if !opts.Preview.NoMetrics {
		s.registry = prom.NewRegistry()
		s.recorder = metrics.NewPrometheusRecorder(s.registry)
	}
	s.hub = NewLiveReloadHub(s.recorder)

	command := opts.Preview.BuildCommand
	if len(command) == 0 {
		command = []string{"make", "html"}
	}
	s.builder = &Builder{
		Dir:      layout.Dir,
		Command:  command,
		Pool:     opts.strategy() == config.StrategyPool,
		Recorder: s.recorder,
		Stdout:   opts.Stdout,
		Stderr:   opts.Stderr,
	}
	s.tracker = NewSourceTracker(layout.SourceDir, layout.BuildDirName, opts.Preview.WatchPatterns, opts.Preview.Unmanaged)

	switch opts.strategy() {
	case config.StrategySSE:
		s.reloader = &sseReloader{hub: s.hub}
	case config.StrategyPool:
		s.reloader = newPoolReloader(layout.DevPoolFile())
	default:
		s.reloader = newBrowserReloader(s.url(), opts.Preview.BrowserBin, layout.DevPoolFile())
	}

	if opts.Dev {
		s.bundler = &Bundler{
			Source:    opts.Source,
			StaticDir: opts.Preview.ThemeStaticDir,
			Stdout:    io.Discard,
			Stderr:    opts.Stderr,
		}
		if err := s.bundler.Check(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Layout returns the parsed docs folder layout.
func (s *Server) Layout() Layout { return s.layout }

// Ready is closed once the HTTP server is listening.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr is the listening address; valid after Ready.
func (s *Server) Addr() net.Addr { return s.addr }

// url is the site address, using the bound port once listening.
func (s *Server) url() string {
	port := s.opts.Port
	if a, ok := s.addr.(*net.TCPAddr); ok {
		port = a.Port
	}
	return fmt.Sprintf("http://0.0.0.0:%d", port)
}

// Run builds the docs, serves them and rebuilds on change until ctx is
// cancelled or the browser goes away.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var theme *ThemeSync
	if s.bundler != nil {
		var err error
		if theme, err = s.prepareTheme(ctx); err != nil {
			return err
		}
	}

	if _, err := s.builder.Build(ctx); err != nil {
		slog.Warn("Initial build failed", logfields.Error(err))
	}

	if theme != nil {
		if err := theme.CopyAll(); err != nil {
			slog.Warn("Theme sync failed", logfields.Error(err))
		}
		if err := s.bundler.Watch(ctx); err != nil {
			return err
		}
		defer s.bundler.Stop()
		go func() {
			if err := theme.Run(ctx); err != nil {
				slog.Warn("Theme watcher stopped", logfields.Error(err))
			}
		}()
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", s.opts.Port))
	if err != nil {
		return derrors.ServerError(fmt.Sprintf("Could not start server on http://0.0.0.0:%d", s.opts.Port)).
			WithCause(err).Build()
	}
	s.addr = ln.Addr()

	srv := &http.Server{Handler: s.routes(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.fail(derrors.WrapError(err, derrors.CategoryServer, "http server").Build())
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP server shutdown error", logfields.Error(err))
		}
	}()
	slog.Info("Serving docs", logfields.URL(s.url()), logfields.Path(s.layout.BuildDir))

	fellBack, err := s.startReloader(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.currentReloader().Close() }()
	if fellBack {
		// The initial build ran without the dev-pool variable.
		if id, err := s.builder.Build(ctx); err != nil {
			slog.Warn("Rebuild for pooling failed", logfields.Error(err))
		} else if err := s.currentReloader().Reload(ctx, id); err != nil {
			slog.Warn("Reload failed", logfields.Strategy("pool"), logfields.Error(err))
		}
	}

	if _, err := s.tracker.Scan(); err != nil {
		return err
	}
	sched, err := newPollScheduler()
	if err != nil {
		return err
	}
	if err := sched.Every(s.opts.Preview.PollInterval, "source-poll", func() { s.poll(ctx) }); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			slog.Warn("Scheduler shutdown error", logfields.Error(err))
		}
	}()
	close(s.ready)

	select {
	case <-ctx.Done():
		slog.Info("Shutting down author mode")
		return nil
	case err := <-s.fatal:
		return err
	}
}

func (s *Server) prepareTheme(ctx context.Context) (*ThemeSync, error) {
	if missing := s.bundler.Missing(); len(missing) > 0 {
		slog.Info("Theme outputs missing, bundling", logfields.Count(len(missing)))
		if err := s.bundler.RunOnce(ctx); err != nil {
			return nil, err
		}
	}
	if err := s.bundler.Verify(); err != nil {
		return nil, err
	}
	return &ThemeSync{
		Src:      s.bundler.OutputDir(),
		Dst:      s.layout.StaticDir(),
		Names:    ThemeOutputs,
		Recorder: s.recorder,
		OnSync:   func() { s.themeDirty.Store(true) },
	}, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	if s.registry != nil {
		mux.Handle(MetricsPath, metrics.HTTPHandler(s.registry))
	}
	mux.Handle(LiveReloadPath, s.hub)
	files := http.FileServer(http.Dir(s.layout.BuildDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		injectScript(files, s.currentReloader().Script()).ServeHTTP(w, r)
	}))
	return mux
}

// startReloader starts the configured strategy, falling back to the pool
// strategy when no browser can be driven. It reports whether it fell back.
func (s *Server) startReloader(ctx context.Context) (bool, error) {
	r := s.currentReloader()
	if b, ok := r.(*browserReloader); ok {
		b.url = s.url()
	}
	err := r.Start(ctx)
	if err == nil {
		slog.Info("Reload strategy ready", logfields.Strategy(r.Name()))
		return false, nil
	}
	if r.Name() != "browser" {
		return false, err
	}
	slog.Warn("Browser unavailable, pooling enabled", logfields.Error(err))
	_ = r.Close()
	pool := newPoolReloader(s.layout.DevPoolFile())
	s.mu.Lock()
	s.reloader = pool
	s.mu.Unlock()
	s.builder.mu.Lock()
	s.builder.Pool = true
	s.builder.mu.Unlock()
	return true, pool.Start(ctx)
}

func (s *Server) currentReloader() Reloader {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloader
}

// poll rebuilds when a source changed and reloads after a rebuild or a
// theme sync.
func (s *Server) poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	changed, err := s.tracker.Scan()
	if err != nil {
		slog.Warn("Source scan failed", logfields.Error(err))
		return
	}
	buildID := ""
	if len(changed) > 0 {
		s.recorder.AddSourceChanges(len(changed))
		slog.Info("Change detected; rebuilding", logfields.Count(len(changed)), logfields.File(changed[0]))
		id, err := s.builder.Build(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("Rebuild failed", logfields.Error(err))
		}
		buildID = id
	}
	if s.themeDirty.Swap(false) && buildID == "" {
		buildID = fmt.Sprintf("theme-%d", time.Now().UnixNano())
	}
	if buildID == "" {
		return
	}

	r := s.currentReloader()
	if err := r.Reload(ctx, buildID); err != nil {
		if r.Name() == "browser" {
			slog.Info("Browser disconnected")
			s.fail(nil)
			return
		}
		slog.Warn("Reload failed", logfields.Strategy(r.Name()), logfields.Error(err))
		return
	}
	s.recorder.IncReload(r.Name())
}

func (s *Server) fail(err error) {
	select {
	case s.fatal <- err:
	default:
	}
}

// Regenerate bundles the theme of the checkout at source once.
func Regenerate(ctx context.Context, source string, preview config.PreviewConfig, stdout, stderr io.Writer) error {
	b := &Bundler{Source: source, StaticDir: preview.ThemeStaticDir, Stdout: stdout, Stderr: stderr}
	if err := b.Check(); err != nil {
		return err
	}
	if err := b.RunOnce(ctx); err != nil {
		return err
	}
	return b.Verify()
}
