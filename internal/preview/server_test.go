package preview

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doctools/internal/config"
	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

// fakeBuild renders one page per run and counts the runs.
const fakeBuild = `mkdir -p _build/html && echo "<html><body>build $(cat builds.log 2>/dev/null | wc -l | tr -d ' ')</body></html>" > _build/html/index.html && echo run >> builds.log`

func testOptions(t *testing.T, dir string) Options {
	t.Helper()
	preview := config.Default().Preview
	preview.PollInterval = 50 * time.Millisecond
	preview.BuildCommand = []string{"sh", "-c", fakeBuild}
	return Options{
		Directory: dir,
		Port:      0,
		NoBrowser: true,
		Preview:   preview,
		Stdout:    io.Discard,
		Stderr:    io.Discard,
	}
}

// startServer runs s until the test ends and returns its base URL.
func startServer(t *testing.T, s *Server) string {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("author mode did not stop")
		}
	})

	select {
	case <-s.Ready():
	case err := <-done:
		t.Fatalf("author mode stopped early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("author mode did not start")
	}
	port := s.Addr().(*net.TCPAddr).Port
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func buildCount(t *testing.T, dir string) int {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "builds.log"))
	if err != nil {
		return 0
	}
	return strings.Count(string(data), "\n")
}

func TestServer_PoolStrategy(t *testing.T) {
	dir := docsDir(t)
	s, err := New(testOptions(t, dir))
	require.NoError(t, err)
	base := startServer(t, s)

	assert.Equal(t, 1, buildCount(t, dir))
	assert.Equal(t, fmt.Sprintf("http://0.0.0.0:%d", s.Addr().(*net.TCPAddr).Port), s.url())
	page := get(t, base+"/")
	assert.Contains(t, page, "build 0")
	assert.Contains(t, page, poolScript)

	pool := s.Layout().DevPoolFile()
	first, err := os.ReadFile(pool)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	assert.Contains(t, get(t, base+MetricsPath), "doctools_rebuilds_total")

	bump(t, filepath.Join(dir, "source", "user", "guide.rst"))
	require.Eventually(t, func() bool { return buildCount(t, dir) == 2 }, 5*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(pool)
		return err == nil && string(data) != string(first)
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, get(t, base+"/"), "build 1")

	// Unchanged sources do not rebuild.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 2, buildCount(t, dir))
}

func TestServer_SSEStrategy(t *testing.T) {
	dir := docsDir(t)
	opts := testOptions(t, dir)
	opts.SSE = true
	opts.Preview.NoMetrics = true
	s, err := New(opts)
	require.NoError(t, err)
	base := startServer(t, s)

	assert.Contains(t, get(t, base+"/"), sseScript)
	_, err = os.Stat(s.Layout().DevPoolFile())
	assert.True(t, os.IsNotExist(err))

	resp, err := http.Get(base + MetricsPath)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "metrics are disabled")

	r := connectSSE(t, base+LiveReloadPath)
	require.True(t, readUntil(r, ": connected"))
	require.Eventually(t, func() bool { return s.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	writeTree(t, filepath.Join(dir, "source"), map[string]string{"added.rst": "Added\n"})
	assert.True(t, readUntil(r, `"build":"`))
}

func TestServer_BrowserFallsBackToPool(t *testing.T) {
	dir := docsDir(t)
	opts := testOptions(t, dir)
	opts.NoBrowser = false
	opts.Preview.Strategy = config.StrategyBrowser
	opts.Preview.BrowserBin = filepath.Join(t.TempDir(), "no-such-browser")
	opts.Preview.BuildCommand = []string{"sh", "-c", `echo "devpool=${` + DevPoolEnv + `+set}" >> env.log && ` + fakeBuild}
	s, err := New(opts)
	require.NoError(t, err)
	require.Equal(t, "browser", s.currentReloader().Name())
	base := startServer(t, s)

	assert.Equal(t, "pool", s.currentReloader().Name())
	s.builder.mu.Lock()
	assert.True(t, s.builder.Pool)
	s.builder.mu.Unlock()
	_, err = os.Stat(s.Layout().DevPoolFile())
	require.NoError(t, err)
	assert.Contains(t, get(t, base+"/"), poolScript)

	// The build after falling back sees the dev-pool variable.
	assert.Equal(t, 2, buildCount(t, dir))
	env, err := os.ReadFile(filepath.Join(dir, "env.log"))
	require.NoError(t, err)
	assert.Equal(t, "devpool=\ndevpool=set\n", string(env))
}

// disconnectedBrowser starts fine and fails every reload.
type disconnectedBrowser struct {
	reloads atomic.Int32
	closed  atomic.Bool
}

func (d *disconnectedBrowser) Name() string                { return "browser" }
func (d *disconnectedBrowser) Script() string              { return "" }
func (d *disconnectedBrowser) Start(context.Context) error { return nil }

func (d *disconnectedBrowser) Reload(context.Context, string) error {
	d.reloads.Add(1)
	return derrors.BrowserError("Browser disconnected").Build()
}

func (d *disconnectedBrowser) Close() error {
	d.closed.Store(true)
	return nil
}

func TestServer_BrowserDisconnectStops(t *testing.T) {
	dir := docsDir(t)
	s, err := New(testOptions(t, dir))
	require.NoError(t, err)
	browser := &disconnectedBrowser{}
	s.reloader = browser

	done := make(chan error, 1)
	go func() { done <- s.Run(t.Context()) }()
	select {
	case <-s.Ready():
	case err := <-done:
		t.Fatalf("author mode stopped early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("author mode did not start")
	}

	bump(t, filepath.Join(dir, "source", "index.rst"))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("author mode kept running after the browser went away")
	}
	assert.Equal(t, int32(1), browser.reloads.Load())
	assert.True(t, browser.closed.Load())
	assert.Equal(t, 2, buildCount(t, dir))
}

func TestServer_DevModeSyncsTheme(t *testing.T) {
	dir := docsDir(t)
	opts := testOptions(t, dir)
	opts.Dev = true
	opts.Source = themeSource(t)
	opts.Preview.ThemeStaticDir = "theme/static"
	s, err := New(opts)
	require.NoError(t, err)
	base := startServer(t, s)

	for _, name := range ThemeOutputs {
		_, err := os.Stat(filepath.Join(s.Layout().StaticDir(), name))
		assert.NoError(t, err, name)
	}
	assert.Contains(t, get(t, base+"/_static/app.umd.js"), "-c "+RollupConfig)
}

func TestServer_ListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "0.0.0.0:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	dir := docsDir(t)
	opts := testOptions(t, dir)
	opts.Port = ln.Addr().(*net.TCPAddr).Port
	s, err := New(opts)
	require.NoError(t, err)

	err = s.Run(t.Context())
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryServer))
	assert.Contains(t, err.Error(), fmt.Sprintf("Could not start server on http://0.0.0.0:%d", opts.Port))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please provide a --directory.")

	opts := testOptions(t, docsDir(t))
	opts.Dev = true
	opts.Source = t.TempDir()
	_, err = New(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbolic install")
}

func TestOptions_Strategy(t *testing.T) {
	assert.Equal(t, config.StrategyBrowser, Options{}.strategy())
	assert.Equal(t, config.StrategyPool, Options{NoBrowser: true}.strategy())
	assert.Equal(t, config.StrategySSE, Options{NoBrowser: true, SSE: true}.strategy())
	assert.Equal(t, config.StrategySSE, Options{Preview: config.PreviewConfig{Strategy: config.StrategySSE}}.strategy())
}

func TestRegenerate(t *testing.T) {
	src := themeSource(t)
	preview := config.PreviewConfig{ThemeStaticDir: "theme/static"}
	require.NoError(t, Regenerate(t.Context(), src, preview, io.Discard, io.Discard))
	_, err := os.Stat(filepath.Join(src, "theme", "static", "icons.svg"))
	require.NoError(t, err)

	require.Error(t, Regenerate(t.Context(), t.TempDir(), preview, io.Discard, io.Discard))
}
