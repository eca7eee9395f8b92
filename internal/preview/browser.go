package preview

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
	"git.home.luguber.info/inful/doctools/internal/logfields"
)

// browserReloader drives a visible browser over the DevTools protocol and
// reloads the open page after each build.
type browserReloader struct {
	url     string
	bin     string
	devPool string

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func newBrowserReloader(url, bin, devPool string) *browserReloader {
	return &browserReloader{url: url, bin: bin, devPool: devPool}
}

func (b *browserReloader) Name() string   { return "browser" }
func (b *browserReloader) Script() string { return "" }

// Start launches the browser and opens the site.
func (b *browserReloader) Start(ctx context.Context) error {
	if err := removeDevPool(b.devPool); err != nil {
		return err
	}

	l := launcher.New().Headless(false).Context(ctx)
	switch {
	case b.bin != "":
		l = l.Bin(b.bin)
	default:
		if path, ok := launcher.LookPath(); ok {
			l = l.Bin(path)
		}
	}
	controlURL, err := l.Launch()
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryBrowser, "launch browser").Build()
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return derrors.WrapError(err, derrors.CategoryBrowser, "connect to browser").
			WithContext("control_url", controlURL).Build()
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: b.url})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return derrors.WrapError(err, derrors.CategoryBrowser, "open page").
			WithContext("url", b.url).Build()
	}

	b.mu.Lock()
	b.launcher, b.browser, b.page = l, browser, page
	b.mu.Unlock()
	slog.Info("Browser opened", logfields.URL(b.url))
	return nil
}

// Reload refreshes the open page. An error means the browser is gone.
func (b *browserReloader) Reload(context.Context, string) error {
	b.mu.Lock()
	page := b.page
	b.mu.Unlock()
	if page == nil {
		return derrors.BrowserError("Browser disconnected").Build()
	}
	if err := page.Reload(); err != nil {
		return derrors.BrowserError("Browser disconnected").WithCause(err).Build()
	}
	return nil
}

func (b *browserReloader) Close() error {
	b.mu.Lock()
	l, browser := b.launcher, b.browser
	b.launcher, b.browser, b.page = nil, nil, nil
	b.mu.Unlock()
	if browser != nil {
		if err := browser.Close(); err != nil {
			slog.Debug("Browser close", logfields.Error(err))
		}
	}
	if l != nil {
		l.Kill()
	}
	return nil
}
