package browser

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"konbiniwatch/logger"
	"konbiniwatch/pkg/errors"
)

// Session is one browser tab. Strategies navigate it, wait for
// selectors and evaluate snapshot scripts; they never touch rod
// directly, which keeps them testable with a fake session.
type Session interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	WaitSelector(ctx context.Context, selector string, timeout time.Duration) error
	Eval(ctx context.Context, js string, out any) error
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Browser creates sessions against a shared headless browser process
type Browser interface {
	NewSession(ctx context.Context) (Session, error)
	Close() error
}

type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// chromiumPaths are tried before falling back to rod's own download
var chromiumPaths = []string{
	"/usr/bin/chromium-browser",
	"/usr/bin/chromium",
	"/usr/bin/google-chrome",
}

// New launches a headless browser. The sandbox is disabled because the
// worker runs in a container without user namespaces.
func New() (Browser, error) {
	// fixed window size keeps the layout thresholds meaningful
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("window-size", "1280,2000")

	for _, path := range chromiumPaths {
		if _, err := os.Stat(path); err == nil {
			l = l.Bin(path)
			logger.ForBrowser().Debug().Str("bin", path).Msg("Using system chromium")
			break
		}
	}

	url, err := l.Launch()
	if err != nil {
		return nil, errors.New(errors.ErrorTypeNavigation, "", "failed to launch browser", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, errors.New(errors.ErrorTypeNavigation, "", "failed to connect to browser", err)
	}

	return &rodBrowser{browser: b, launcher: l}, nil
}

func (b *rodBrowser) NewSession(ctx context.Context) (Session, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, errors.New(errors.ErrorTypeNavigation, "", "failed to open page", err)
	}
	return &rodSession{page: page}, nil
}

func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Cleanup()
	return err
}

type rodSession struct {
	page *rod.Page
}

func (s *rodSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	page := s.page.Context(ctx).Timeout(timeout)
	if err := page.Navigate(url); err != nil {
		return errors.NewNavigation("", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return errors.NewNavigation("", url, err)
	}
	return nil
}

func (s *rodSession) WaitSelector(ctx context.Context, selector string, timeout time.Duration) error {
	page := s.page.Context(ctx).Timeout(timeout)
	if _, err := page.Element(selector); err != nil {
		return errors.NewSelectorMiss("", selector)
	}
	return nil
}

// Eval runs a page function and decodes its JSON result into out
func (s *rodSession) Eval(ctx context.Context, js string, out any) error {
	res, err := s.page.Context(ctx).Eval(js)
	if err != nil {
		return errors.New(errors.ErrorTypeNavigation, "", "page evaluation failed", err)
	}
	raw := res.Value.JSON("", "")
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return errors.New(errors.ErrorTypeNavigation, "", "failed to decode evaluation result", err)
	}
	return nil
}

func (s *rodSession) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", errors.New(errors.ErrorTypeNavigation, "", "failed to read page html", err)
	}
	return html, nil
}

func (s *rodSession) Close() error {
	return s.page.Close()
}
