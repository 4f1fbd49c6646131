package growjo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"investor_intel/pkg/core/logging"
	"investor_intel/pkg/core/refine"
)

// Scraper loads Growjo pages in a headless browser.
type Scraper struct {
	URL         string
	WaitTimeout time.Duration
	// ControlURL connects to an already running browser (e.g. a Chrome
	// container). When empty a local headless browser is launched.
	ControlURL string
	Logger     *zap.Logger
}

// NewScraper returns a scraper for the Growjo home page.
func NewScraper(url string, wait time.Duration, controlURL string, logger *zap.Logger) *Scraper {
	if wait <= 0 {
		wait = 15 * time.Second
	}
	return &Scraper{URL: url, WaitTimeout: wait, ControlURL: controlURL, Logger: logging.OrNop(logger)}
}

// RecentUpdates scrapes the recent-update cards from the home page.
func (s *Scraper) RecentUpdates(ctx context.Context) ([]Update, error) {
	html, err := s.PageHTML(ctx, s.URL, CardSelector)
	if err != nil {
		return nil, err
	}
	updates, err := ParseCards(html)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("scraped growjo updates", zap.Int("count", len(updates)))
	return updates, nil
}

// CompanyTable scrapes the company results table at url.
func (s *Scraper) CompanyTable(ctx context.Context, url string) ([]refine.RawRecord, error) {
	html, err := s.PageHTML(ctx, url, TableSelector)
	if err != nil {
		return nil, err
	}
	rows, err := ParseCompanyTable(html)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("scraped growjo company table", zap.String("url", url), zap.Int("rows", len(rows)))
	return rows, nil
}

// PageHTML opens url, waits until selector is present and returns the
// rendered HTML.
func (s *Scraper) PageHTML(ctx context.Context, url, selector string) (string, error) {
	browser, cleanup, err := s.connect(ctx)
	if err != nil {
		return "", err
	}
	defer cleanup()

	waitCtx, cancel := context.WithTimeout(ctx, s.WaitTimeout)
	defer cancel()

	page, err := browser.Context(waitCtx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", fmt.Errorf("open %s: %w", url, err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load %s: %w", url, err)
	}
	if _, err := page.Element(selector); err != nil {
		return "", fmt.Errorf("wait for %q: %w", selector, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

func (s *Scraper) connect(ctx context.Context) (*rod.Browser, func(), error) {
	controlURL := s.ControlURL
	var l *launcher.Launcher
	if controlURL == "" {
		l = launcher.New().Headless(true).NoSandbox(true).Set("disable-dev-shm-usage")
		u, err := l.Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().Context(ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		if l != nil {
			l.Cleanup()
		}
		return nil, nil, fmt.Errorf("connect browser: %w", err)
	}
	s.Logger.Debug("browser connected", zap.String("control_url", controlURL))

	cleanup := func() {
		if err := browser.Close(); err != nil {
			s.Logger.Warn("close browser", zap.Error(err))
		}
		if l != nil {
			l.Cleanup()
		}
	}
	return browser, cleanup, nil
}
