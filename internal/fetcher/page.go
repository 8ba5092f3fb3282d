package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
)

// PageOptions parameterise the headless screenshot capturer.
type PageOptions struct {
	URL     string
	Timeout time.Duration
}

// Page captures the rendered source page as a PNG through a disposable
// headless Chrome. Each capture launches and tears down its own browser;
// a single scheduled run does not warrant keeping one alive.
type Page struct {
	opts   PageOptions
	logger zerolog.Logger
}

// NewPage constructs a screenshot capturer.
func NewPage(opts PageOptions, logger zerolog.Logger) *Page {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Page{opts: opts, logger: logger.With().Str("component", "page_capture").Logger()}
}

// Capture navigates to the page and returns a full-page PNG screenshot.
func (p *Page) Capture(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	controlURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			p.logger.Warn().Err(err).Msg("browser close failed")
		}
	}()

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := page.Context(ctx).Navigate(p.opts.URL); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", p.opts.URL, err)
	}
	if err := page.Context(ctx).WaitLoad(); err != nil {
		p.logger.Warn().Err(err).Str("url", p.opts.URL).Msg("wait load timed out, capturing anyway")
	}

	format := proto.PageCaptureScreenshotFormatPng
	shot, err := page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{Format: format})
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}

	p.logger.Debug().Int("bytes", len(shot)).Msg("page captured")
	return shot, nil
}
