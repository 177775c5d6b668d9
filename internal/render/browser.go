package render

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"hackathon-sync/internal/observability"
)

type BrowserOptions struct {
	ChromePath   string
	UserAgent    string
	PageTimeout  time.Duration
	ReadyTimeout time.Duration
	ScrollDelay  time.Duration
	// MaxIdleScrolls: сколько прокруток подряд без новых карточек считать концом ленты.
	MaxIdleScrolls int
}

// BrowserRenderer отрисовывает страницы в headless Chrome.
type BrowserRenderer struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	opts     BrowserOptions
	logger   *observability.Logger
}

func NewBrowserRenderer(opts BrowserOptions, logger *observability.Logger) (*BrowserRenderer, error) {
	l := launcher.New().Headless(true).NoSandbox(true)
	if opts.ChromePath != "" {
		l = l.Bin(opts.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	if opts.MaxIdleScrolls <= 0 {
		opts.MaxIdleScrolls = 3
	}

	return &BrowserRenderer{launcher: l, browser: browser, opts: opts, logger: logger}, nil
}

func (r *BrowserRenderer) Render(ctx context.Context, target Target) (Page, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.PageTimeout)
	defer cancel()

	tab, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	defer func() {
		if err := tab.Close(); err != nil {
			r.logger.Warn("Failed to close tab", "url", target.URL, "error", err.Error())
		}
	}()

	page := tab.Context(ctx)
	if r.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.opts.UserAgent}); err != nil {
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}
	if err := page.Navigate(target.URL); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", target.URL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: load of %s: %v", ErrNotReady, target.URL, err)
	}

	if target.ReadySelector != "" {
		if _, err := page.Timeout(r.opts.ReadyTimeout).Element(target.ReadySelector); err != nil {
			return nil, fmt.Errorf("%w: %q not found on %s: %v", ErrNotReady, target.ReadySelector, target.URL, err)
		}
	}

	if target.Scroll {
		r.scroll(ctx, page, target)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read page HTML: %w", err)
	}
	return NewDocument(html, target.URL)
}

// scroll крутит ленту, пока количество карточек не перестанет расти.
func (r *BrowserRenderer) scroll(ctx context.Context, page *rod.Page, target Target) {
	previous, idle := -1, 0
	for idle < r.opts.MaxIdleScrolls {
		if _, err := page.Eval(`() => window.scrollBy(0, window.innerHeight)`); err != nil {
			r.logger.Warn("Scroll failed", "url", target.URL, "error", err.Error())
			return
		}

		select {
		case <-time.After(r.opts.ScrollDelay):
		case <-ctx.Done():
			return
		}

		cards, err := page.Elements(target.ListingSelector)
		if err != nil {
			return
		}
		if len(cards) == previous {
			idle++
		} else {
			idle = 0
		}
		previous = len(cards)
	}
	r.logger.Debug("Lazy load finished", "url", target.URL, "listings", previous)
}

func (r *BrowserRenderer) Close() error {
	err := r.browser.Close()
	r.launcher.Kill()
	r.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}
