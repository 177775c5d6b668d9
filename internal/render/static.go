package render

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"hackathon-sync/internal/observability"
)

type StaticOptions struct {
	UserAgent      string
	AcceptLanguage string
	ConnectTimeout time.Duration
	TotalTimeout   time.Duration
	RobotsCacheTTL time.Duration
}

// StaticRenderer забирает страницу обычным GET без выполнения JS.
// Используется, когда rod выключен; повторов нет: сбой источника отдаётся наверх.
type StaticRenderer struct {
	client *http.Client
	opts   StaticOptions
	logger *observability.Logger
	robots *RobotsCache
}

func NewStaticRenderer(opts StaticOptions, logger *observability.Logger) *StaticRenderer {
	client := &http.Client{
		Timeout: opts.TotalTimeout,
		Transport: &http.Transport{
			DialContext:         (&net.Dialer{Timeout: opts.ConnectTimeout}).DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &StaticRenderer{
		client: client,
		opts:   opts,
		logger: logger,
		robots: NewRobotsCache(opts.RobotsCacheTTL),
	}
}

func (r *StaticRenderer) Render(ctx context.Context, target Target) (Page, error) {
	parsedURL, err := url.Parse(target.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	allowed, err := r.robots.IsAllowed(ctx, parsedURL, r.opts.UserAgent, r.client)
	if err != nil {
		return nil, fmt.Errorf("robots.txt check failed: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("URL disallowed by robots.txt: %s", target.URL)
	}

	body, status, err := r.fetch(ctx, target.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrNotReady, target.URL, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrNotReady, target.URL, status)
	}

	doc, err := NewDocument(string(body), target.URL)
	if err != nil {
		return nil, err
	}
	if target.ReadySelector != "" && !doc.Has(target.ReadySelector) {
		return nil, fmt.Errorf("%w: %q not found on %s", ErrNotReady, target.ReadySelector, target.URL)
	}
	return doc, nil
}

func (r *StaticRenderer) fetch(ctx context.Context, urlStr string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, 0, err
	}
	if r.opts.UserAgent != "" {
		req.Header.Set("User-Agent", r.opts.UserAgent)
	}
	if r.opts.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", r.opts.AcceptLanguage)
	}
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			r.logger.Warn("Failed to close response body", "url", urlStr, "error", err.Error())
		}
	}()

	reader := io.Reader(resp.Body)
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, resp.StatusCode, err
		}
		defer func() { _ = gzipReader.Close() }()
		reader = gzipReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	r.logger.Debug("Page fetched",
		"url", urlStr,
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"bytes", len(body),
	)
	return body, resp.StatusCode, nil
}

func (r *StaticRenderer) Close() error {
	r.client.CloseIdleConnections()
	return nil
}
