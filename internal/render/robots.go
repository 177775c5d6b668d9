package render

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

type RobotsCache struct {
	cache map[string]*robotsTxt
	ttl   time.Duration
	mu    sync.RWMutex
}

type robotsTxt struct {
	disallow  []string
	expiresAt time.Time
}

func NewRobotsCache(ttl time.Duration) *RobotsCache {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RobotsCache{
		cache: make(map[string]*robotsTxt),
		ttl:   ttl,
	}
}

// IsAllowed проверяет путь по robots.txt хоста. Недоступный robots.txt считается разрешением.
func (rc *RobotsCache) IsAllowed(ctx context.Context, target *url.URL, userAgent string, client *http.Client) (bool, error) {
	host := target.Scheme + "://" + target.Host

	rc.mu.RLock()
	cached, exists := rc.cache[host]
	rc.mu.RUnlock()

	if !exists || time.Now().After(cached.expiresAt) {
		cached = &robotsTxt{
			disallow:  rc.fetch(ctx, host, userAgent, client),
			expiresAt: time.Now().Add(rc.ttl),
		}
		rc.mu.Lock()
		rc.cache[host] = cached
		rc.mu.Unlock()
	}

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	return !isDisallowed(cached.disallow, path), nil
}

func (rc *RobotsCache) fetch(ctx context.Context, host, userAgent string, client *http.Client) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/robots.txt", host), nil)
	if err != nil {
		return nil
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	return parseDisallow(io.LimitReader(resp.Body, 512*1024))
}

// parseDisallow собирает Disallow из групп "User-agent: *".
func parseDisallow(r io.Reader) []string {
	var rules []string
	inGroup, groupHasRules := false, false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx > -1 {
			line = line[:idx]
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			if groupHasRules {
				inGroup, groupHasRules = false, false
			}
			if value == "*" {
				inGroup = true
			}
		case "disallow", "allow":
			groupHasRules = true
			if inGroup && key == "disallow" && value != "" {
				rules = append(rules, value)
			}
		}
	}
	return rules
}

func isDisallowed(rules []string, path string) bool {
	for _, prefix := range rules {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
