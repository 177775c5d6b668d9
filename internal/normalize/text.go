// Package normalize содержит чистые функции разбора полей листинга:
// диапазоны дат, суммы призов, режим и локацию. Никакого I/O.
package normalize

import (
	"net/url"
	"regexp"
	"strings"
)

var spaceRe = regexp.MustCompile(`\s+`)

// CleanText заменяет NBSP на пробел, схлопывает пробелы и обрезает края.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00A0", " ")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeURL убирает якорь и разрешает относительную ссылку относительно base.
func NormalizeURL(raw, base string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, "#"); idx > -1 {
		raw = raw[:idx]
	}
	if raw == "" {
		return ""
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if ref.IsAbs() || base == "" {
		return ref.String()
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return ref.String()
	}
	return baseURL.ResolveReference(ref).String()
}
