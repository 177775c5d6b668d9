package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document: Page поверх готового HTML.
type Document struct {
	doc *goquery.Document
	url string
}

func NewDocument(html, pageURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{doc: doc, url: pageURL}, nil
}

func (d *Document) URL() string {
	return d.url
}

// Has сообщает, есть ли на странице хотя бы один элемент по селектору.
func (d *Document) Has(selector string) bool {
	return d.doc.Find(selector).Length() > 0
}

func (d *Document) Listings(selector string) []Listing {
	var listings []Listing
	d.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		listings = append(listings, &selectionListing{sel: sel})
	})
	return listings
}

type selectionListing struct {
	sel *goquery.Selection
}

func (l *selectionListing) Field(rule FieldRule) (string, bool) {
	for _, selector := range rule.Selectors {
		target := l.sel
		if selector != "" && selector != ":scope" {
			target = l.sel.Find(selector)
		}
		target = target.First()
		if target.Length() == 0 {
			continue
		}

		if rule.Attr != "" {
			if attr, exists := target.Attr(rule.Attr); exists && strings.TrimSpace(attr) != "" {
				return strings.TrimSpace(attr), true
			}
			continue
		}

		if text := strings.TrimSpace(target.Text()); text != "" {
			return text, true
		}
	}
	return "", false
}
