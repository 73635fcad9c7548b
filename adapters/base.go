package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"barreau-extractor/internal/types"
	"barreau-extractor/utils"

	"github.com/PuerkitoBio/goquery"
)

// BaseAdapter provides common functionality for bar directory adapters.
// It holds the page fetcher owned by the runner and offers the page, selector
// and URL helpers that site-specific adapters build on.
type BaseAdapter struct {
	config  *types.Config     // Configuration settings (timeouts, fetch mode, etc.)
	logger  types.Logger      // Structured logging interface
	fetcher utils.PageFetcher // Static or scripted page fetcher
	baseURL *url.URL          // Site root used to absolutise links
}

// NewBaseAdapter creates a base adapter bound to a site root.
// The fetcher is not closed by the adapter.
func NewBaseAdapter(config *types.Config, logger types.Logger, fetcher utils.PageFetcher, baseURL string) (*BaseAdapter, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid base url %q", types.ErrInvalidConfig, baseURL)
	}

	return &BaseAdapter{
		config:  config,
		logger:  logger,
		fetcher: fetcher,
		baseURL: u,
	}, nil
}

// GetPageContent retrieves the HTML content of a page through the page fetcher.
// Scripted fetches honour the wait and click options; static fetches ignore them.
func (b *BaseAdapter) GetPageContent(ctx context.Context, pageURL string, opts utils.FetchOptions) (string, error) {
	return b.fetcher.Fetch(ctx, pageURL, opts)
}

// ParseHTML parses HTML content into a goquery document
func (b *BaseAdapter) ParseHTML(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// FetchDocument fetches and parses a page in one step
func (b *BaseAdapter) FetchDocument(ctx context.Context, pageURL string, opts utils.FetchOptions) (*goquery.Document, error) {
	html, err := b.GetPageContent(ctx, pageURL, opts)
	if err != nil {
		return nil, err
	}

	doc, err := b.ParseHTML(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	return doc, nil
}

// ExtractText extracts text from the first element matching selector under sel
func (b *BaseAdapter) ExtractText(sel *goquery.Selection, selector string) (string, error) {
	element := sel.Find(selector).First()
	if element.Length() == 0 {
		return "", fmt.Errorf("element not found with selector: %s", selector)
	}

	return strings.Join(strings.Fields(element.Text()), " "), nil
}

// ExtractAttribute extracts an attribute value from the first element matching selector.
// The selection itself is tried when none of its descendants match.
func (b *BaseAdapter) ExtractAttribute(sel *goquery.Selection, selector string, attribute string) (string, error) {
	element := sel.Find(selector).First()
	if element.Length() == 0 {
		element = sel.Filter(selector).First()
	}
	if element.Length() == 0 {
		return "", fmt.Errorf("element not found with selector: %s", selector)
	}

	value, exists := element.Attr(attribute)
	if !exists {
		return "", fmt.Errorf("attribute %s not found on element %s", attribute, selector)
	}

	return strings.TrimSpace(value), nil
}

// AbsoluteURL resolves href against the site root. Anchors, javascript: and
// mailto: links yield "".
func (b *BaseAdapter) AbsoluteURL(href string) string {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := b.baseURL.ResolveReference(ref)
	abs.Fragment = ""
	return abs.String()
}

// RemoveDuplicateURLs returns the urls not yet in seen, first occurrence first, and
// records them in seen. A nil seen only removes duplicates within urls.
func (b *BaseAdapter) RemoveDuplicateURLs(urls []string, seen map[string]bool) []string {
	if seen == nil {
		seen = make(map[string]bool)
	}
	var uniqueURLs []string

	for _, url := range urls {
		if !seen[url] {
			seen[url] = true
			uniqueURLs = append(uniqueURLs, url)
		}
	}

	return uniqueURLs
}

// ResolveDetail fetches a listing's detail page and attaches the content subtree.
// The whole body is used when contentSelector is empty or matches nothing.
func (b *BaseAdapter) ResolveDetail(ctx context.Context, listing types.Listing, contentSelector string, opts utils.FetchOptions) (types.Listing, error) {
	doc, err := b.FetchDocument(ctx, listing.DetailURL, opts)
	if err != nil {
		return listing, err
	}

	content := doc.Find("body")
	if contentSelector != "" {
		if found := doc.Find(contentSelector); found.Length() > 0 {
			content = found.First()
		} else {
			b.logger.Debugf("Detail selector %q not found on %s, using page body", contentSelector, listing.DetailURL)
		}
	}

	resolved := listing
	resolved.SourceURL = listing.DetailURL
	resolved.Doc = content
	return resolved, nil
}

// Close releases adapter-held resources; the fetcher belongs to the runner
func (b *BaseAdapter) Close() {
	b.logger.Debugf("Adapter for %s closed", b.baseURL.Host)
}
