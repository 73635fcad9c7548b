package utils

import (
	"context"

	"barreau-extractor/internal/types"
)

// FetchOptions tune a scripted fetch; static fetches ignore them
type FetchOptions struct {
	// WaitSelector is the content-ready signal, "body" when empty
	WaitSelector string
	// ClickSelector matches "show details" controls clicked before capture
	ClickSelector string
}

// PageFetcher returns the raw content of a URL
type PageFetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (string, error)
	Mode() types.FetchMode
	Close()
}

// NewPageFetcher picks the fetcher variant from config.Mode.
// Scripted mode starts the browser immediately so a missing binary fails fast.
func NewPageFetcher(config *types.Config, logger types.Logger) (PageFetcher, error) {
	if config.Mode == types.ModeScripted {
		browser := NewBrowserClient(config, logger)
		if err := browser.Start(); err != nil {
			return nil, err
		}
		return &scriptedFetcher{browser: browser}, nil
	}
	return &staticFetcher{client: NewHTTPClient(config, logger)}, nil
}

type staticFetcher struct {
	client *HTTPClient
}

func (s *staticFetcher) Fetch(ctx context.Context, url string, _ FetchOptions) (string, error) {
	body, err := s.client.Get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (s *staticFetcher) Mode() types.FetchMode { return types.ModeStatic }
func (s *staticFetcher) Close()                { s.client.Close() }

type scriptedFetcher struct {
	browser *BrowserClient
}

func (s *scriptedFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (string, error) {
	return s.browser.GetPageContent(ctx, url, opts)
}

func (s *scriptedFetcher) Mode() types.FetchMode { return types.ModeScripted }
func (s *scriptedFetcher) Close()                { s.browser.Close() }
