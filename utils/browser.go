package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"barreau-extractor/internal/types"
)

// CookieConsentPhrases are the button labels tried once per navigation
var CookieConsentPhrases = []string{"Accepter", "Tout accepter", "J'accepte", "OK", "Valider"}

const cookieConsentScript = `(() => {
	const phrases = %s.map(p => p.toLowerCase());
	const nodes = Array.from(document.querySelectorAll('button, a, [role="button"], input[type="button"], input[type="submit"]'));
	for (const phrase of phrases) {
		for (const node of nodes) {
			const label = (node.innerText || node.value || '').trim().toLowerCase();
			if ((label === phrase || label.startsWith(phrase + ' ')) && node.offsetParent !== null) {
				node.click();
				return true;
			}
		}
	}
	return false;
})()`

// BrowserClient provides scripted page fetching over a single browser tab.
// Navigations are serialised: one in-flight navigation per session.
type BrowserClient struct {
	config *types.Config
	logger types.Logger

	mu          sync.Mutex
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
}

// NewBrowserClient creates a browser client; the browser starts on first use or on Start
func NewBrowserClient(config *types.Config, logger types.Logger) *BrowserClient {
	return &BrowserClient{
		config: config,
		logger: logger,
	}
}

// Start launches the browser. It fails with ErrBrowserUnavailable when no browser can run.
func (b *BrowserClient) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startLocked()
}

func (b *BrowserClient) startLocked() error {
	if b.tabCtx != nil {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.config.Headless),
		chromedp.Flag("lang", "fr-FR"),
		chromedp.UserAgent(b.config.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(b.logger.Debugf),
		chromedp.WithErrorf(b.logger.Debugf),
	)

	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}

	b.tabCtx, b.tabCancel, b.allocCancel = tabCtx, tabCancel, allocCancel
	b.logger.Debugf("Browser session started (headless=%v)", b.config.Headless)
	return nil
}

// GetPageContent navigates to url, waits for the ready selector, dismisses a
// cookie banner if one is present, optionally clicks expansion controls, and
// returns the rendered HTML.
func (b *BrowserClient) GetPageContent(ctx context.Context, url string, opts FetchOptions) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.startLocked(); err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(b.tabCtx, b.config.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", classify(url, err)
	}

	readySelector := opts.WaitSelector
	if readySelector == "" {
		readySelector = "body"
	}
	waitCtx, waitCancel := context.WithTimeout(runCtx, b.config.WaitTimeout)
	if err := chromedp.Run(waitCtx, chromedp.WaitReady(readySelector, chromedp.ByQuery)); err != nil {
		b.logger.Debugf("Ready selector %q not seen on %s: %v", readySelector, url, err)
	}
	waitCancel()

	b.acceptCookies(runCtx)

	if opts.ClickSelector != "" {
		b.expand(runCtx, opts.ClickSelector)
	}

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", classify(url, err)
	}

	if blocked, marker := DetectBlock(nil, []byte(html)); blocked {
		return "", &FetchError{URL: url, Kind: ErrBotBlock, Err: fmt.Errorf("%s marker", marker)}
	}

	b.logger.Debugf("Successfully retrieved page content from %s (%d bytes)", url, len(html))
	return html, nil
}

// acceptCookies performs at most one click on a consent button. Failures are silent.
func (b *BrowserClient) acceptCookies(ctx context.Context) {
	phrases, err := json.Marshal(CookieConsentPhrases)
	if err != nil {
		return
	}

	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(cookieConsentScript, phrases), &clicked)); err != nil {
		return
	}
	if clicked {
		b.logger.Debug("Cookie banner dismissed")
		_ = chromedp.Run(ctx, chromedp.Sleep(500*time.Millisecond))
	}
}

// expand clicks every element matching selector, e.g. "show details" toggles
func (b *BrowserClient) expand(ctx context.Context, selector string) {
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(n => { n.click(); return 1; }).length`, selector)

	var count int
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &count)); err != nil {
		b.logger.Debugf("Expansion click on %q failed: %v", selector, err)
		return
	}
	if count > 0 {
		_ = chromedp.Run(ctx, chromedp.Sleep(time.Duration(count)*50*time.Millisecond+500*time.Millisecond))
	}
}

// Close shuts the browser down
func (b *BrowserClient) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tabCancel != nil {
		b.tabCancel()
		b.allocCancel()
		b.tabCtx, b.tabCancel, b.allocCancel = nil, nil, nil
	}
}
