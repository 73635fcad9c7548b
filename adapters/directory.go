package adapters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"barreau-extractor/internal/types"
	"barreau-extractor/utils"

	"github.com/PuerkitoBio/goquery"
)

// List URL placeholders expanded during pagination
const (
	pagePlaceholder   = "{page}"
	letterPlaceholder = "{letter}"
)

// SiteDefinition describes a bar directory in terms of URLs and CSS selectors
type SiteDefinition struct {
	Name    string `yaml:"name"`
	Title   string `yaml:"title"`
	BaseURL string `yaml:"base_url"`

	// ListURL may contain {page} and {letter}
	ListURL   string `yaml:"list_url"`
	FirstPage int    `yaml:"first_page"`
	Pages     int    `yaml:"pages"`
	Letters   string `yaml:"letters"`
	// StopWhenEmpty ends pagination of the current letter at the first page without cards
	StopWhenEmpty bool `yaml:"stop_when_empty"`

	CardSelector       string `yaml:"card_selector"`
	NameSelector       string `yaml:"name_selector"`
	DetailLinkSelector string `yaml:"detail_link_selector"`
	DetailSelector     string `yaml:"detail_selector"`

	Convention    string `yaml:"convention"`
	Scripted      bool   `yaml:"scripted"`
	WaitSelector  string `yaml:"wait_selector"`
	ClickSelector string `yaml:"click_selector"`

	// Extras are copied onto every listing
	Extras map[string]string `yaml:"extras"`
}

// Validate checks the fields an adapter cannot run without
func (d SiteDefinition) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if d.BaseURL == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	if d.ListURL == "" {
		errs = append(errs, errors.New("list_url is required"))
	}
	if d.CardSelector == "" {
		errs = append(errs, errors.New("card_selector is required"))
	}
	if strings.Contains(d.ListURL, pagePlaceholder) && d.Pages < 1 {
		errs = append(errs, errors.New("pages must be >= 1 when list_url has {page}"))
	}
	if strings.Contains(d.ListURL, letterPlaceholder) && d.Letters == "" {
		errs = append(errs, errors.New("letters is required when list_url has {letter}"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: site %q: %w", types.ErrInvalidConfig, d.Name, errors.Join(errs...))
	}
	return nil
}

// ListURLs expands the placeholders in directory order: letters outermost, then pages
func (d SiteDefinition) ListURLs() [][]string {
	letters := []string{""}
	if strings.Contains(d.ListURL, letterPlaceholder) {
		letters = strings.Split(d.Letters, "")
	}

	var groups [][]string
	for _, letter := range letters {
		base := strings.ReplaceAll(d.ListURL, letterPlaceholder, letter)
		if !strings.Contains(base, pagePlaceholder) {
			groups = append(groups, []string{base})
			continue
		}
		pages := make([]string, 0, d.Pages)
		for p := d.FirstPage; p < d.FirstPage+d.Pages; p++ {
			pages = append(pages, strings.ReplaceAll(base, pagePlaceholder, strconv.Itoa(p)))
		}
		groups = append(groups, pages)
	}
	return groups
}

// DirectoryAdapter enumerates a bar directory from a SiteDefinition.
// Cards carrying a detail link are yielded as detail listings and resolved
// later through ResolveListing; other cards are yielded with their subtree.
type DirectoryAdapter struct {
	*BaseAdapter
	def SiteDefinition
}

// NewDirectoryAdapter creates an adapter for one site definition
func NewDirectoryAdapter(def SiteDefinition, config *types.Config, logger types.Logger, fetcher utils.PageFetcher) (*DirectoryAdapter, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	base, err := NewBaseAdapter(config, logger, fetcher, def.BaseURL)
	if err != nil {
		return nil, err
	}

	return &DirectoryAdapter{
		BaseAdapter: base,
		def:         def,
	}, nil
}

// Name returns the site key
func (d *DirectoryAdapter) Name() string {
	return d.def.Name
}

// Convention returns the declared name ordering
func (d *DirectoryAdapter) Convention() types.Convention {
	return types.ParseConvention(d.def.Convention)
}

func (d *DirectoryAdapter) fetchOptions() utils.FetchOptions {
	return utils.FetchOptions{
		WaitSelector:  d.def.WaitSelector,
		ClickSelector: d.def.ClickSelector,
	}
}

// IterateListings walks every list page and yields one listing per card.
// A list page that fails to load is logged and skipped.
func (d *DirectoryAdapter) IterateListings(ctx context.Context, yield func(types.Listing) bool) error {
	startTime := time.Now()
	d.logger.Infof("Starting listing discovery for %s", d.def.Name)

	seen := make(map[string]bool)
	total := 0

	for _, pages := range d.def.ListURLs() {
		for _, pageURL := range pages {
			if err := ctx.Err(); err != nil {
				return err
			}

			d.logger.Debugf("Fetching list page: %s", pageURL)
			doc, err := d.FetchDocument(ctx, pageURL, d.fetchOptions())
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				d.logger.Warnf("Failed to get list page %s: %v", pageURL, err)
				continue
			}

			cards := doc.Find(d.def.CardSelector)
			d.logger.Debugf("Found %d cards on %s", cards.Length(), pageURL)
			if cards.Length() == 0 && d.def.StopWhenEmpty {
				break
			}

			var listings []types.Listing
			cards.Each(func(i int, card *goquery.Selection) {
				listings = append(listings, d.cardListing(pageURL, card))
			})

			stopped := false
			for _, listing := range d.newListings(listings, seen) {
				total++
				if !yield(listing) {
					stopped = true
					break
				}
			}
			if stopped {
				d.logger.Infof("Listing discovery for %s stopped after %d listings", d.def.Name, total)
				return nil
			}
		}
	}

	d.logger.Infof("Listing discovery for %s completed in %v: %d listings", d.def.Name, time.Since(startTime), total)
	return nil
}

// cardListing turns one card into a listing
func (d *DirectoryAdapter) cardListing(pageURL string, card *goquery.Selection) types.Listing {
	listing := types.Listing{
		SourceURL: pageURL,
		Extras:    d.extras(),
	}

	if d.def.NameSelector != "" {
		if name, err := d.ExtractText(card, d.def.NameSelector); err == nil {
			listing.Name = name
		}
	}

	if d.def.DetailLinkSelector != "" {
		href, err := d.ExtractAttribute(card, d.def.DetailLinkSelector, "href")
		if detailURL := d.AbsoluteURL(href); err == nil && detailURL != "" {
			listing.SourceURL = detailURL
			listing.DetailURL = detailURL
			return listing
		}
	}

	listing.Doc = card
	return listing
}

// newListings drops detail listings whose URL was already yielded, on this page or an earlier one
func (d *DirectoryAdapter) newListings(listings []types.Listing, seen map[string]bool) []types.Listing {
	var detailURLs []string
	for _, l := range listings {
		if l.DetailURL != "" {
			detailURLs = append(detailURLs, l.DetailURL)
		}
	}

	fresh := make(map[string]bool)
	for _, u := range d.RemoveDuplicateURLs(detailURLs, seen) {
		fresh[u] = true
	}

	out := make([]types.Listing, 0, len(listings))
	for _, l := range listings {
		if l.DetailURL != "" {
			if !fresh[l.DetailURL] {
				continue
			}
			delete(fresh, l.DetailURL)
		}
		out = append(out, l)
	}
	return out
}

func (d *DirectoryAdapter) extras() map[string]string {
	if len(d.def.Extras) == 0 {
		return nil
	}
	extras := make(map[string]string, len(d.def.Extras))
	for k, v := range d.def.Extras {
		extras[k] = v
	}
	return extras
}

// ResolveListing fetches the detail page of a listing
func (d *DirectoryAdapter) ResolveListing(ctx context.Context, listing types.Listing) (types.Listing, error) {
	return d.ResolveDetail(ctx, listing, d.def.DetailSelector, d.fetchOptions())
}
