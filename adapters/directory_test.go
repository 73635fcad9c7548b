package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barreau-extractor/internal/types"
	"barreau-extractor/utils"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newDirectoryServer(t *testing.T) *httptest.Server {
	t.Helper()
	pages := map[string]string{
		"/annuaire/page/1/": `<html><body>
			<article class="avocat"><h2><a href="/avocat/durand">DURAND Pierre</a></h2></article>
			<article class="avocat"><h2><a href="/avocat/martin#top">MARTIN Sophie</a></h2></article>
		</body></html>`,
		"/annuaire/page/2/": `<html><body>
			<article class="avocat"><h2><a href="/avocat/durand">DURAND Pierre</a></h2></article>
			<article class="avocat"><h2><a href="https://elsewhere.example.net/petit">PETIT Anne</a></h2></article>
			<article class="avocat"><h2>BERNARD Luc</h2><p>Tél : 04 50 00 00 00</p></article>
		</body></html>`,
		"/annuaire/page/3/": `<html><body><p>Aucun résultat</p></body></html>`,
		"/avocat/durand": `<html><body><header>Menu</header>
			<div class="fiche-avocat"><h1>DURAND Pierre</h1><p>Tél : 04 50 45 12 34</p></div>
		</body></html>`,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAdapter(t *testing.T, def SiteDefinition) *DirectoryAdapter {
	t.Helper()
	config := types.DefaultConfig()
	logger := newTestLogger()

	fetcher, err := utils.NewPageFetcher(config, logger)
	require.NoError(t, err)
	t.Cleanup(fetcher.Close)

	adapter, err := NewDirectoryAdapter(def, config, logger, fetcher)
	require.NoError(t, err)
	return adapter
}

func testDefinition(baseURL string) SiteDefinition {
	return SiteDefinition{
		Name:               "test",
		BaseURL:            baseURL,
		ListURL:            baseURL + "/annuaire/page/{page}/",
		FirstPage:          1,
		Pages:              5,
		StopWhenEmpty:      true,
		CardSelector:       "article.avocat",
		NameSelector:       "h2",
		DetailLinkSelector: "h2 a",
		DetailSelector:     ".fiche-avocat",
		Convention:         "last-first",
		Extras:             map[string]string{"barreau": "Test"},
	}
}

func collect(t *testing.T, adapter *DirectoryAdapter) []types.Listing {
	t.Helper()
	var listings []types.Listing
	err := adapter.IterateListings(context.Background(), func(l types.Listing) bool {
		listings = append(listings, l)
		return true
	})
	require.NoError(t, err)
	return listings
}

func TestDirectoryAdapter_IterateListings(t *testing.T) {
	srv := newDirectoryServer(t)
	adapter := newTestAdapter(t, testDefinition(srv.URL))

	listings := collect(t, adapter)

	require.Len(t, listings, 4)
	assert.Equal(t, "DURAND Pierre", listings[0].Name)
	assert.Equal(t, srv.URL+"/avocat/durand", listings[0].DetailURL)
	assert.Equal(t, srv.URL+"/avocat/durand", listings[0].SourceURL)
	assert.True(t, listings[0].NeedsDetail())
	assert.Equal(t, map[string]string{"barreau": "Test"}, listings[0].Extras)

	assert.Equal(t, srv.URL+"/avocat/martin", listings[1].DetailURL)
	assert.Equal(t, "https://elsewhere.example.net/petit", listings[2].DetailURL)

	assert.Equal(t, "BERNARD Luc", listings[3].Name)
	assert.False(t, listings[3].NeedsDetail())
	assert.Equal(t, srv.URL+"/annuaire/page/2/", listings[3].SourceURL)
	require.NotNil(t, listings[3].Doc)
	assert.Contains(t, listings[3].Doc.Text(), "04 50 00 00 00")
}

func TestDirectoryAdapter_StopsWhenYieldReturnsFalse(t *testing.T) {
	srv := newDirectoryServer(t)
	adapter := newTestAdapter(t, testDefinition(srv.URL))

	var listings []types.Listing
	err := adapter.IterateListings(context.Background(), func(l types.Listing) bool {
		listings = append(listings, l)
		return len(listings) < 1
	})

	require.NoError(t, err)
	assert.Len(t, listings, 1)
}

func TestDirectoryAdapter_SkipsFailingPages(t *testing.T) {
	srv := newDirectoryServer(t)
	def := testDefinition(srv.URL)
	def.ListURL = srv.URL + "/missing/{page}/"
	def.Pages = 2
	adapter := newTestAdapter(t, def)

	assert.Empty(t, collect(t, adapter))
}

func TestDirectoryAdapter_CancelledContext(t *testing.T) {
	srv := newDirectoryServer(t)
	adapter := newTestAdapter(t, testDefinition(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := adapter.IterateListings(ctx, func(types.Listing) bool { return true })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirectoryAdapter_ResolveListing(t *testing.T) {
	srv := newDirectoryServer(t)
	adapter := newTestAdapter(t, testDefinition(srv.URL))

	resolved, err := adapter.ResolveListing(context.Background(), types.Listing{
		Name:      "DURAND Pierre",
		SourceURL: srv.URL + "/avocat/durand",
		DetailURL: srv.URL + "/avocat/durand",
	})
	require.NoError(t, err)

	assert.False(t, resolved.NeedsDetail())
	assert.Equal(t, srv.URL+"/avocat/durand", resolved.SourceURL)
	assert.Contains(t, resolved.Doc.Text(), "04 50 45 12 34")
	assert.NotContains(t, resolved.Doc.Text(), "Menu")

	_, err = adapter.ResolveListing(context.Background(), types.Listing{DetailURL: srv.URL + "/avocat/inconnu"})
	assert.ErrorIs(t, err, utils.ErrHTTPStatus)
}

func TestSiteDefinition_ListURLs(t *testing.T) {
	def := SiteDefinition{
		ListURL:   "https://barreau.fr/annuaire?lettre={letter}&p={page}",
		Letters:   "AB",
		FirstPage: 0,
		Pages:     2,
	}

	assert.Equal(t, [][]string{
		{"https://barreau.fr/annuaire?lettre=A&p=0", "https://barreau.fr/annuaire?lettre=A&p=1"},
		{"https://barreau.fr/annuaire?lettre=B&p=0", "https://barreau.fr/annuaire?lettre=B&p=1"},
	}, def.ListURLs())

	single := SiteDefinition{ListURL: "https://barreau.fr/annuaire"}
	assert.Equal(t, [][]string{{"https://barreau.fr/annuaire"}}, single.ListURLs())
}

func TestSiteDefinition_Validate(t *testing.T) {
	assert.NoError(t, testDefinition("https://barreau.fr").Validate())

	def := testDefinition("https://barreau.fr")
	def.Pages = 0
	def.CardSelector = ""
	err := def.Validate()
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "card_selector")
	assert.Contains(t, err.Error(), "pages")
}

func TestBaseAdapter_AbsoluteURL(t *testing.T) {
	base, err := NewBaseAdapter(types.DefaultConfig(), newTestLogger(), nil, "https://www.barreau.fr/annuaire/")
	require.NoError(t, err)

	assert.Equal(t, "https://www.barreau.fr/avocat/1", base.AbsoluteURL("/avocat/1"))
	assert.Equal(t, "https://www.barreau.fr/annuaire/fiche?id=2", base.AbsoluteURL("fiche?id=2"))
	assert.Equal(t, "", base.AbsoluteURL("#top"))
	assert.Equal(t, "", base.AbsoluteURL("javascript:void(0)"))
	assert.Equal(t, "", base.AbsoluteURL("mailto:x@y.fr"))

	_, err = NewBaseAdapter(types.DefaultConfig(), newTestLogger(), nil, "barreau.fr")
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestBaseAdapter_RemoveDuplicateURLs(t *testing.T) {
	base, err := NewBaseAdapter(types.DefaultConfig(), newTestLogger(), nil, "https://www.barreau.fr/")
	require.NoError(t, err)

	urls := []string{"https://www.barreau.fr/a", "https://www.barreau.fr/b", "https://www.barreau.fr/a"}
	assert.Equal(t, []string{"https://www.barreau.fr/a", "https://www.barreau.fr/b"}, base.RemoveDuplicateURLs(urls, nil))

	seen := map[string]bool{"https://www.barreau.fr/b": true}
	assert.Equal(t, []string{"https://www.barreau.fr/a"}, base.RemoveDuplicateURLs(urls, seen))
	assert.True(t, seen["https://www.barreau.fr/a"])
	assert.Empty(t, base.RemoveDuplicateURLs(urls, seen))
}

func TestDirectoryAdapter_NewListings(t *testing.T) {
	adapter, err := NewDirectoryAdapter(testDefinition("https://www.barreau.fr"), types.DefaultConfig(), newTestLogger(), nil)
	require.NoError(t, err)

	listings := []types.Listing{
		{Name: "DURAND Pierre", DetailURL: "https://www.barreau.fr/avocat/durand"},
		{Name: "BERNARD Luc"},
		{Name: "DURAND Pierre", DetailURL: "https://www.barreau.fr/avocat/durand"},
		{Name: "MARTIN Sophie", DetailURL: "https://www.barreau.fr/avocat/martin"},
		{Name: "PETIT Anne"},
	}
	seen := map[string]bool{"https://www.barreau.fr/avocat/martin": true}

	fresh := adapter.newListings(listings, seen)

	var names []string
	for _, l := range fresh {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"DURAND Pierre", "BERNARD Luc", "PETIT Anne"}, names)
	assert.True(t, seen["https://www.barreau.fr/avocat/durand"])
}

func TestRegistry(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	var names []string
	for _, def := range registry.Definitions() {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{"annecy", "bordeaux", "guyane"}, names)

	guyane, ok := registry.Get("guyane")
	require.True(t, ok)
	assert.True(t, guyane.Scripted)
	assert.Equal(t, "first-last", guyane.Convention)

	_, err = registry.NewAdapter("inconnu", types.DefaultConfig(), newTestLogger(), nil)
	assert.ErrorIs(t, err, ErrUnknownSite)

	adapter, err := registry.NewAdapter("annecy", types.DefaultConfig(), newTestLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, "annecy", adapter.Name())
	assert.Equal(t, types.LastNameFirst, adapter.Convention())
	_, ok = adapter.(types.DetailResolver)
	assert.True(t, ok)
}

func TestRegistry_LoadFile(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`sites:
  - name: thonon
    base_url: https://www.avocats-thonon.fr
    list_url: https://www.avocats-thonon.fr/annuaire
    card_selector: .avocat
    convention: first-last
`), 0644))

	require.NoError(t, registry.LoadFile(path))
	def, ok := registry.Get("thonon")
	require.True(t, ok)
	assert.Equal(t, ".avocat", def.CardSelector)

	require.NoError(t, os.WriteFile(path, []byte("sites:\n  - name: broken\n"), 0644))
	assert.ErrorIs(t, registry.LoadFile(path), types.ErrInvalidConfig)
}
