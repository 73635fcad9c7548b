// Package fields holds the stateless extractors shared by every site adapter.
// Extractors never fail: a value that does not pass validation is returned empty.
package fields

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Source is the union a listing's extractors run over
type Source struct {
	Text    string
	Mailtos []string
	Tels    []string
}

var (
	spaceRe     = regexp.MustCompile(`[ \t\f\v\p{Zs}]+`)
	blankLineRe = regexp.MustCompile(`\n{2,}`)
)

// blockElements start a new line in the visible text
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "section": true, "table": true, "td": true,
	"th": true, "tr": true, "ul": true,
}

// wordElements style part of a word; other inline elements are separated from their neighbours
var wordElements = map[string]bool{
	"abbr": true, "b": true, "em": true, "i": true, "mark": true, "s": true,
	"small": true, "strong": true, "sub": true, "sup": true, "u": true,
}

// Harvest collects the visible text of sel, one block per line, plus its mailto: and tel: hrefs
func Harvest(sel *goquery.Selection) Source {
	var src Source
	if sel == nil {
		return src
	}

	var b strings.Builder
	for _, n := range sel.Nodes {
		writeVisible(&b, n)
	}
	src.Text = NormalizeText(b.String())

	sel.Find("a[href]").AddSelection(sel.Filter("a[href]")).Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		lower := strings.ToLower(href)
		switch {
		case strings.HasPrefix(lower, "mailto:"):
			if v := hrefValue(href[len("mailto:"):]); v != "" {
				src.Mailtos = append(src.Mailtos, v)
			}
		case strings.HasPrefix(lower, "tel:"):
			if v := hrefValue(href[len("tel:"):]); v != "" {
				src.Tels = append(src.Tels, v)
			}
		}
	})

	return src
}

func writeVisible(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template", "svg":
			return
		}
	}

	var sep byte
	if n.Type == html.ElementNode {
		switch {
		case blockElements[n.Data]:
			sep = '\n'
		case !wordElements[n.Data]:
			sep = ' '
		}
	}
	if sep != 0 {
		b.WriteByte(sep)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeVisible(b, c)
	}
	if sep != 0 {
		b.WriteByte(sep)
	}
}

// hrefValue strips query parameters and percent-encoding from a mailto:/tel: target
func hrefValue(v string) string {
	if i := strings.IndexByte(v, '?'); i >= 0 {
		v = v[:i]
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		v = decoded
	}
	return strings.TrimSpace(v)
}

// NormalizeText trims every line, collapses inline whitespace and drops blank lines
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankLineRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// CollapseSpaces turns every whitespace run, newlines included, into one space
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold lower-cases s and removes diacritics: "Droit Pénal" -> "droit penal"
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// truncateRunes cuts s to at most n runes
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
