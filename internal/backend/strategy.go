package backend

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// page is a scraped response, kept both raw and as a DOM.
type page struct {
	raw string
	doc *goquery.Document
}

func newPage(body string) *page {
	p := &page{raw: body}
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		p.doc = doc
	}
	return p
}

// text returns the visible text of the page, falling back to the raw body.
func (p *page) text() string {
	if p.doc == nil {
		return p.raw
	}
	return p.doc.Text()
}

// strategy extracts one field one way. An empty result means "no match".
type strategy func(p *page) string

// firstMatch runs strategies in order and returns the first non-empty result.
func firstMatch(p *page, strategies ...strategy) string {
	for _, s := range strategies {
		if v := s(p); v != "" {
			return v
		}
	}
	return ""
}

// selectText matches the trimmed text of the first element for sel.
func selectText(sel string) strategy {
	return func(p *page) string {
		if p.doc == nil {
			return ""
		}
		return collapse(p.doc.Find(sel).First().Text())
	}
}

// selectAttr matches attr of the first element for sel that has it.
func selectAttr(sel, attr string) strategy {
	return func(p *page) string {
		if p.doc == nil {
			return ""
		}
		var v string
		p.doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v = strings.TrimSpace(s.AttrOr(attr, ""))
			return v == ""
		})
		return v
	}
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// pattern matches the first capture group of re against the raw body,
// with markup stripped and entities decoded.
func pattern(re *regexp.Regexp) strategy {
	return func(p *page) string {
		m := re.FindStringSubmatch(p.raw)
		if len(m) < 2 {
			return ""
		}
		return collapse(html.UnescapeString(tagPattern.ReplaceAllString(m[1], "")))
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
