package backend

import (
	"encoding/base64"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxVideos = 2

	// obfuscatedSegment is the path index after which ssscdn/tikcdn links
	// carry a base64-encoded target URL.
	obfuscatedSegment = 5
)

// linkRules classify download links as video or audio.
type linkRules struct {
	video func(link string) bool
	audio func(link string) bool
}

// hrefs returns every absolute link on the page, de-obfuscated, in
// document order. Links back to the scraped service or to TikTok itself
// are dropped.
func hrefs(p *page, ownHost string) []string {
	if p.doc == nil {
		return nil
	}
	var out []string
	p.doc.Find("[href]").Each(func(_ int, s *goquery.Selection) {
		h := deobfuscate(strings.TrimSpace(s.AttrOr("href", "")))
		u, err := url.Parse(h)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return
		}
		if (ownHost != "" && strings.EqualFold(u.Hostname(), ownHost)) || onHost(h, "tiktok.com") {
			return
		}
		out = append(out, h)
	})
	return out
}

// deobfuscate decodes CDN links that hide the real URL as base64 path
// segments. Anything that does not decode to a URL is returned unchanged.
func deobfuscate(href string) string {
	if !strings.Contains(href, "ssscdn") && !strings.Contains(href, "tikcdn") {
		return href
	}
	parts := strings.Split(href, "/")
	if len(parts) <= obfuscatedSegment {
		return href
	}
	encoded := strings.Join(parts[obfuscatedSegment:], "/")
	if decoded, ok := decodeBase64(encoded); ok {
		return decoded
	}
	return href
}

var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.URLEncoding,
	base64.RawStdEncoding,
	base64.RawURLEncoding,
}

func decodeBase64(s string) (string, bool) {
	for _, enc := range encodings {
		b, err := enc.DecodeString(s)
		if err != nil || !utf8.Valid(b) {
			continue
		}
		decoded := strings.TrimSpace(string(b))
		if strings.HasPrefix(decoded, "https://") || strings.HasPrefix(decoded, "http://") {
			return decoded, true
		}
	}
	return "", false
}

// classify splits links into at most two video candidates and one audio
// link. Links on preferredHost sort ahead of the rest.
func classify(links []string, rules linkRules, preferredHost string) (videos []string, audio string) {
	seen := make(map[string]bool)
	var audios []string
	for _, l := range links {
		if seen[l] {
			continue
		}
		seen[l] = true
		if rules.video(l) {
			videos = append(videos, l)
		}
		if rules.audio(l) {
			audios = append(audios, l)
		}
	}

	preferFirst(videos, preferredHost)
	preferFirst(audios, preferredHost)

	if len(videos) > maxVideos {
		videos = videos[:maxVideos]
	}
	if len(audios) > 0 {
		audio = audios[0]
	}
	return videos, audio
}

func preferFirst(links []string, host string) {
	if host == "" {
		return
	}
	sort.SliceStable(links, func(i, j int) bool {
		return onHost(links[i], host) && !onHost(links[j], host)
	})
}

func onHost(link, host string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	h := strings.ToLower(u.Hostname())
	host = strings.ToLower(host)
	return h == host || strings.HasSuffix(h, "."+host)
}

var statPattern = regexp.MustCompile(`(?i)(\d[\d.,]*)\s*([kmb])?\s*(likes|views|comments|shares)`)

type stats struct {
	likes, views, comments, shares int64
}

// parseStats reads "<n> Likes" style counters. A later counter of the same
// kind overrides an earlier one.
func parseStats(text string) stats {
	var s stats
	for _, m := range statPattern.FindAllStringSubmatch(text, -1) {
		n := parseCount(m[1], m[2])
		switch strings.ToLower(m[3]) {
		case "likes":
			s.likes = n
		case "views":
			s.views = n
		case "comments":
			s.comments = n
		case "shares":
			s.shares = n
		}
	}
	return s
}

// parseCount handles "1,234", "1.234" and suffixed "1.2K" forms.
func parseCount(num, suffix string) int64 {
	if suffix == "" {
		n, _ := strconv.ParseInt(strings.NewReplacer(",", "", ".", "", " ", "").Replace(num), 10, 64)
		return n
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", "."), 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(suffix) {
	case "k":
		f *= 1e3
	case "m":
		f *= 1e6
	case "b":
		f *= 1e9
	}
	return int64(math.Round(f))
}

// splitMusic splits "Author - Title" attributions.
func splitMusic(text string) (title, author string) {
	parts := strings.SplitN(text, " - ", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[0])
	}
	return strings.TrimSpace(text), ""
}

// imageSources returns the src of every image matching sel.
func imageSources(p *page, sel string) []string {
	if p.doc == nil {
		return nil
	}
	var out []string
	p.doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		if src := strings.TrimSpace(s.AttrOr("src", "")); src != "" {
			out = append(out, src)
		}
	})
	return out
}

var (
	profileLinkPattern = regexp.MustCompile(`tiktok\.com/@([a-zA-Z0-9_.]{1,24})`)
	handlePattern      = regexp.MustCompile(`@([a-zA-Z0-9_.]{1,24})`)
)

// cssAtRules share the @word shape with handles.
var cssAtRules = map[string]bool{
	"media": true, "import": true, "font": true, "keyframes": true,
	"charset": true, "supports": true, "page": true,
}

// handle finds the first @handle in the page text that is not a CSS at-rule.
func handle(p *page) string {
	for _, m := range handlePattern.FindAllStringSubmatch(p.text(), -1) {
		if !cssAtRules[strings.ToLower(m[1])] {
			return m[1]
		}
	}
	return ""
}
