// Package linkutil finds, cleans and validates TikTok share links.
// Everything here is pure string work; nothing touches the network.
package linkutil

import (
	"regexp"
	"strings"
)

var (
	// sharePatterns are tried in order. The first pattern with any match
	// decides the result, even if a later pattern matches earlier in the text.
	sharePatterns = []*regexp.Regexp{
		regexp.MustCompile(`https?://(?:www\.)?tiktok\.com/@[^/\s]*/video/\d+\S*`),
		regexp.MustCompile(`https?://(?:www\.)?tiktok\.com/@[^/\s]*/photo/\d+\S*`),
		regexp.MustCompile(`https?://(?:www\.)?tiktok\.com/t/[A-Za-z0-9]+\S*`),
		regexp.MustCompile(`https?://vm\.tiktok\.com/[A-Za-z0-9]+\S*`),
		regexp.MustCompile(`https?://vm\.tiktok\.com/\d+\S*`),
		regexp.MustCompile(`https?://vt\.tiktok\.com/[A-Za-z0-9]+\S*`),
		regexp.MustCompile(`https?://m\.tiktok\.com/v/\d+\.html\S*`),
		regexp.MustCompile(`https?://[^/\s]*tiktok\.com/\S*`),
	}

	// trailingPunct is sentence punctuation glued to a pasted link.
	trailingPunct = regexp.MustCompile(`[.,!?;]+$`)

	// looseDomain is the last-chance test for input that no share pattern matched.
	looseDomain = regexp.MustCompile(`tiktok\.com`)

	// validHost accepts the primary domain and the known short-link subdomains.
	validHost = regexp.MustCompile(`(?i)^(https?://)?(www\.)?(tiktok\.com|vt\.tiktok\.com|vm\.tiktok\.com|m\.tiktok\.com)/`)

	// shortHost matches the redirecting short-link subdomains.
	shortHost = regexp.MustCompile(`(?i)^(https?://)?(vm|vt)\.tiktok\.com/`)

	// itemID pulls the numeric post id out of canonical and mobile paths.
	itemID = regexp.MustCompile(`/(?:video|photo|v)/(\d+)`)
)

// Extract returns the first TikTok link found in text.
// If no link pattern matches, the trimmed text is returned when it still
// mentions the domain, otherwise text is returned untouched.
func Extract(text string) string {
	for _, pat := range sharePatterns {
		if m := pat.FindString(text); m != "" {
			return trailingPunct.ReplaceAllString(m, "")
		}
	}

	trimmed := strings.TrimSpace(text)
	if looseDomain.MatchString(trimmed) {
		return trimmed
	}
	return text
}

// Clean extracts the link from text and strips query, fragment and trailing
// slashes. TikTok links get an https scheme, added when none is present
// and replacing a plain http one.
func Clean(text string) string {
	clean := Extract(strings.TrimSpace(text))
	if clean == "" {
		return text
	}

	if i := strings.Index(clean, "?"); i != -1 {
		clean = clean[:i]
	}
	if i := strings.Index(clean, "#"); i != -1 {
		clean = clean[:i]
	}
	switch {
	case !strings.HasPrefix(strings.ToLower(clean), "http"):
		clean = "https://" + clean
	case strings.HasPrefix(strings.ToLower(clean), "http://") && validHost.MatchString(clean):
		clean = "https://" + clean[len("http://"):]
	}
	return strings.TrimRight(clean, "/")
}

// IsValid reports whether u points at a known TikTok host.
func IsValid(u string) bool {
	return validHost.MatchString(u)
}

// IsShortLink reports whether u needs redirect resolution before scraping.
func IsShortLink(u string) bool {
	return strings.Contains(u, "/t/") || shortHost.MatchString(u)
}

// VideoID returns the numeric post id in u, or "" for short links and
// profile URLs.
func VideoID(u string) string {
	m := itemID.FindStringSubmatch(u)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
