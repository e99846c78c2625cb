package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tiksnap/internal/httputil"
	"tiksnap/internal/linkutil"
	"tiksnap/internal/logging"
	"tiksnap/internal/media"
)

// SSSTik scrapes the ssstik web tool. It is the primary backend.
type SSSTik struct {
	base          string // e.g. "https://ssstik.io"
	client        *http.Client
	preferredHost string
}

// NewSSSTik creates the ssstik backend. A nil client selects defaults.
func NewSSSTik(base string, c *http.Client, preferredHost string) *SSSTik {
	if c == nil {
		c = httputil.NewClient(0)
	}
	return &SSSTik{base: strings.TrimRight(base, "/"), client: c, preferredHost: preferredHost}
}

func (s *SSSTik) Name() string { return "ssstik" }

var ssstikToken = []strategy{
	pattern(regexp.MustCompile(`tt:\s*'([\w\d]+)'`)),
	pattern(regexp.MustCompile(`tt:\s*"([\w\d]+)"`)),
	selectAttr(`input[name="tt"]`, "value"),
}

var (
	ssstikTitle = []strategy{
		selectText(".tiktitle"),
		selectText("p.description"),
		selectText(".result-overlay"),
	}
	ssstikThumbnail = []strategy{
		selectAttr("img.pure-img", "src"),
		selectAttr("img.result_author", "src"),
		selectAttr("img", "src"),
	}
	ssstikMusic = []strategy{
		selectText("p.music"),
		selectText(".music"),
	}
)

var ssstikRules = linkRules{
	video: func(l string) bool {
		lower := strings.ToLower(l)
		return strings.Contains(lower, ".mp4") ||
			(strings.Contains(lower, "video") && !strings.Contains(lower, "music"))
	},
	audio: func(l string) bool {
		lower := strings.ToLower(l)
		return strings.Contains(lower, ".mp3") || strings.Contains(lower, "music") || strings.Contains(lower, "audio")
	},
}

// Fetch runs the token-then-submit exchange and scrapes the result page.
func (s *SSSTik) Fetch(ctx context.Context, canonicalURL string) (*media.Record, error) {
	if !linkutil.IsValid(canonicalURL) {
		return nil, fail(s.Name(), "validate", ErrInvalidURL)
	}
	log := logging.FromContext(ctx).With("backend", s.Name())
	client := httputil.WithSession(s.client)

	home, err := httputil.Get(ctx, client, s.base+"/en", http.Header{"User-Agent": {httputil.AndroidUA}})
	if err != nil {
		return nil, fail(s.Name(), "token", err)
	}
	tt := firstMatch(newPage(string(home)), ssstikToken...)
	if tt == "" {
		return nil, fail(s.Name(), "token", fmt.Errorf("%w: tt", ErrMarkerNotFound))
	}
	log.Debug("token found", "tt", tt)

	form := url.Values{"id": {canonicalURL}, "locale": {"en"}, "tt": {tt}}
	body, err := httputil.PostForm(ctx, client, s.base+"/abc?url=dl", form, http.Header{
		"User-Agent": {httputil.AndroidUA},
		"Origin":     {s.base},
		"Referer":    {s.base + "/en"},
		"HX-Request": {"true"},
	})
	if err != nil {
		return nil, fail(s.Name(), "submit", err)
	}

	rec := s.parse(string(body))
	log.Debug("parsed result", "videos", len(rec.Videos), "slides", len(rec.Slide), "audio", rec.Audio != "")
	if !rec.HasMedia() {
		return nil, fail(s.Name(), "parse", ErrNoMedia)
	}
	return rec, nil
}

func (s *SSSTik) parse(body string) *media.Record {
	p := newPage(body)
	st := parseStats(p.text())
	rec := &media.Record{
		Title:     firstMatch(p, ssstikTitle...),
		Creator:   firstMatch(p, pattern(profileLinkPattern), handle),
		Thumbnail: firstMatch(p, ssstikThumbnail...),
		Likes:     st.likes,
		Views:     st.views,
		Comments:  st.comments,
		Shares:    st.shares,
	}
	if music := firstMatch(p, ssstikMusic...); music != "" {
		rec.MusicTitle, rec.MusicAuthor = splitMusic(music)
	}
	rec.Videos, rec.Audio = classify(hrefs(p, hostOf(s.base)), ssstikRules, s.preferredHost)
	rec.Slide = s.slides(p, rec.Thumbnail)
	if len(rec.Slide) > 0 {
		rec.Videos = nil
	}
	return rec
}

// slides collects slideshow images. The carousel markup is preferred;
// otherwise any photo-looking image that is not the cover or the avatar.
func (s *SSSTik) slides(p *page, thumbnail string) []string {
	if out := imageSources(p, ".splide__slide img"); len(out) > 0 {
		return dedupe(out)
	}
	if out := imageSources(p, "ul.splide__list img"); len(out) > 0 {
		return dedupe(out)
	}
	if p.doc == nil {
		return nil
	}
	var out []string
	p.doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" || src == thumbnail || img.HasClass("result_author") {
			return
		}
		lower := strings.ToLower(src)
		if strings.Contains(lower, ".jpg") || strings.Contains(lower, ".jpeg") || strings.Contains(lower, "photo") {
			out = append(out, src)
		}
	})
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func hostOf(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
