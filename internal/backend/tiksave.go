package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"tiksnap/internal/httputil"
	"tiksnap/internal/linkutil"
	"tiksnap/internal/logging"
	"tiksnap/internal/media"
)

// TikSave scrapes the tiksave web tool. It is the secondary backend.
type TikSave struct {
	base          string // e.g. "https://tiksave.io"
	client        *http.Client
	preferredHost string
}

// NewTikSave creates the tiksave backend. A nil client selects defaults.
func NewTikSave(base string, c *http.Client, preferredHost string) *TikSave {
	if c == nil {
		c = httputil.NewClient(0)
	}
	return &TikSave{base: strings.TrimRight(base, "/"), client: c, preferredHost: preferredHost}
}

func (t *TikSave) Name() string { return "tiksave" }

// The home page token is optional; newer deployments rely on the session
// cookie alone.
var tiksaveToken = []strategy{
	selectAttr(`input[name="token"]`, "value"),
	pattern(regexp.MustCompile(`k_token\s*=\s*["']([^"']+)["']`)),
}

var tiksaveExpiry = pattern(regexp.MustCompile(`k_exp\s*=\s*["']?(\d+)`))

var (
	tiksaveTitle = []strategy{
		selectText(".content"),
		selectText(".desc"),
		selectText(".tik-video h3"),
	}
	tiksaveThumbnail = []strategy{
		selectAttr("img.tik-left", "src"),
		selectAttr(".tik-left img", "src"),
		selectAttr(".thumbnail img", "src"),
	}
)

var tiksaveRules = linkRules{
	video: func(l string) bool {
		lower := strings.ToLower(l)
		return strings.Contains(lower, ".mp4") ||
			(strings.Contains(lower, "video") && !strings.Contains(lower, "audio"))
	},
	audio: func(l string) bool {
		lower := strings.ToLower(l)
		return strings.Contains(lower, ".mp3") || strings.Contains(lower, "audio")
	},
}

// ajaxResponse is the search envelope. Data is either the HTML fragment
// itself or an object wrapping it.
type ajaxResponse struct {
	Status string          `json:"status"`
	Mess   string          `json:"mess"`
	Data   json.RawMessage `json:"data"`
}

func (r *ajaxResponse) html() string {
	var s string
	if err := json.Unmarshal(r.Data, &s); err == nil {
		return s
	}
	var wrapped struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(r.Data, &wrapped); err == nil {
		return wrapped.Data
	}
	return ""
}

// Fetch opens a session, submits the URL to the search endpoint and
// scrapes the returned fragment.
func (t *TikSave) Fetch(ctx context.Context, canonicalURL string) (*media.Record, error) {
	if !linkutil.IsValid(canonicalURL) {
		return nil, fail(t.Name(), "validate", ErrInvalidURL)
	}
	log := logging.FromContext(ctx).With("backend", t.Name())
	client := httputil.WithSession(t.client)
	header := http.Header{
		"User-Agent":       {httputil.AndroidUA},
		"Origin":           {t.base},
		"Referer":          {t.base + "/"},
		"X-Requested-With": {"XMLHttpRequest"},
	}

	form := url.Values{"q": {canonicalURL}, "lang": {"en"}}
	if home, err := httputil.Get(ctx, client, t.base+"/", http.Header{"User-Agent": {httputil.AndroidUA}}); err != nil {
		log.Debug("home page unavailable, submitting without token", "err", err)
	} else {
		p := newPage(string(home))
		if token := firstMatch(p, tiksaveToken...); token != "" {
			form.Set("token", token)
			if exp := tiksaveExpiry(p); exp != "" {
				form.Set("exp", exp)
			}
		}
	}

	body, err := httputil.PostForm(ctx, client, t.base+"/api/ajaxSearch", form, header)
	if err != nil {
		return nil, fail(t.Name(), "submit", err)
	}

	var resp ajaxResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fail(t.Name(), "parse", fmt.Errorf("decoding search response: %w", err))
	}
	fragment := resp.html()
	if fragment == "" {
		if resp.Mess != "" {
			return nil, fail(t.Name(), "parse", rejected("%s", resp.Mess))
		}
		return nil, fail(t.Name(), "parse", fmt.Errorf("%w: data", ErrMarkerNotFound))
	}

	rec := t.parse(fragment)
	log.Debug("parsed result", "videos", len(rec.Videos), "slides", len(rec.Slide), "audio", rec.Audio != "")
	if !rec.HasMedia() {
		return nil, fail(t.Name(), "parse", ErrNoMedia)
	}
	return rec, nil
}

func (t *TikSave) parse(fragment string) *media.Record {
	p := newPage(fragment)
	st := parseStats(p.text())
	rec := &media.Record{
		Title:     firstMatch(p, tiksaveTitle...),
		Creator:   firstMatch(p, pattern(profileLinkPattern), handle),
		Thumbnail: firstMatch(p, tiksaveThumbnail...),
		Likes:     st.likes,
		Views:     st.views,
		Comments:  st.comments,
		Shares:    st.shares,
	}
	rec.Videos, rec.Audio = classify(hrefs(p, hostOf(t.base)), tiksaveRules, t.preferredHost)
	rec.Slide = dedupe(imageSources(p, "ul.download-box img"))
	if len(rec.Slide) > 0 {
		rec.Videos = nil
	}
	return rec
}
