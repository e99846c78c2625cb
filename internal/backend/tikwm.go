package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"tiksnap/internal/httputil"
	"tiksnap/internal/linkutil"
	"tiksnap/internal/logging"
	"tiksnap/internal/media"
)

// TikWM calls the public tikwm API. It is the terminal backend and applies
// no confidence check.
type TikWM struct {
	base   string // e.g. "https://www.tikwm.com"
	client *http.Client
}

// NewTikWM creates the tikwm backend. A nil client selects defaults.
func NewTikWM(base string, c *http.Client) *TikWM {
	if c == nil {
		c = httputil.NewClient(0)
	}
	return &TikWM{base: strings.TrimRight(base, "/"), client: c}
}

func (t *TikWM) Name() string { return "tikwm" }

type tikwmEnvelope struct {
	Code int        `json:"code"`
	Msg  string     `json:"msg"`
	Data *tikwmData `json:"data"`
}

type tikwmData struct {
	Title        string   `json:"title"`
	Cover        string   `json:"cover"`
	OriginCover  string   `json:"origin_cover"`
	Play         string   `json:"play"`
	HDPlay       string   `json:"hdplay"`
	WMPlay       string   `json:"wmplay"`
	Music        string   `json:"music"`
	Images       []string `json:"images"`
	DiggCount    int64    `json:"digg_count"`
	PlayCount    int64    `json:"play_count"`
	CommentCount int64    `json:"comment_count"`
	ShareCount   int64    `json:"share_count"`
	MusicInfo    struct {
		Title    string `json:"title"`
		Play     string `json:"play"`
		URL      string `json:"url"`
		Author   string `json:"author"`
		Duration int    `json:"duration"`
	} `json:"music_info"`
	Author struct {
		UniqueID string `json:"unique_id"`
		Nickname string `json:"nickname"`
	} `json:"author"`
}

func (t *TikWM) Fetch(ctx context.Context, canonicalURL string) (*media.Record, error) {
	if !linkutil.IsValid(canonicalURL) {
		return nil, fail(t.Name(), "validate", ErrInvalidURL)
	}

	endpoint := t.base + "/api/?" + url.Values{"url": {canonicalURL}, "hd": {"1"}}.Encode()
	var env tikwmEnvelope
	if err := httputil.GetJSON(ctx, t.client, endpoint, nil, &env); err != nil {
		return nil, fail(t.Name(), "submit", err)
	}
	if env.Code != 0 || env.Data == nil {
		return nil, fail(t.Name(), "parse", rejected("code %d: %s", env.Code, env.Msg))
	}

	rec := t.record(env.Data)
	logging.FromContext(ctx).Debug("parsed result", "backend", t.Name(),
		"videos", len(rec.Videos), "slides", len(rec.Slide), "audio", rec.Audio != "")
	if !rec.HasMedia() {
		return nil, fail(t.Name(), "parse", ErrNoMedia)
	}
	return rec, nil
}

func (t *TikWM) record(d *tikwmData) *media.Record {
	rec := &media.Record{
		Title:         d.Title,
		Creator:       firstNonEmpty(d.Author.UniqueID, d.Author.Nickname),
		Thumbnail:     t.absolute(firstNonEmpty(d.Cover, d.OriginCover)),
		Audio:         t.absolute(firstNonEmpty(d.MusicInfo.Play, d.MusicInfo.URL, d.Music)),
		MusicTitle:    d.MusicInfo.Title,
		MusicAuthor:   d.MusicInfo.Author,
		MusicDuration: d.MusicInfo.Duration,
		Likes:         d.DiggCount,
		Views:         d.PlayCount,
		Comments:      d.CommentCount,
		Shares:        d.ShareCount,
	}
	for _, v := range []string{d.Play, firstNonEmpty(d.HDPlay, d.Play)} {
		if v = t.absolute(v); v != "" && (len(rec.Videos) == 0 || rec.Videos[0] != v) {
			rec.Videos = append(rec.Videos, v)
		}
	}
	for _, img := range d.Images {
		rec.Slide = append(rec.Slide, t.absolute(img))
	}
	return rec
}

// absolute makes API-relative media paths absolute against the base.
func (t *TikWM) absolute(p string) string {
	if p == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return t.base + "/" + strings.TrimLeft(p, "/")
}
