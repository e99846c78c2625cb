// Package ttdl extracts TikTok post data straight from TikTok surfaces.
// Three protocol versions exist; each reads a different surface and returns
// a slightly different Result shape, the same way the upstream pages differ.
package ttdl

import (
	"context"
	"fmt"
	"net/http"

	"tiksnap/internal/httputil"
	"tiksnap/internal/linkutil"
)

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Versions lists the supported protocol versions, most recent first.
var Versions = []string{"v3", "v2", "v1"}

// Response is what a single Download call yields.
// Transport problems are returned as errors; anything the upstream
// answered but we could not use is a Response with StatusError.
type Response struct {
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Result  *Result `json:"result,omitempty"`
}

// Result is the parsed post. Engagement counts land in Statistics (v2),
// Stats (v3) or the flat fields (v1).
type Result struct {
	ID          string      `json:"id"`
	Desc        string      `json:"desc"`
	Author      *Author     `json:"author,omitempty"`
	Statistics  *Statistics `json:"statistics,omitempty"`
	Stats       *Statistics `json:"stats,omitempty"`
	Cover       []string    `json:"cover,omitempty"`
	OriginCover []string    `json:"originCover,omitempty"`
	Video       *Video      `json:"video,omitempty"`
	Music       *Music      `json:"music,omitempty"`
	Images      []string    `json:"images,omitempty"`

	DiggCount    int64 `json:"diggCount,omitempty"`
	PlayCount    int64 `json:"playCount,omitempty"`
	CommentCount int64 `json:"commentCount,omitempty"`
	ShareCount   int64 `json:"shareCount,omitempty"`
	CollectCount int64 `json:"collectCount,omitempty"`
}

type Author struct {
	UniqueID string `json:"uniqueId"`
	Nickname string `json:"nickname"`
}

type Statistics struct {
	DiggCount    int64 `json:"diggCount"`
	LikeCount    int64 `json:"likeCount"`
	PlayCount    int64 `json:"playCount"`
	CommentCount int64 `json:"commentCount"`
	ShareCount   int64 `json:"shareCount"`
	CollectCount int64 `json:"collectCount"`
}

type Video struct {
	PlayAddr     []string `json:"playAddr,omitempty"`
	DownloadAddr []string `json:"downloadAddr,omitempty"`
	Cover        []string `json:"cover,omitempty"`
	Duration     int      `json:"duration,omitempty"`
}

type Music struct {
	Title      string   `json:"title"`
	Author     string   `json:"author,omitempty"`
	AuthorName string   `json:"authorName,omitempty"`
	PlayURL    []string `json:"playUrl,omitempty"`
	Duration   int      `json:"duration,omitempty"`
}

// Client talks to the TikTok web and mobile API hosts.
type Client struct {
	web    string // e.g. "https://www.tiktok.com"
	api    string // e.g. "https://api16-normal-c-useast1a.tiktokv.com"
	client *http.Client
}

// New creates a Client. A nil client selects httputil.NewClient defaults.
func New(web, api string, c *http.Client) *Client {
	if c == nil {
		c = httputil.NewClient(0)
	}
	return &Client{web: web, api: api, client: c}
}

// Download fetches the post at rawURL using the given protocol version.
func (c *Client) Download(ctx context.Context, rawURL, version string) (*Response, error) {
	id := linkutil.VideoID(rawURL)
	if id == "" {
		return failed("no post id in URL"), nil
	}

	switch version {
	case "v3":
		return c.webPage(ctx, rawURL, id)
	case "v2":
		return c.feed(ctx, id)
	case "v1":
		return c.embed(ctx, id)
	default:
		return nil, fmt.Errorf("unknown version %q", version)
	}
}

// Messages for posts TikTok reports as gone.
const (
	MsgDeleted = "video not found or deleted"
	MsgPrivate = "video is private"
)

func failed(format string, args ...any) *Response {
	return &Response{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

func succeeded(r *Result) *Response {
	return &Response{Status: StatusSuccess, Result: r}
}

// nonEmpty wraps single URLs in a slice, dropping blanks.
func nonEmpty(urls ...string) []string {
	var out []string
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}
