package ttdl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tiksnap/internal/httputil"
)

// TikTok item status codes seen in webapp.video-detail.
const (
	statusNotFound = 10204
	statusDeleted  = 10216
	statusPrivate  = 10222
)

type universalData struct {
	DefaultScope struct {
		VideoDetail *struct {
			StatusCode int    `json:"statusCode"`
			StatusMsg  string `json:"statusMsg"`
			ItemInfo   struct {
				ItemStruct *webItem `json:"itemStruct"`
			} `json:"itemInfo"`
		} `json:"webapp.video-detail"`
	} `json:"__DEFAULT_SCOPE__"`
}

type webItem struct {
	ID     string `json:"id"`
	Desc   string `json:"desc"`
	Author struct {
		UniqueID string `json:"uniqueId"`
		Nickname string `json:"nickname"`
	} `json:"author"`
	Stats struct {
		DiggCount    int64 `json:"diggCount"`
		PlayCount    int64 `json:"playCount"`
		CommentCount int64 `json:"commentCount"`
		ShareCount   int64 `json:"shareCount"`
		CollectCount int64 `json:"collectCount"`
	} `json:"stats"`
	Video struct {
		PlayAddr     string `json:"playAddr"`
		DownloadAddr string `json:"downloadAddr"`
		Cover        string `json:"cover"`
		OriginCover  string `json:"originCover"`
		Duration     int    `json:"duration"`
	} `json:"video"`
	Music struct {
		Title      string `json:"title"`
		AuthorName string `json:"authorName"`
		PlayURL    string `json:"playUrl"`
		Duration   int    `json:"duration"`
	} `json:"music"`
	ImagePost *struct {
		Images []struct {
			ImageURL struct {
				URLList []string `json:"urlList"`
			} `json:"imageURL"`
		} `json:"images"`
	} `json:"imagePost"`
}

// webPage reads the rehydration blob embedded in the public post page.
func (c *Client) webPage(ctx context.Context, rawURL, id string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}

	body, err := httputil.Get(ctx, httputil.WithSession(c.client), strings.TrimRight(c.web, "/")+u.Path, http.Header{
		"Referer": {strings.TrimRight(c.web, "/") + "/"},
	})
	if err != nil {
		return nil, fmt.Errorf("fetching post page: %w", err)
	}
	return parseWebPage(string(body), id), nil
}

func parseWebPage(html, id string) *Response {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return failed("parsing post page: %v", err)
	}

	blob := strings.TrimSpace(doc.Find("script#__UNIVERSAL_DATA_FOR_REHYDRATION__").First().Text())
	if blob == "" {
		return failed("rehydration data missing")
	}

	var data universalData
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		return failed("parsing rehydration data: %v", err)
	}

	detail := data.DefaultScope.VideoDetail
	if detail == nil {
		return failed("video detail missing")
	}
	switch detail.StatusCode {
	case 0:
	case statusNotFound, statusDeleted:
		return failed(MsgDeleted)
	case statusPrivate:
		return failed(MsgPrivate)
	default:
		return failed("video detail status %d: %s", detail.StatusCode, detail.StatusMsg)
	}

	item := detail.ItemInfo.ItemStruct
	if item == nil || (item.ID != "" && item.ID != id) {
		return failed(MsgDeleted)
	}

	r := &Result{
		ID:     item.ID,
		Desc:   item.Desc,
		Author: &Author{UniqueID: item.Author.UniqueID, Nickname: item.Author.Nickname},
		Stats: &Statistics{
			DiggCount:    item.Stats.DiggCount,
			PlayCount:    item.Stats.PlayCount,
			CommentCount: item.Stats.CommentCount,
			ShareCount:   item.Stats.ShareCount,
			CollectCount: item.Stats.CollectCount,
		},
		OriginCover: nonEmpty(item.Video.OriginCover),
		Video: &Video{
			PlayAddr:     nonEmpty(item.Video.PlayAddr),
			DownloadAddr: nonEmpty(item.Video.DownloadAddr),
			Cover:        nonEmpty(item.Video.Cover),
			Duration:     item.Video.Duration,
		},
		Music: &Music{
			Title:      item.Music.Title,
			AuthorName: item.Music.AuthorName,
			PlayURL:    nonEmpty(item.Music.PlayURL),
			Duration:   item.Music.Duration,
		},
	}
	if item.ImagePost != nil {
		for _, img := range item.ImagePost.Images {
			if len(img.ImageURL.URLList) > 0 {
				r.Images = append(r.Images, img.ImageURL.URLList[0])
			}
		}
	}
	return succeeded(r)
}
