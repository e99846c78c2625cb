package ttdl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"tiksnap/internal/httputil"
)

type urlList struct {
	URLList []string `json:"url_list"`
}

type feedResponse struct {
	StatusCode int         `json:"status_code"`
	StatusMsg  string      `json:"status_msg"`
	AwemeList  []awemeItem `json:"aweme_list"`
}

type awemeItem struct {
	AwemeID string `json:"aweme_id"`
	Desc    string `json:"desc"`
	Author  struct {
		UniqueID string `json:"unique_id"`
		Nickname string `json:"nickname"`
	} `json:"author"`
	Statistics struct {
		DiggCount    int64 `json:"digg_count"`
		PlayCount    int64 `json:"play_count"`
		CommentCount int64 `json:"comment_count"`
		ShareCount   int64 `json:"share_count"`
		CollectCount int64 `json:"collect_count"`
	} `json:"statistics"`
	Video struct {
		PlayAddr     urlList `json:"play_addr"`
		DownloadAddr urlList `json:"download_addr"`
		Cover        urlList `json:"cover"`
		OriginCover  urlList `json:"origin_cover"`
		Duration     int     `json:"duration"` // milliseconds
	} `json:"video"`
	Music struct {
		Title    string  `json:"title"`
		Author   string  `json:"author"`
		PlayURL  urlList `json:"play_url"`
		Duration int     `json:"duration"`
	} `json:"music"`
	ImagePostInfo *struct {
		Images []struct {
			DisplayImage urlList `json:"display_image"`
		} `json:"images"`
	} `json:"image_post_info"`
}

// feed asks the mobile feed endpoint for a single aweme.
func (c *Client) feed(ctx context.Context, id string) (*Response, error) {
	q := url.Values{
		"aweme_id":        {id},
		"aid":             {"1180"},
		"version_code":    {"300904"},
		"device_platform": {"android"},
	}
	endpoint := strings.TrimRight(c.api, "/") + "/aweme/v1/feed/?" + q.Encode()

	body, err := httputil.Get(ctx, c.client, endpoint, http.Header{
		"User-Agent": {"com.zhiliaoapp.musically/300904 (Linux; U; Android 10; en_US; Pixel 4; Build/QQ3A.200805.001)"},
		"Accept":     {"application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	return parseFeed(body, id), nil
}

func parseFeed(body []byte, id string) *Response {
	var feed feedResponse
	if err := json.Unmarshal(body, &feed); err != nil {
		return failed("parsing feed: %v", err)
	}
	if feed.StatusCode != 0 {
		return failed("feed status %d: %s", feed.StatusCode, feed.StatusMsg)
	}
	// The feed answers with unrelated posts when the id is gone.
	if len(feed.AwemeList) == 0 || feed.AwemeList[0].AwemeID != id {
		return failed(MsgDeleted)
	}

	item := feed.AwemeList[0]
	r := &Result{
		ID:     item.AwemeID,
		Desc:   item.Desc,
		Author: &Author{UniqueID: item.Author.UniqueID, Nickname: item.Author.Nickname},
		Statistics: &Statistics{
			DiggCount:    item.Statistics.DiggCount,
			PlayCount:    item.Statistics.PlayCount,
			CommentCount: item.Statistics.CommentCount,
			ShareCount:   item.Statistics.ShareCount,
			CollectCount: item.Statistics.CollectCount,
		},
		Cover:       item.Video.Cover.URLList,
		OriginCover: item.Video.OriginCover.URLList,
		Video: &Video{
			PlayAddr:     item.Video.PlayAddr.URLList,
			DownloadAddr: item.Video.DownloadAddr.URLList,
			Duration:     item.Video.Duration / 1000,
		},
		Music: &Music{
			Title:    item.Music.Title,
			Author:   item.Music.Author,
			PlayURL:  item.Music.PlayURL.URLList,
			Duration: item.Music.Duration,
		},
	}
	if item.ImagePostInfo != nil {
		for _, img := range item.ImagePostInfo.Images {
			if len(img.DisplayImage.URLList) > 0 {
				r.Images = append(r.Images, img.DisplayImage.URLList[0])
			}
		}
	}
	return succeeded(r)
}
