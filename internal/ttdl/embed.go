package ttdl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tiksnap/internal/httputil"
)

type frontityState struct {
	Source struct {
		Data map[string]struct {
			VideoData *embedVideo `json:"videoData"`
		} `json:"data"`
	} `json:"source"`
}

type embedVideo struct {
	ItemInfos struct {
		ID     string   `json:"id"`
		Text   string   `json:"text"`
		Covers []string `json:"covers"`
		Video  struct {
			URLs []string `json:"urls"`
		} `json:"video"`
		DiggCount    int64 `json:"diggCount"`
		PlayCount    int64 `json:"playCount"`
		ShareCount   int64 `json:"shareCount"`
		CommentCount int64 `json:"commentCount"`
	} `json:"itemInfos"`
	AuthorInfos struct {
		UniqueID string `json:"uniqueId"`
		NickName string `json:"nickName"`
	} `json:"authorInfos"`
	MusicInfos struct {
		MusicName  string   `json:"musicName"`
		AuthorName string   `json:"authorName"`
		PlayURL    []string `json:"playUrl"`
	} `json:"musicInfos"`
}

// embed reads the state blob of the legacy embed player.
func (c *Client) embed(ctx context.Context, id string) (*Response, error) {
	endpoint := strings.TrimRight(c.web, "/") + "/embed/v2/" + id
	body, err := httputil.Get(ctx, c.client, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching embed page: %w", err)
	}
	return parseEmbed(string(body), id), nil
}

func parseEmbed(html, id string) *Response {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return failed("parsing embed page: %v", err)
	}

	blob := strings.TrimSpace(doc.Find("script#__FRONTITY_CONNECT_STATE__").First().Text())
	if blob == "" {
		return failed("embed state missing")
	}

	var state frontityState
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return failed("parsing embed state: %v", err)
	}

	v := state.Source.Data["/embed/v2/"+id].VideoData
	if v == nil {
		for _, entry := range state.Source.Data {
			if entry.VideoData != nil && entry.VideoData.ItemInfos.ID == id {
				v = entry.VideoData
				break
			}
		}
	}
	if v == nil {
		return failed(MsgDeleted)
	}

	return succeeded(&Result{
		ID:     v.ItemInfos.ID,
		Desc:   v.ItemInfos.Text,
		Author: &Author{UniqueID: v.AuthorInfos.UniqueID, Nickname: v.AuthorInfos.NickName},
		Cover:  v.ItemInfos.Covers,
		Video:  &Video{PlayAddr: v.ItemInfos.Video.URLs},
		Music: &Music{
			Title:      v.MusicInfos.MusicName,
			AuthorName: v.MusicInfos.AuthorName,
			PlayURL:    v.MusicInfos.PlayURL,
		},
		DiggCount:    v.ItemInfos.DiggCount,
		PlayCount:    v.ItemInfos.PlayCount,
		CommentCount: v.ItemInfos.CommentCount,
		ShareCount:   v.ItemInfos.ShareCount,
	})
}
