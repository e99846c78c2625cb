package ttdl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const webPageHTML = `<!DOCTYPE html><html><head></head><body>
<script id="__UNIVERSAL_DATA_FOR_REHYDRATION__" type="application/json">
{"__DEFAULT_SCOPE__":{"webapp.video-detail":{"statusCode":0,"statusMsg":"","itemInfo":{"itemStruct":{
"id":"7234567890123456789","desc":"dance #fyp",
"author":{"uniqueId":"alice","nickname":"Alice"},
"stats":{"diggCount":1200,"playCount":56000,"commentCount":33,"shareCount":4,"collectCount":9},
"video":{"playAddr":"https://v16.tiktokcdn.com/play.mp4","downloadAddr":"https://v16.tiktokcdn.com/dl.mp4","cover":"https://p16.tiktokcdn.com/cover.jpeg","duration":15},
"music":{"title":"original sound","authorName":"alice","playUrl":"https://sf16.tiktokcdn.com/music.mp3","duration":15}
}}}}}
</script></body></html>`

const embedHTML = `<html><body>
<script id="__FRONTITY_CONNECT_STATE__" type="application/json">
{"source":{"data":{"/embed/v2/42":{"videoData":{
"itemInfos":{"id":"42","text":"hello","covers":["https://p16.tiktokcdn.com/c.jpg"],"video":{"urls":["https://v16.tiktokcdn.com/e.mp4"]},
"diggCount":10,"playCount":2500,"shareCount":1,"commentCount":2},
"authorInfos":{"uniqueId":"bob","nickName":"Bob"},
"musicInfos":{"musicName":"song","authorName":"band","playUrl":["https://sf16.tiktokcdn.com/s.mp3"]}}}}}}
</script></body></html>`

const feedJSON = `{"status_code":0,"aweme_list":[{"aweme_id":"42","desc":"photo dump",
"author":{"unique_id":"carol","nickname":"Carol"},
"statistics":{"digg_count":5,"play_count":9000,"comment_count":1,"share_count":0,"collect_count":2},
"video":{"play_addr":{"url_list":["https://v19.tiktokcdn.com/p.mp4"]},"download_addr":{"url_list":[]},"cover":{"url_list":["https://p19.tiktokcdn.com/c.jpeg"]},"origin_cover":{"url_list":[]},"duration":12000},
"music":{"title":"beat","author":"dj","play_url":{"url_list":["https://sf19.tiktokcdn.com/m.mp3"]},"duration":30},
"image_post_info":{"images":[{"display_image":{"url_list":["https://p19.tiktokcdn.com/1.jpeg","https://alt/1.jpeg"]}},{"display_image":{"url_list":["https://p19.tiktokcdn.com/2.jpeg"]}}]}}]}`

func TestParseWebPage(t *testing.T) {
	resp := parseWebPage(webPageHTML, "7234567890123456789")
	if resp.Status != StatusSuccess {
		t.Fatalf("status = %q (%s)", resp.Status, resp.Message)
	}

	want := &Result{
		ID:     "7234567890123456789",
		Desc:   "dance #fyp",
		Author: &Author{UniqueID: "alice", Nickname: "Alice"},
		Stats:  &Statistics{DiggCount: 1200, PlayCount: 56000, CommentCount: 33, ShareCount: 4, CollectCount: 9},
		Video: &Video{
			PlayAddr:     []string{"https://v16.tiktokcdn.com/play.mp4"},
			DownloadAddr: []string{"https://v16.tiktokcdn.com/dl.mp4"},
			Cover:        []string{"https://p16.tiktokcdn.com/cover.jpeg"},
			Duration:     15,
		},
		Music: &Music{
			Title:      "original sound",
			AuthorName: "alice",
			PlayURL:    []string{"https://sf16.tiktokcdn.com/music.mp3"},
			Duration:   15,
		},
	}
	if diff := cmp.Diff(want, resp.Result); diff != "" {
		t.Errorf("parseWebPage() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseWebPageStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"private", "10222", "video is private"},
		{"missing", "10204", "video not found or deleted"},
		{"deleted", "10216", "video not found or deleted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<script id="__UNIVERSAL_DATA_FOR_REHYDRATION__">{"__DEFAULT_SCOPE__":{"webapp.video-detail":{"statusCode":` + tt.code + `}}}</script>`
			resp := parseWebPage(html, "1")
			if resp.Status != StatusError || resp.Message != tt.want {
				t.Errorf("got %+v, want error %q", resp, tt.want)
			}
		})
	}
}

func TestParseWebPageMissingBlob(t *testing.T) {
	resp := parseWebPage("<html><body>captcha</body></html>", "1")
	if resp.Status != StatusError {
		t.Fatalf("status = %q, want error", resp.Status)
	}
}

func TestParseEmbed(t *testing.T) {
	resp := parseEmbed(embedHTML, "42")
	if resp.Status != StatusSuccess {
		t.Fatalf("status = %q (%s)", resp.Status, resp.Message)
	}
	r := resp.Result
	if r.Statistics != nil || r.Stats != nil {
		t.Error("embed results carry flat counts only")
	}
	if r.PlayCount != 2500 || r.DiggCount != 10 || r.CommentCount != 2 || r.ShareCount != 1 {
		t.Errorf("flat counts = %+v", r)
	}
	if r.Author.UniqueID != "bob" || r.Music.Title != "song" {
		t.Errorf("author/music = %+v %+v", r.Author, r.Music)
	}
	if diff := cmp.Diff([]string{"https://v16.tiktokcdn.com/e.mp4"}, r.Video.PlayAddr); diff != "" {
		t.Errorf("play addr (-want +got):\n%s", diff)
	}
}

func TestParseEmbedUnknownID(t *testing.T) {
	if resp := parseEmbed(embedHTML, "43"); resp.Status != StatusError {
		t.Errorf("status = %q, want error", resp.Status)
	}
}

func TestParseFeed(t *testing.T) {
	resp := parseFeed([]byte(feedJSON), "42")
	if resp.Status != StatusSuccess {
		t.Fatalf("status = %q (%s)", resp.Status, resp.Message)
	}
	r := resp.Result
	if r.Statistics == nil || r.Statistics.PlayCount != 9000 {
		t.Fatalf("statistics = %+v", r.Statistics)
	}
	if r.Video.Duration != 12 {
		t.Errorf("duration = %d, want 12 seconds", r.Video.Duration)
	}
	want := []string{"https://p19.tiktokcdn.com/1.jpeg", "https://p19.tiktokcdn.com/2.jpeg"}
	if diff := cmp.Diff(want, r.Images); diff != "" {
		t.Errorf("images (-want +got):\n%s", diff)
	}
}

func TestParseFeedWrongItem(t *testing.T) {
	resp := parseFeed([]byte(feedJSON), "99")
	if resp.Status != StatusError || !strings.Contains(resp.Message, "deleted") {
		t.Errorf("got %+v, want not-found error", resp)
	}
}

func TestDownloadDispatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/@bob/video/42", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.ReplaceAll(webPageHTML, "7234567890123456789", "42")))
	})
	mux.HandleFunc("/embed/v2/42", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(embedHTML))
	})
	mux.HandleFunc("/aweme/v1/feed/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("aweme_id") != "42" {
			t.Errorf("aweme_id = %q", r.URL.Query().Get("aweme_id"))
		}
		w.Write([]byte(feedJSON))
	})
	srv := httptest.NewTLSServer(mux)
	defer srv.Close()

	c := New(srv.URL, srv.URL, srv.Client())
	for _, v := range Versions {
		t.Run(v, func(t *testing.T) {
			resp, err := c.Download(context.Background(), "https://www.tiktok.com/@bob/video/42", v)
			if err != nil {
				t.Fatalf("Download(%s) error: %v", v, err)
			}
			if resp.Status != StatusSuccess || resp.Result.ID != "42" {
				t.Errorf("Download(%s) = %+v", v, resp)
			}
		})
	}
}

func TestDownloadWithoutID(t *testing.T) {
	c := New("https://www.tiktok.com", "https://api.example", nil)
	resp, err := c.Download(context.Background(), "https://vm.tiktok.com/ZMabc", "v3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != StatusError {
		t.Errorf("status = %q, want error", resp.Status)
	}
}

func TestDownloadUnknownVersion(t *testing.T) {
	c := New("https://www.tiktok.com", "https://api.example", nil)
	if _, err := c.Download(context.Background(), "https://www.tiktok.com/@a/video/1", "v9"); err == nil {
		t.Error("expected error for unknown version")
	}
}
