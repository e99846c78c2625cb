// Package relay builds second-stage download links that hand the actual
// byte serving to a separate download relay.
package relay

import (
	"net/url"
	"strconv"

	"tiksnap/internal/httputil"
	"tiksnap/internal/media"
)

// Asset is one downloadable item of a response.
type Asset struct {
	Label    string // "video", "video-hd", "music", "image-1", ...
	Source   string // Upstream media URL
	Ext      string // Output extension without the dot
	Filename string // Sanitized filename including extension
	Link     string // Relay URL, empty when no relay is configured
}

// Link returns the relay URL for source. The relay receives the source URL,
// the desired extension and a filename hint as query parameters.
func Link(base, source, ext, title string) string {
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("url", source)
	q.Set("type", ext)
	q.Set("title", httputil.SanitizeFilename(title))
	u.RawQuery = q.Encode()
	return u.String()
}

// Assets lists every downloadable item of resp. title names the files;
// an empty title falls back to the creator, then to "tiktok".
func Assets(resp media.Response, base, title string) []Asset {
	if title == "" {
		title = resp.Creator
	}
	if title == "" {
		title = "tiktok"
	}

	var out []Asset
	add := func(label, source, ext, name string) {
		out = append(out, Asset{
			Label:    label,
			Source:   source,
			Ext:      ext,
			Filename: httputil.SanitizeFilename(name) + "." + ext,
			Link:     Link(base, source, ext, name),
		})
	}

	if resp.Type == media.Image {
		for i, img := range resp.Images {
			n := strconv.Itoa(i + 1)
			add("image-"+n, img, "jpeg", title+"_"+n)
		}
	} else {
		if resp.Video != "" {
			add("video", resp.Video, "mp4", title)
		}
		if resp.VideoHD != "" && resp.VideoHD != resp.Video {
			add("video-hd", resp.VideoHD, "mp4", title+"_hd")
		}
	}
	if resp.Music != "" {
		add("music", resp.Music, "mp3", title+"_music")
	}
	return out
}
