package resolver

import (
	"strings"

	"tiksnap/internal/media"
)

// HDPicker chooses the high-quality candidate among video URLs.
type HDPicker func(videos []string) string

var hdMarkers = []string{"hd", "HD", "snapcdn"}

// PickHD returns the first candidate carrying an HD marker, else the second
// candidate, else the first.
func PickHD(videos []string) string {
	for _, v := range videos {
		for _, m := range hdMarkers {
			if strings.Contains(v, m) {
				return v
			}
		}
	}
	switch {
	case len(videos) > 1:
		return videos[1]
	case len(videos) == 1:
		return videos[0]
	}
	return ""
}

const defaultDescription = "No description"

// Normalize maps a backend record onto the public response.
func Normalize(rec *media.Record, quality media.Quality, pick HDPicker) media.Response {
	if pick == nil {
		pick = PickHD
	}
	resp := media.Response{
		Type:          media.Video,
		Description:   rec.Title,
		Creator:       rec.Creator,
		Thumbnail:     rec.Thumbnail,
		Likes:         rec.Likes,
		Views:         rec.Views,
		Comments:      rec.Comments,
		Shares:        rec.Shares,
		MusicTitle:    rec.MusicTitle,
		MusicAuthor:   rec.MusicAuthor,
		MusicDuration: rec.MusicDuration,
		Music:         rec.Audio,
	}
	if resp.Description == "" {
		resp.Description = defaultDescription
	}

	if rec.IsPhoto() {
		resp.Type = media.Image
		resp.Images = append([]string(nil), rec.Slide...)
		return resp
	}

	if len(rec.Videos) > 0 {
		resp.Videos = append([]string(nil), rec.Videos...)
		resp.VideoHD = pick(rec.Videos)
		resp.Video = rec.Videos[0]
		if quality == media.HD && resp.VideoHD != "" {
			resp.Video = resp.VideoHD
		}
	}
	return resp
}
