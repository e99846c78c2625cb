// Package media defines shared types for the tiksnap application.
package media

// Quality is the requested video variant.
type Quality string

const (
	SD Quality = "sd"
	HD Quality = "hd"
)

// ParseQuality maps a user-supplied quality string to a Quality.
// Anything other than "hd" means standard quality.
func ParseQuality(s string) Quality {
	if Quality(s) == HD {
		return HD
	}
	return SD
}

// ContentType distinguishes video posts from photo slideshows.
type ContentType string

const (
	Video ContentType = "video"
	Image ContentType = "image"
)

// Record is the backend-agnostic result every backend produces.
type Record struct {
	Title         string   // Post description, may be empty
	Creator       string   // Handle without the leading @
	Thumbnail     string   // Cover image URL
	Videos        []string // 0-2 candidates, standard quality first
	Audio         string   // Soundtrack URL
	MusicTitle    string
	MusicAuthor   string
	MusicDuration int      // Seconds
	Slide         []string // Image URLs; non-empty means a photo post
	Likes         int64
	Views         int64
	Comments      int64
	Shares        int64
}

// HasMedia reports whether the record carries anything downloadable.
func (r *Record) HasMedia() bool {
	return r != nil && (len(r.Videos) > 0 || len(r.Slide) > 0 || r.Audio != "")
}

// IsPhoto reports whether the record is an image slideshow.
func (r *Record) IsPhoto() bool {
	return r != nil && len(r.Slide) > 0
}

// Response is the public contract returned to callers.
type Response struct {
	Type          ContentType `json:"type"`
	Description   string      `json:"description"`
	Creator       string      `json:"creator"`
	Thumbnail     string      `json:"thumbnail"`
	Likes         int64       `json:"likes"`
	Views         int64       `json:"views"`
	Comments      int64       `json:"comments"`
	Shares        int64       `json:"shares"`
	MusicTitle    string      `json:"musicTitle"`
	MusicAuthor   string      `json:"musicAuthor"`
	MusicDuration int         `json:"musicDuration"`

	Images  []string `json:"images,omitempty"`
	Videos  []string `json:"videos,omitempty"`
	Video   string   `json:"video,omitempty"`
	VideoHD string   `json:"videoHd,omitempty"`
	Music   string   `json:"music,omitempty"`
}

// HistoryEntry is one row of the local resolution log.
type HistoryEntry struct {
	ID        string
	Source    string // Raw input as supplied by the user
	Canonical string // Cleaned (and possibly redirect-resolved) URL
	Backend   string // Backend that produced the result, empty on failure
	Type      ContentType
	Status    int // HTTP-style status of the outcome
	CreatedAt int64
}
