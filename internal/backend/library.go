package backend

import (
	"context"
	"errors"
	"fmt"

	"tiksnap/internal/linkutil"
	"tiksnap/internal/logging"
	"tiksnap/internal/media"
	"tiksnap/internal/ttdl"
)

// DefaultMinViews is the view count below which a library result is
// treated as a garbage parse.
const DefaultMinViews = 1000

// Downloader is the extraction library the Library backend delegates to.
type Downloader interface {
	Download(ctx context.Context, rawURL, version string) (*ttdl.Response, error)
}

var _ Downloader = (*ttdl.Client)(nil)

// Library adapts an extraction library, trying each protocol version in
// order until one yields a plausible result.
type Library struct {
	dl       Downloader
	versions []string
	minViews int64
}

// NewLibrary creates the library backend. Empty versions selects
// ttdl.Versions; a negative minViews selects DefaultMinViews.
func NewLibrary(dl Downloader, versions []string, minViews int64) *Library {
	if len(versions) == 0 {
		versions = ttdl.Versions
	}
	if minViews < 0 {
		minViews = DefaultMinViews
	}
	return &Library{dl: dl, versions: versions, minViews: minViews}
}

func (l *Library) Name() string { return "library" }

func (l *Library) Fetch(ctx context.Context, canonicalURL string) (*media.Record, error) {
	if !linkutil.IsValid(canonicalURL) {
		return nil, fail(l.Name(), "validate", ErrInvalidURL)
	}
	log := logging.FromContext(ctx).With("backend", l.Name())

	var lastErr error
	for _, v := range l.versions {
		resp, err := l.dl.Download(ctx, canonicalURL, v)
		switch {
		case err != nil:
			lastErr = err
		case resp == nil || resp.Status != ttdl.StatusSuccess || resp.Result == nil:
			lastErr = libraryFailure(resp)
		default:
			rec := fromLibrary(resp.Result)
			switch {
			case rec.Views < l.minViews:
				lastErr = fmt.Errorf("%w: %d views", ErrLowConfidence, rec.Views)
			case !rec.HasMedia():
				lastErr = ErrNoMedia
			default:
				log.Debug("version succeeded", "version", v)
				return rec, nil
			}
		}
		log.Debug("version failed", "version", v, "err", lastErr)
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no versions configured")
	}
	return nil, fail(l.Name(), "download", lastErr)
}

func libraryFailure(resp *ttdl.Response) error {
	switch {
	case resp == nil || resp.Message == "":
		return rejected("empty result")
	case resp.Message == ttdl.MsgDeleted || resp.Message == ttdl.MsgPrivate:
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Message)
	default:
		return rejected("%s", resp.Message)
	}
}

// fromLibrary maps any version's result shape into a Record, taking each
// field from the first path that carries it.
func fromLibrary(r *ttdl.Result) *media.Record {
	rec := &media.Record{
		Title: r.Desc,
		Slide: r.Images,
	}

	if r.Author != nil {
		rec.Creator = firstNonEmpty(r.Author.UniqueID, r.Author.Nickname)
	}

	var statistics, stats ttdl.Statistics
	if r.Statistics != nil {
		statistics = *r.Statistics
	}
	if r.Stats != nil {
		stats = *r.Stats
	}
	rec.Likes = firstNonZero(statistics.DiggCount, stats.DiggCount, r.DiggCount, statistics.LikeCount, stats.LikeCount)
	rec.Views = firstNonZero(statistics.PlayCount, stats.PlayCount, r.PlayCount)
	rec.Comments = firstNonZero(statistics.CommentCount, stats.CommentCount, r.CommentCount)
	rec.Shares = firstNonZero(statistics.ShareCount, stats.ShareCount, r.ShareCount)

	var videoCover []string
	if v := r.Video; v != nil {
		videoCover = v.Cover
		for i := 0; i < maxVideos; i++ {
			if u := firstNonEmpty(at(v.DownloadAddr, i), at(v.PlayAddr, i)); u != "" {
				rec.Videos = append(rec.Videos, u)
			}
		}
	}
	rec.Thumbnail = firstNonEmpty(at(r.Cover, 0), at(r.OriginCover, 0), at(videoCover, 0))

	if m := r.Music; m != nil {
		rec.Audio = at(m.PlayURL, 0)
		rec.MusicTitle = m.Title
		rec.MusicAuthor = firstNonEmpty(m.AuthorName, m.Author)
		rec.MusicDuration = m.Duration
	}
	return rec
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(vals ...int64) int64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
