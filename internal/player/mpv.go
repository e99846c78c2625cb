package player

import (
	"context"
	"fmt"
)

// MPV implements Player for mpv and the front ends that accept its
// flags (iina, celluloid).
type MPV struct {
	bin string
}

func (m *MPV) Name() string { return m.bin }

func (m *MPV) Available() bool { return available(m.bin) }

func (m *MPV) Play(ctx context.Context, it Item) error {
	return run(ctx, m.bin, m.args(it))
}

func (m *MPV) args(it Item) []string {
	var args []string
	if it.Video != "" {
		args = append(args, it.Video)
	} else {
		args = append(args, it.Images...)
		args = append(args, fmt.Sprintf("--image-display-duration=%d", imageSeconds))
		if it.Audio != "" {
			args = append(args, "--audio-file="+it.Audio)
		}
	}

	args = append(args, "--force-media-title="+it.Title)
	if it.Referer != "" {
		args = append(args, "--referrer="+it.Referer)
	}
	if it.UserAgent != "" {
		args = append(args, "--user-agent="+it.UserAgent)
	}
	if it.Loop {
		if it.Video != "" {
			args = append(args, "--loop-file=inf")
		} else {
			args = append(args, "--loop-playlist=inf")
		}
	}
	if m.bin == "mpv" {
		args = append(args, "--really-quiet")
	}
	return args
}
