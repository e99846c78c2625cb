package player

import (
	"context"
	"fmt"
)

// VLC implements the Player interface for VLC media player. A slideshow
// plays without its soundtrack since VLC cannot attach one to images.
type VLC struct{}

func (v *VLC) Name() string { return "vlc" }

func (v *VLC) Available() bool { return available("vlc") }

func (v *VLC) Play(ctx context.Context, it Item) error {
	return run(ctx, "vlc", v.args(it))
}

func (v *VLC) args(it Item) []string {
	var args []string
	if it.Video != "" {
		args = append(args, it.Video)
	} else {
		args = append(args, it.Images...)
		args = append(args, fmt.Sprintf("--image-duration=%d", imageSeconds))
	}

	args = append(args, "--meta-title", it.Title)
	if it.Referer != "" {
		args = append(args, "--http-referrer="+it.Referer)
	}
	if it.UserAgent != "" {
		args = append(args, "--http-user-agent="+it.UserAgent)
	}
	if it.Loop {
		args = append(args, "--loop")
	} else {
		args = append(args, "--play-and-exit")
	}
	return args
}
