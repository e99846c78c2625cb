// Package player launches an external media player on resolved media.
// All player invocations use exec.CommandContext with explicit argument
// slices; no shell ever sees a URL taken from an upstream response.
package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"tiksnap/internal/httputil"
	"tiksnap/internal/media"
)

// imageSeconds is how long each slide of a photo post stays on screen.
const imageSeconds = 3

// Item is what gets played: either a video or a slideshow with its
// soundtrack.
type Item struct {
	Title     string
	Video     string
	Images    []string
	Audio     string
	Referer   string
	UserAgent string
	Loop      bool
}

// Player is the interface for media player implementations.
type Player interface {
	Play(ctx context.Context, it Item) error

	// Name returns the player name.
	Name() string

	// Available checks if the player binary exists in PATH.
	Available() bool
}

// New creates a player by name. Unknown names fall back to mpv.
func New(name string) Player {
	switch name {
	case "vlc":
		return &VLC{}
	case "iina", "celluloid":
		return &MPV{bin: name}
	default:
		return &MPV{bin: "mpv"}
	}
}

// FromResponse builds a playable item from a resolved post.
func FromResponse(resp media.Response, title string, loop bool) (Item, error) {
	it := Item{
		Title:     title,
		Audio:     resp.Music,
		Referer:   "https://www.tiktok.com/",
		UserAgent: httputil.DesktopUA,
		Loop:      loop,
	}
	if it.Title == "" {
		it.Title = resp.Description
	}
	if resp.Type == media.Image {
		it.Images = resp.Images
	} else {
		it.Video = resp.Video
	}
	if it.Video == "" && len(it.Images) == 0 {
		return Item{}, errors.New("nothing to play")
	}
	return it, nil
}

func available(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}

// run starts bin attached to the terminal. Players exit non-zero when the
// user closes the window, so exit codes are not errors.
func run(ctx context.Context, bin string, args []string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return fmt.Errorf("running %s: %w", bin, err)
	}
	return nil
}
