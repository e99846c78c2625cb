package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tiksnap/internal/download"
	"tiksnap/internal/logging"
	"tiksnap/internal/media"
	"tiksnap/internal/player"
	"tiksnap/internal/relay"
	"tiksnap/internal/resolver"
	"tiksnap/internal/ui"
)

// configDirMarker is the --download value used when no directory is given.
const configDirMarker = "@config"

var (
	flagJSON     bool
	flagDownload string
	flagAudio    bool
	flagTitle    string
	flagPlay     bool
	flagPlayer   string
	flagLoop     bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <url or text>",
	Short: "Resolve a share link and print its media",
	Example: `  tiksnap resolve https://vm.tiktok.com/ZMabc123/
  tiksnap resolve "Check this out https://www.tiktok.com/@alice/video/123 so cool!"
  tiksnap resolve -q hd -d ~/Videos https://www.tiktok.com/@alice/video/123`,
	Args: cobra.MinimumNArgs(1),
	RunE: resolveRun,
}

func init() {
	addResolveFlags(resolveCmd)
}

func addResolveFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&flagJSON, "json", "j", false, "Print the response as JSON")
	cmd.Flags().StringVarP(&flagDownload, "download", "d", "", "Download the media to a directory (default from config)")
	cmd.Flags().Lookup("download").NoOptDefVal = configDirMarker
	cmd.Flags().BoolVar(&flagAudio, "audio", false, "With --download, save only the soundtrack")
	cmd.Flags().StringVarP(&flagTitle, "title", "t", "", "Filename for downloads and relay links")
	cmd.Flags().BoolVarP(&flagPlay, "play", "p", false, "Open the media in a player")
	cmd.Flags().StringVar(&flagPlayer, "player", "", "Player for --play: mpv | vlc | iina | celluloid")
	cmd.Flags().BoolVar(&flagLoop, "loop", false, "With --play, loop until the player is closed")
}

func resolveRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if cfg.Debug {
		ctx = logging.WithLogger(ctx, logger)
	} else {
		ctx = logging.WithLogger(ctx, logging.Discard())
	}

	r, client, err := newResolver(cfg)
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	req := resolver.Request{Text: text, Quality: quality()}

	var res *resolver.Result
	resolve := func(ctx context.Context) error {
		var err error
		res, err = r.Resolve(ctx, req)
		return err
	}
	if flagJSON {
		err = resolve(ctx)
	} else {
		err = ui.WithSpinner(ctx, "Resolving "+text, resolve)
	}
	recordOutcome(ctx, text, res, err)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Response); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
	} else {
		fmt.Fprintln(out, ui.Summary(res.Response, res.Backend, relay.Assets(res.Response, cfg.RelayBase, flagTitle)))
	}

	if flagPlay {
		if err := play(ctx, res.Response); err != nil {
			return err
		}
	}

	if flagDownload == "" {
		return nil
	}
	dir := flagDownload
	if dir == configDirMarker {
		if dir, err = cfg.ExpandDownloadDir(); err != nil {
			return err
		}
	}

	assets := downloadable(res.Response, flagTitle, flagAudio)
	if len(assets) == 0 {
		return fmt.Errorf("nothing to download")
	}
	var paths []string
	err = ui.WithSpinner(ctx, fmt.Sprintf("Downloading %d file(s)", len(assets)), func(ctx context.Context) error {
		var err error
		paths, err = download.SaveAll(ctx, client, assets, dir)
		return err
	})
	for _, p := range paths {
		fmt.Fprintf(cmd.ErrOrStderr(), "saved %s\n", p)
	}
	return err
}

func play(ctx context.Context, resp media.Response) error {
	name := cfg.Player
	if flagPlayer != "" {
		name = flagPlayer
	}
	p := player.New(name)
	if !p.Available() {
		return fmt.Errorf("%s not found in PATH", p.Name())
	}
	it, err := player.FromResponse(resp, flagTitle, flagLoop)
	if err != nil {
		return err
	}
	logger.Debug("launching player", "player", p.Name())
	return p.Play(ctx, it)
}

// downloadable picks the assets --download saves: the quality-selected
// video, every slide of a photo post, or only the soundtrack.
func downloadable(resp media.Response, title string, audioOnly bool) []relay.Asset {
	var out []relay.Asset
	for _, a := range relay.Assets(resp, "", title) {
		switch {
		case audioOnly:
			if a.Label == "music" {
				out = append(out, a)
			}
		case a.Label == "video" || strings.HasPrefix(a.Label, "image-"):
			out = append(out, a)
		}
	}
	return out
}

// recordOutcome logs the resolution when history is enabled.
func recordOutcome(ctx context.Context, text string, res *resolver.Result, err error) {
	store, openErr := openHistory(ctx, cfg)
	if openErr != nil {
		logger.Debug("history unavailable", "err", openErr)
		return
	}
	if store == nil {
		return
	}
	defer store.Close()

	entry := media.HistoryEntry{Source: text}
	if err != nil {
		entry.Status = 500
		var re *resolver.Error
		if errors.As(err, &re) {
			entry.Status = re.Status
		}
	} else {
		entry.Status = 200
		entry.Canonical = res.Canonical
		entry.Backend = res.Backend
		entry.Type = res.Response.Type
	}
	if err := store.Record(ctx, entry); err != nil {
		logger.Debug("recording history failed", "err", err)
	}
}
