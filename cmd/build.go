package cmd

import (
	"context"
	"fmt"
	"net/http"

	"tiksnap/internal/backend"
	"tiksnap/internal/config"
	"tiksnap/internal/history"
	"tiksnap/internal/httputil"
	"tiksnap/internal/media"
	"tiksnap/internal/resolver"
	"tiksnap/internal/ttdl"
)

// newBackends builds the configured backend chain in order.
func newBackends(c *config.Config, client *http.Client) ([]backend.Backend, error) {
	out := make([]backend.Backend, 0, len(c.Backends))
	for _, name := range c.Backends {
		switch name {
		case "ssstik":
			out = append(out, backend.NewSSSTik(c.Endpoints.SSSTik, client, c.PreferredCDN))
		case "tiksave":
			out = append(out, backend.NewTikSave(c.Endpoints.TikSave, client, c.PreferredCDN))
		case "library":
			dl := ttdl.New(c.Endpoints.TikTokWeb, c.Endpoints.TikTokAPI, client)
			out = append(out, backend.NewLibrary(dl, c.LibraryVersions, c.MinViews))
		case "tikwm":
			out = append(out, backend.NewTikWM(c.Endpoints.TikWM, client))
		default:
			return nil, fmt.Errorf("unknown backend %q", name)
		}
	}
	return out, nil
}

// newResolver wires the resolver from the configuration.
func newResolver(c *config.Config) (*resolver.Resolver, *http.Client, error) {
	client := httputil.NewClient(c.Timeout)
	backends, err := newBackends(c, client)
	if err != nil {
		return nil, nil, err
	}
	return resolver.New(backends, resolver.WithClient(client)), client, nil
}

// openHistory opens the resolution log, or returns nil when disabled.
func openHistory(ctx context.Context, c *config.Config) (*history.Store, error) {
	if !c.History {
		return nil, nil
	}
	path, err := config.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(ctx, path)
}

func quality() media.Quality {
	return media.ParseQuality(cfg.Quality)
}
