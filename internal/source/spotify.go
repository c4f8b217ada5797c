package source

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/wlmr-rk/proj-nexus/internal/config"
	"github.com/wlmr-rk/proj-nexus/internal/errors"
	vlog "github.com/wlmr-rk/proj-nexus/internal/log"
)

// Spotify reports the currently playing track, or the most recent one when
// nothing is playing.
type Spotify struct {
	APIBase string
	grant   *refreshGrant
	client  *apiClient
}

// Track is the published Spotify snapshot.
type Track struct {
	IsPlaying     bool   `json:"isPlaying"`
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	Album         string `json:"album"`
	AlbumImageURL string `json:"albumImageUrl,omitempty"`
	SongURL       string `json:"songUrl,omitempty"`
}

type spotifyTrack struct {
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album *struct {
		Name   string `json:"name"`
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type spotifyCurrentlyPlaying struct {
	IsPlaying bool          `json:"is_playing"`
	Item      *spotifyTrack `json:"item"`
}

type spotifyPlayHistory struct {
	Track *spotifyTrack `json:"track"`
}

type spotifyRecentlyPlayed struct {
	Items []spotifyPlayHistory `json:"items"`
}

// SpotifyRaw holds what was fetched. Recent is only set when the
// currently-playing lookup found nothing playing.
type SpotifyRaw struct {
	Current *spotifyCurrentlyPlaying
	Recent  *spotifyRecentlyPlayed
}

func NewSpotify(cfg *config.Config, hc *http.Client) *Spotify {
	return &Spotify{
		APIBase: strings.TrimRight(cfg.Providers.Spotify.APIBase, "/"),
		grant: &refreshGrant{
			provider:  "spotify",
			cfg:       cfg.Providers.Spotify,
			authStyle: oauth2.AuthStyleInHeader,
			http:      hc,
		},
		client: newAPIClient("spotify", hc),
	}
}

func (s *Spotify) Name() string     { return "spotify" }
func (s *Spotify) FileName() string { return FileName(s.Name()) }

// Authenticate refreshes the access token; Spotify tokens expire hourly so
// every run refreshes.
func (s *Spotify) Authenticate(ctx context.Context) (Credential, error) {
	return s.grant.exchange(ctx)
}

// FetchRaw asks for the current track and falls back to the last played one
// when the player is idle. An idle player is not an error.
func (s *Spotify) FetchRaw(ctx context.Context, cred Credential) (*SpotifyRaw, error) {
	raw := &SpotifyRaw{}

	var current spotifyCurrentlyPlaying
	status, err := s.client.getJSON(ctx, s.APIBase+"/me/player/currently-playing", cred, &current)
	if err != nil {
		return nil, err
	}
	if status != http.StatusNoContent {
		raw.Current = &current
	}
	if raw.Current != nil && raw.Current.IsPlaying && raw.Current.Item != nil {
		return raw, nil
	}

	vlog.Info("nothing playing, getting last played track")
	var recent spotifyRecentlyPlayed
	if _, err := s.client.getJSON(ctx, s.APIBase+"/me/player/recently-played?limit=1", cred, &recent); err != nil {
		return nil, err
	}
	raw.Recent = &recent
	return raw, nil
}

func (s *Spotify) Normalize(raw *SpotifyRaw) (*Track, error) {
	if raw == nil {
		return nil, errors.MalformedErrorf("spotify: no playback data")
	}
	if c := raw.Current; c != nil && c.IsPlaying && c.Item != nil {
		return normalizeTrack(c.Item, true), nil
	}
	if raw.Recent == nil || raw.Recent.Items == nil {
		return nil, errors.MalformedErrorf("spotify: recently-played response has no items")
	}
	if len(raw.Recent.Items) == 0 || raw.Recent.Items[0].Track == nil {
		return nil, errors.MalformedErrorf("spotify: no recently played track")
	}
	return normalizeTrack(raw.Recent.Items[0].Track, false), nil
}

func normalizeTrack(t *spotifyTrack, playing bool) *Track {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}

	out := &Track{
		IsPlaying: playing,
		Title:     orDefault(t.Name, "Unknown"),
		Artist:    orDefault(strings.Join(names, ", "), "Unknown"),
		Album:     "Unknown",
		SongURL:   t.ExternalURLs.Spotify,
	}
	if t.Album != nil {
		out.Album = orDefault(t.Album.Name, "Unknown")
		if len(t.Album.Images) > 0 {
			out.AlbumImageURL = t.Album.Images[0].URL
		}
	}
	return out
}

func (s *Spotify) Collect(ctx context.Context) (any, error) {
	vlog.Info("fetching Spotify data")
	cred, err := s.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := s.FetchRaw(ctx, cred)
	if err != nil {
		return nil, err
	}
	track, err := s.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return track, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
