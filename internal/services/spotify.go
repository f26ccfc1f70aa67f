// Spotify [SourceCatalog] implementation
//
// Uses app-level client credentials, so only public and collaborative playlists are readable.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// SpotifySource reads playlists from the Spotify Web API.
type SpotifySource struct {
	creds   *clientcredentials.Config
	baseURL string
	base    *http.Client
	client  *spotify.Client
	logger  *log.Logger
}

// SpotifyOption customizes a [SpotifySource].
type SpotifyOption func(*SpotifySource)

// WithSpotifyTokenURL overrides the accounts token endpoint.
func WithSpotifyTokenURL(u string) SpotifyOption {
	return func(s *SpotifySource) { s.creds.TokenURL = u }
}

// WithSpotifyBaseURL overrides the Web API base URL. It must end with a slash.
func WithSpotifyBaseURL(u string) SpotifyOption {
	return func(s *SpotifySource) { s.baseURL = u }
}

// WithSpotifyHTTPClient sets the transport used for both token and API requests.
func WithSpotifyHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifySource) { s.base = c }
}

// WithSpotifyLogger sets the logger.
func WithSpotifyLogger(l *log.Logger) SpotifyOption {
	return func(s *SpotifySource) { s.logger = l }
}

// NewSpotifySource creates a source for the given application credentials.
func NewSpotifySource(clientID, clientSecret string, opts ...SpotifyOption) (*SpotifySource, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client id and secret are required", shared.ErrMissingCredentials)
	}

	s := &SpotifySource{
		creds: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyauth.TokenURL,
		},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the service name.
func (s *SpotifySource) Name() string {
	return "Spotify"
}

// Connect exchanges the client credentials for a token and builds the API client.
func (s *SpotifySource) Connect(ctx context.Context) error {
	ctx = s.oauthContext(ctx)
	if _, err := s.creds.Token(ctx); err != nil {
		return fmt.Errorf("%w: spotify client credentials rejected: %v", shared.ErrAuthFailed, err)
	}

	// The token source keeps this context for refreshes, so it must outlive the caller's deadline.
	httpClient := s.creds.Client(context.WithoutCancel(ctx))

	opts := []spotify.ClientOption{spotify.WithRetry(true)}
	if s.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.baseURL))
	}
	s.client = spotify.New(httpClient, opts...)
	s.logger.Debug("connected to spotify")
	return nil
}

func (s *SpotifySource) oauthContext(ctx context.Context) context.Context {
	if s.base == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.base)
}

// PlaylistPage returns one page of playlist entries. The cursor is the catalog's next-page URL.
func (s *SpotifySource) PlaylistPage(ctx context.Context, playlistID, cursor string) (*SourcePage, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: spotify source is not connected", shared.ErrAuthFailed)
	}

	var page spotify.PlaylistTrackPage
	if cursor == "" {
		pl, err := s.client.GetPlaylist(ctx, spotify.ID(playlistID))
		if err != nil {
			return nil, fmt.Errorf("%w: get playlist %s: %v", shared.ErrAPIRequest, playlistID, err)
		}
		page = pl.Tracks
	} else {
		page.Next = cursor
		if err := s.client.NextPage(ctx, &page); err != nil {
			if errors.Is(err, spotify.ErrNoMorePages) {
				return &SourcePage{}, nil
			}
			return nil, fmt.Errorf("%w: playlist %s pagination: %v", shared.ErrAPIRequest, playlistID, err)
		}
	}

	out := &SourcePage{
		Items: make([]SourceItem, 0, len(page.Tracks)),
		Next:  page.Next,
		Total: int(page.Total),
	}
	// a null "next" decodes as no change, which would repeat the same page forever
	if out.Next == cursor {
		out.Next = ""
	}
	for _, item := range page.Tracks {
		out.Items = append(out.Items, toSourceItem(item))
	}
	return out, nil
}

func toSourceItem(item spotify.PlaylistTrack) SourceItem {
	st := item.Track
	switch {
	case item.IsLocal:
		return SourceItem{Kind: KindLocal}
	case st.ID == "", len(st.Artists) == 0:
		return SourceItem{Kind: KindMissing}
	case strings.HasPrefix(string(st.URI), "spotify:episode:"):
		return SourceItem{Kind: KindEpisode}
	}

	artists := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		artists = append(artists, a.Name)
	}

	return SourceItem{
		Kind: KindTrack,
		Track: models.TrackDescriptor{
			SourceID:   string(st.ID),
			Title:      st.Name,
			Artists:    artists,
			Album:      st.Album.Name,
			DurationMS: int(st.Duration),
			Popularity: int(st.Popularity),
		},
	}
}
