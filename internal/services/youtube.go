// YouTube Music [DestinationCatalog] implementation
//
// Communicates with the FastAPI proxy server wrapping the ytmusicapi Python library.
// The auth artifact path is sent via the X-Auth-File header on each request.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/shared"
	"golang.org/x/time/rate"
)

const defaultYTBaseURL string = "http://localhost:8080"

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type youtubeAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeSong is one song result from the proxy's search endpoint.
type YouTubeSong struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Album       *youtubeAlbum   `json:"album"`
	Duration    string          `json:"duration"`
	DurationSec *float64        `json:"duration_seconds"`
}

func (s YouTubeSong) candidate() models.Candidate {
	c := models.Candidate{VideoID: s.VideoID, Title: s.Title}
	for _, a := range s.Artists {
		c.Artists = append(c.Artists, a.Name)
	}
	if s.Album != nil {
		c.Album = s.Album.Name
	}
	// the proxy reports 0 when ytmusicapi had no length for the result
	if s.DurationSec != nil && *s.DurationSec > 0 {
		d := *s.DurationSec
		c.DurationSeconds = &d
	}
	return c
}

// YouTubeDestination writes playlists to YouTube Music through the proxy.
type YouTubeDestination struct {
	baseURL    string
	authFile   string
	privacy    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryPolicy
	logger     *log.Logger
}

// YouTubeOption customizes a [YouTubeDestination].
type YouTubeOption func(*YouTubeDestination)

// WithYouTubeHTTPClient sets the HTTP client used to reach the proxy.
func WithYouTubeHTTPClient(c *http.Client) YouTubeOption {
	return func(y *YouTubeDestination) { y.httpClient = c }
}

// WithPrivacy sets the privacy status of created playlists (PRIVATE, PUBLIC or UNLISTED).
func WithPrivacy(p string) YouTubeOption {
	return func(y *YouTubeDestination) { y.privacy = strings.ToUpper(p) }
}

// WithRateLimit caps requests per second to the proxy. Zero or less disables the cap.
func WithRateLimit(perSecond float64) YouTubeOption {
	return func(y *YouTubeDestination) {
		if perSecond <= 0 {
			y.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		y.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithRetryPolicy overrides the retry policy for transient failures.
func WithRetryPolicy(p RetryPolicy) YouTubeOption {
	return func(y *YouTubeDestination) { y.retry = p }
}

// WithYouTubeLogger sets the logger.
func WithYouTubeLogger(l *log.Logger) YouTubeOption {
	return func(y *YouTubeDestination) { y.logger = l }
}

// NewYouTubeDestination creates a destination that talks to the proxy at baseURL using authFile.
func NewYouTubeDestination(baseURL, authFile string, opts ...YouTubeOption) *YouTubeDestination {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	y := &YouTubeDestination{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authFile:   authFile,
		privacy:    "PRIVATE",
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		retry:      DefaultRetryPolicy(),
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// Name returns the service name.
func (y *YouTubeDestination) Name() string {
	return "YouTube Music"
}

// Connect checks that an auth artifact is configured and the proxy answers its health check.
//
// Calls GET /health on the proxy.
func (y *YouTubeDestination) Connect(ctx context.Context) error {
	if y.authFile == "" {
		return fmt.Errorf("%w: no auth file configured", shared.ErrMissingAuthFile)
	}
	if err := y.do(ctx, http.MethodGet, "/health", nil, nil); err != nil {
		return fmt.Errorf("%w: youtube music proxy at %s: %v", shared.ErrServiceUnavailable, y.baseURL, err)
	}
	return nil
}

// SearchSongs searches the song index.
//
// Calls GET /api/search?q={query}&filter=songs&limit={limit} on the proxy.
func (y *YouTubeDestination) SearchSongs(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("filter", "songs")
	if limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}

	var songs []YouTubeSong
	if err := y.do(ctx, http.MethodGet, "/api/search?"+params.Encode(), nil, &songs); err != nil {
		return nil, err
	}

	// ytmusicapi treats limit as a minimum, so trim here
	if limit > 0 && len(songs) > limit {
		songs = songs[:limit]
	}

	candidates := make([]models.Candidate, 0, len(songs))
	for _, s := range songs {
		if s.VideoID == "" {
			continue
		}
		candidates = append(candidates, s.candidate())
	}
	return candidates, nil
}

// CreatePlaylist creates an empty playlist.
//
// Calls POST /api/playlists on the proxy.
func (y *YouTubeDestination) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	body := struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		PrivacyStatus string `json:"privacy_status"`
	}{Title: name, Description: description, PrivacyStatus: y.privacy}

	var resp struct {
		PlaylistID string `json:"playlist_id"`
	}
	if err := y.do(ctx, http.MethodPost, "/api/playlists", body, &resp); err != nil {
		return "", err
	}
	if resp.PlaylistID == "" {
		return "", fmt.Errorf("%w: proxy returned no playlist id", shared.ErrAPIRequest)
	}
	return resp.PlaylistID, nil
}

// AddPlaylistItem appends one video to the playlist.
//
// Calls POST /api/playlists/{id}/items on the proxy with a single-element video_ids list.
func (y *YouTubeDestination) AddPlaylistItem(ctx context.Context, playlistID, videoID string) error {
	body := struct {
		VideoIDs []string `json:"video_ids"`
	}{VideoIDs: []string{videoID}}

	endpoint := fmt.Sprintf("/api/playlists/%s/items", url.PathEscape(playlistID))
	return y.do(ctx, http.MethodPost, endpoint, body, nil)
}

// do waits for the rate limiter, sends the request with retries, and decodes the JSON result.
func (y *YouTubeDestination) do(ctx context.Context, method, endpoint string, payload, result any) error {
	var raw []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		raw = b
	}

	build := func(ctx context.Context) (*http.Request, error) {
		if err := y.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var body io.Reader
		if raw != nil {
			body = bytes.NewReader(raw)
		}
		req, err := http.NewRequestWithContext(ctx, method, y.baseURL+endpoint, body)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if y.authFile != "" {
			req.Header.Set("X-Auth-File", y.authFile)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	_, body, err := doWithRetry(ctx, y.httpClient, y.retry, build)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}
	return nil
}

// errorDetail extracts FastAPI's {"detail": "..."} message, falling back to the raw body.
func errorDetail(body []byte) string {
	var e struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Detail != nil {
		if s, ok := e.Detail.(string); ok {
			return s
		}
		b, _ := json.Marshal(e.Detail)
		return string(b)
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	return s
}
