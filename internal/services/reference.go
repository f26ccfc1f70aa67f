package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/ytmigrate/internal/shared"
)

var (
	playlistPathRe = regexp.MustCompile(`playlist/([A-Za-z0-9]+)`)
	bareIDRe       = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

const (
	playlistURIPrefix = "spotify:playlist:"
	webHost           = "open.spotify.com"
)

// ExtractPlaylistID returns the canonical playlist id named by ref.
//
// Accepted forms, tried in order:
//   - a web URL containing playlist/<id>, e.g. https://open.spotify.com/playlist/ABC123?si=x,
//     with or without the scheme
//   - a catalog URI, spotify:playlist:<id>
//   - a bare alphanumeric id
//
// Anything else returns [shared.ErrUnrecognizedReference].
func ExtractPlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(strings.ToLower(ref), webHost+"/") {
		ref = "https://" + ref
	}

	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		if m := playlistPathRe.FindStringSubmatch(u.Path); m != nil {
			return m[1], nil
		}
		return "", fmt.Errorf("%w: %q has no playlist/<id> path", shared.ErrUnrecognizedReference, ref)
	}

	if strings.HasPrefix(ref, playlistURIPrefix) {
		id := ref[strings.LastIndex(ref, ":")+1:]
		if !bareIDRe.MatchString(id) {
			return "", fmt.Errorf("%w: %q has an empty or malformed id", shared.ErrUnrecognizedReference, ref)
		}
		return id, nil
	}

	if bareIDRe.MatchString(ref) {
		return ref, nil
	}

	return "", fmt.Errorf("%w: %q", shared.ErrUnrecognizedReference, ref)
}
