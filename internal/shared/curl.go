// Building the destination auth artifact from a browser "Copy as cURL" request.
package shared

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	curlHeaderRe = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookieRe = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
)

// headers the proxy recomputes per request and must not be pinned in the artifact
var volatileHeaders = map[string]bool{
	"host":            true,
	"content-length":  true,
	"accept-encoding": true,
}

// BrowserHeaders holds the request headers captured from a signed-in music.youtube.com session.
// Keys are lowercased.
type BrowserHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a file containing a cURL command and extracts its headers.
func ParseCurlFile(path string) (*BrowserHeaders, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurlCommand(string(content))
}

// ParseCurlCommand extracts headers and the cookie from a cURL command.
// A -b/--cookie value wins over a Cookie header.
func ParseCurlCommand(curl string) (*BrowserHeaders, error) {
	curl = strings.ReplaceAll(curl, "\\\r\n", " ")
	curl = strings.ReplaceAll(curl, "\\\n", " ")

	bh := &BrowserHeaders{Headers: make(map[string]string)}
	for _, m := range curlHeaderRe.FindAllStringSubmatch(curl, -1) {
		line := firstNonEmpty(m[1], m[2])
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "" || volatileHeaders[key] {
			continue
		}
		if key == "cookie" {
			bh.Cookie = value
			continue
		}
		bh.Headers[key] = value
	}

	if m := curlCookieRe.FindStringSubmatch(curl); m != nil {
		bh.Cookie = firstNonEmpty(m[1], m[2])
	}

	if len(bh.Headers) == 0 && bh.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}
	return bh, nil
}

// Validate checks that the headers can authenticate a YouTube Music session.
func (b *BrowserHeaders) Validate() error {
	if b.Cookie == "" {
		return fmt.Errorf("%w: curl command has no cookie; copy a request made while signed in", ErrMissingCredentials)
	}
	if _, ok := b.Headers["x-goog-authuser"]; !ok {
		return fmt.Errorf("%w: curl command has no x-goog-authuser header; copy a POST request to music.youtube.com/youtubei", ErrMissingCredentials)
	}
	return nil
}

// AuthArtifact renders the headers as the JSON object the ytmusicapi proxy loads.
func (b *BrowserHeaders) AuthArtifact() ([]byte, error) {
	out := make(map[string]string, len(b.Headers)+1)
	for k, v := range b.Headers {
		out[k] = v
	}
	if b.Cookie != "" {
		out["cookie"] = b.Cookie
	}
	return json.MarshalIndent(out, "", "  ")
}

// WriteAuthFile validates the headers and writes the artifact to path with owner-only permissions.
func (b *BrowserHeaders) WriteAuthFile(path string) error {
	if err := b.Validate(); err != nil {
		return err
	}
	data, err := b.AuthArtifact()
	if err != nil {
		return fmt.Errorf("failed to encode auth artifact: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}
	return nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
