package shared

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const signedInCurl = `curl 'https://music.youtube.com/youtubei/v1/browse?prettyPrint=false' \
  -H 'accept: */*' \
  -H 'accept-encoding: gzip, deflate, br' \
  -H 'Authorization: SAPISIDHASH 1700000000_abc' \
  -H 'content-type: application/json' \
  -H 'cookie: VISITOR_INFO=xyz; SAPISID=abc' \
  -H 'X-Goog-AuthUser: 0' \
  -H 'x-origin: https://music.youtube.com' \
  --data-raw '{"context":{}}'`

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantHeaders map[string]string
		wantCookie  string
		wantErr     bool
	}{
		{
			name:        "single quoted header is lowercased",
			curlCmd:     `curl -H 'Authorization: Bearer token123' https://api.example.com`,
			wantHeaders: map[string]string{"authorization": "Bearer token123"},
		},
		{
			name:        "double quoted header",
			curlCmd:     `curl -H "Content-Type: application/json" https://api.example.com`,
			wantHeaders: map[string]string{"content-type": "application/json"},
		},
		{
			name:        "cookie header is split out",
			curlCmd:     `curl -H 'Cookie: session=abc123' -H 'Accept: */*' https://api.example.com`,
			wantHeaders: map[string]string{"accept": "*/*"},
			wantCookie:  "session=abc123",
		},
		{
			name:        "-b flag wins over cookie header",
			curlCmd:     `curl -H 'Cookie: old=value' -b 'new=value' https://api.example.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "new=value",
		},
		{
			name:        "--cookie flag",
			curlCmd:     `curl --cookie "a=b" https://api.example.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "a=b",
		},
		{
			name:        "volatile headers dropped",
			curlCmd:     `curl -H 'Host: music.youtube.com' -H 'Content-Length: 12' -H 'x-origin: https://music.youtube.com'`,
			wantHeaders: map[string]string{"x-origin": "https://music.youtube.com"},
		},
		{
			name:    "signed in browser request",
			curlCmd: signedInCurl,
			wantHeaders: map[string]string{
				"accept":          "*/*",
				"authorization":   "SAPISIDHASH 1700000000_abc",
				"content-type":    "application/json",
				"x-goog-authuser": "0",
				"x-origin":        "https://music.youtube.com",
			},
			wantCookie: "VISITOR_INFO=xyz; SAPISID=abc",
		},
		{name: "no headers", curlCmd: `curl https://api.example.com`, wantErr: true},
		{name: "empty command", curlCmd: "", wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCurlCommand(tc.curlCmd)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseCurlCommand() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}

			if len(result.Headers) != len(tc.wantHeaders) {
				t.Errorf("headers count = %d, want %d (%v)", len(result.Headers), len(tc.wantHeaders), result.Headers)
			}
			for key, want := range tc.wantHeaders {
				if got := result.Headers[key]; got != want {
					t.Errorf("header[%s] = %q, want %q", key, got, want)
				}
			}
			if result.Cookie != tc.wantCookie {
				t.Errorf("cookie = %q, want %q", result.Cookie, tc.wantCookie)
			}
		})
	}
}

func TestParseCurlFile(t *testing.T) {
	t.Run("reads command from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "curl.sh")
		if err := os.WriteFile(path, []byte(signedInCurl), 0o644); err != nil {
			t.Fatalf("failed to write test file: %v", err)
		}

		result, err := ParseCurlFile(path)
		if err != nil {
			t.Fatalf("ParseCurlFile() error = %v", err)
		}
		if result.Headers["x-goog-authuser"] != "0" {
			t.Errorf("expected x-goog-authuser 0, got %q", result.Headers["x-goog-authuser"])
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := ParseCurlFile("/nonexistent/file.sh"); err == nil {
			t.Error("expected error for nonexistent file")
		}
	})
}

func TestBrowserHeaders(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		tests := []struct {
			name    string
			headers *BrowserHeaders
			wantErr bool
		}{
			{
				name:    "complete",
				headers: &BrowserHeaders{Headers: map[string]string{"x-goog-authuser": "0"}, Cookie: "SAPISID=abc"},
			},
			{
				name:    "no cookie",
				headers: &BrowserHeaders{Headers: map[string]string{"x-goog-authuser": "0"}},
				wantErr: true,
			},
			{
				name:    "no auth user",
				headers: &BrowserHeaders{Headers: map[string]string{}, Cookie: "SAPISID=abc"},
				wantErr: true,
			},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				err := tc.headers.Validate()
				if (err != nil) != tc.wantErr {
					t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
				}
				if err != nil && !errors.Is(err, ErrMissingCredentials) {
					t.Errorf("expected ErrMissingCredentials, got %v", err)
				}
			})
		}
	})

	t.Run("WriteAuthFile", func(t *testing.T) {
		bh, err := ParseCurlCommand(signedInCurl)
		if err != nil {
			t.Fatalf("ParseCurlCommand() error = %v", err)
		}

		path := filepath.Join(t.TempDir(), "nested", "ytmusic_auth.json")
		if err := bh.WriteAuthFile(path); err != nil {
			t.Fatalf("WriteAuthFile() error = %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("auth file should exist: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("expected permissions 0600, got %o", perm)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read auth file: %v", err)
		}
		var got map[string]string
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("auth file is not a JSON object: %v", err)
		}
		if got["cookie"] != "VISITOR_INFO=xyz; SAPISID=abc" {
			t.Errorf("cookie = %q", got["cookie"])
		}
		if _, ok := got["accept-encoding"]; ok {
			t.Error("accept-encoding should not be written")
		}
	})

	t.Run("WriteAuthFile rejects unsigned request", func(t *testing.T) {
		bh := &BrowserHeaders{Headers: map[string]string{"accept": "*/*"}}
		path := filepath.Join(t.TempDir(), "auth.json")
		if err := bh.WriteAuthFile(path); err == nil {
			t.Fatal("expected error")
		}
		if _, err := os.Stat(path); err == nil {
			t.Error("no file should be written on validation failure")
		}
	})
}
