// Package services defines the [SourceCatalog] and [DestinationCatalog] interfaces and implements them for Spotify and YouTube Music.
//
// # Playlist references
//
// [ExtractPlaylistID] turns a share URL, a catalog URI or a bare id into the canonical playlist id.
//
// # Spotify Implementation
//
// [SpotifySource] uses app-level client credentials (no user login) and the zmb3/spotify client.
// Pages are walked with the API's next-page URLs, which double as the cursor handed back to callers.
// Every raw entry is returned with its [ItemKind] so callers decide what to keep.
//
// # YouTube Music Implementation
//
// [YouTubeDestination] communicates with the FastAPI proxy server wrapping ytmusicapi.
// The proxy handles YouTube Music authentication; the auth artifact path is sent via the X-Auth-File header on each request.
// Requests share one rate limiter and are retried with backoff on transient failures.
// Writes (playlist creation, item inserts) are only retried when the proxy refused them with 429 or 503,
// so a retry never duplicates an item.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrMissingCredentials] : client id or secret absent
//   - [shared.ErrAuthFailed] : credentials rejected, or source used before Connect
//   - [shared.ErrMissingAuthFile] : destination has no auth artifact
//   - [shared.ErrServiceUnavailable] : proxy health check failed
//   - [shared.ErrAPIRequest] : any other failed request; non-2xx responses wrap a [*StatusError]
//   - [shared.ErrUnrecognizedReference] : playlist reference could not be parsed
package services
