// Package google provides shared infrastructure for Google API sources.
//
// It contains:
//   - A refresh-token oauth2.TokenSource for the configured OAuth client
//   - The Drive service factory
//   - Mapping of Google API errors (401, 403, 404, 429) to domain errors
//
// # Usage
//
//	ts, err := google.NewTokenSource(ctx, creds, oauth2.Endpoint{})
//	svc, err := google.NewDriveService(ctx, ts)
//
// # OAuth2 Scopes
//
// The drive source needs https://www.googleapis.com/auth/drive.readonly.
// The refresh token is obtained out of band and stored in the config file
// or the ALMANAC_GOOGLE_REFRESH_TOKEN environment variable.
package google
