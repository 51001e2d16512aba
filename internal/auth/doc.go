// Package auth implements the OAuth2 credential lifecycle for the Cafe24
// Admin API: the authorization-code and refresh-token grants, encrypted
// token persistence through the token store, and one operation that hides
// grant mechanics from callers.
//
// Cafe24 follows RFC 6749 closely: form-encoded token requests with HTTP
// Basic client authentication. The grant flows therefore build directly on
// golang.org/x/oauth2, with two behaviors layered on top:
//
//   - Refresh deduplication: concurrent callers that find no fresh access
//     token share a single token-endpoint exchange. Cafe24 rotates the
//     refresh token on every refresh, so parallel refreshes are not merely
//     wasteful, the losing rotation is invalidated server-side.
//   - Persist-before-return: every granted token is written to the store
//     before the grant call returns, so any caller starting after a
//     refresh completes observes the refreshed credentials.
//
// # Usage
//
// Callers that just need a bearer token use the Manager directly:
//
//	token, err := manager.GetAccessToken(ctx, "")
//
// Callers integrating with oauth2.Transport use the adapter:
//
//	client := oauth2.NewClient(ctx, manager.TokenSource(ctx))
package auth
