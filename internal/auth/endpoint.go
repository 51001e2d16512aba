package auth

import (
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

const (
	// tokenPath and authorizePath sit under the mall's API base URL.
	tokenPath     = "/oauth/token"
	authorizePath = "/oauth/authorize"
)

// BaseURL returns the Cafe24 Admin API base URL for a mall.
func BaseURL(mallID string) string {
	return fmt.Sprintf("https://%s.cafe24api.com/api/v2", mallID)
}

// Endpoint builds the OAuth2 endpoints for a Cafe24 API base URL.
// Cafe24 authenticates token requests with HTTP Basic client credentials,
// not body parameters.
func Endpoint(baseURL string) oauth2.Endpoint {
	base := strings.TrimRight(baseURL, "/")
	return oauth2.Endpoint{
		AuthURL:   base + authorizePath,
		TokenURL:  base + tokenPath,
		AuthStyle: oauth2.AuthStyleInHeader,
	}
}
