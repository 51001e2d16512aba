package auth

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSource adapts the Manager to oauth2.TokenSource, so API clients can
// authenticate requests with oauth2.Transport without knowing anything
// about grants or storage.
//
// oauth2.TokenSource.Token has no context parameter, so the context is
// captured at construction per the oauth2 package's own convention. Reuse
// across requests is safe; refreshes triggered through the adapter share
// the Manager's single-flight path.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &managerTokenSource{ctx: ctx, manager: m}
}

type managerTokenSource struct {
	ctx     context.Context
	manager *Manager
}

// Compile-time check to ensure managerTokenSource implements oauth2.TokenSource
var _ oauth2.TokenSource = (*managerTokenSource)(nil)

// Token returns a valid access token, refreshing through the Manager if the
// cached one has expired.
func (ts *managerTokenSource) Token() (*oauth2.Token, error) {
	value, err := ts.manager.GetAccessToken(ts.ctx, "")
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: value,
		TokenType:   "Bearer",
	}, nil
}
