package oauth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// ErrNoRefreshToken is returned when the provider grants no offline access.
var ErrNoRefreshToken = errors.New("oauth: provider returned no refresh token")

// Authorize runs the authorization code flow with PKCE on a loopback
// redirect. open is called with the consent URL; the user completes consent
// in the browser. cfg.RedirectURL is set to the callback server.
func Authorize(ctx context.Context, cfg *oauth2.Config, open func(url string) error) (*oauth2.Token, error) {
	state, err := NewState()
	if err != nil {
		return nil, err
	}

	server := NewCallbackServer(0, state)
	if err := server.Start(); err != nil {
		return nil, err
	}
	defer func() { _ = server.Stop() }()

	flowCfg := *cfg
	flowCfg.RedirectURL = server.RedirectURI()

	verifier := oauth2.GenerateVerifier()
	authURL := flowCfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.S256ChallengeOption(verifier),
	)
	if err := open(authURL); err != nil {
		return nil, fmt.Errorf("opening consent page: %w", err)
	}

	code, err := server.WaitForCode(ctx)
	if err != nil {
		return nil, err
	}

	token, err := flowCfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}
	return token, nil
}
