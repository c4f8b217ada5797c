package source

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/wlmr-rk/proj-nexus/internal/config"
	"github.com/wlmr-rk/proj-nexus/internal/errors"
)

// refreshGrant exchanges a long-lived refresh token for an access token.
type refreshGrant struct {
	provider  string
	cfg       config.OAuthConfig
	authStyle oauth2.AuthStyle
	http      *http.Client
}

// exchange performs the refresh-token grant. Missing secrets and any failure
// of the exchange are reported as errors.ErrAuth.
func (g *refreshGrant) exchange(ctx context.Context) (Credential, error) {
	clientID := config.Secret(g.cfg.ClientIDEnv)
	clientSecret := config.Secret(g.cfg.ClientSecretEnv)
	refresh := config.Secret(g.cfg.RefreshTokenEnv)

	required := []struct{ env, value string }{
		{g.cfg.ClientIDEnv, clientID},
		{g.cfg.ClientSecretEnv, clientSecret},
		{g.cfg.RefreshTokenEnv, refresh},
	}
	for _, r := range required {
		if r.value == "" {
			return Credential{}, errors.WithHintf(
				errors.AuthErrorf("%s: %s is not set", g.provider, r.env),
				"export %s or add it to .env", r.env)
		}
	}

	oc := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  g.cfg.TokenURL,
			AuthStyle: g.authStyle,
		},
	}
	if g.http != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.http)
	}

	tok, err := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh}).Token()
	if err != nil {
		return Credential{}, errors.WrapAuth(err, "%s: refreshing access token", g.provider)
	}
	if tok.AccessToken == "" {
		return Credential{}, errors.AuthErrorf("%s: token endpoint returned no access token", g.provider)
	}
	return Bearer(tok.AccessToken), nil
}
