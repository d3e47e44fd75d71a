package auth

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/jsiebens/memberd/internal/config"
	"github.com/oauth2-proxy/mockoidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oidcRedirectURI = "https://memberd.localtest.me/auth/callback"

func newOIDCProviderForTest(t *testing.T) (*mockoidc.MockOIDC, *OIDCProvider) {
	m, err := mockoidc.Run()
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown() })

	provider, err := NewOIDCProvider(&config.AuthProvider{
		Issuer:       m.Issuer(),
		ClientID:     m.ClientID,
		ClientSecret: m.ClientSecret,
	})
	require.NoError(t, err)

	return m, provider
}

// obtainCode walks the consent redirect and returns the authorization code
// the provider hands back.
func obtainCode(t *testing.T, provider *OIDCProvider) string {
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Get(provider.GetLoginURL(oidcRedirectURI, "some-state"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)

	code := location.Query().Get("code")
	require.NotEmpty(t, code)
	return code
}

func TestOIDCExchange(t *testing.T) {
	m, provider := newOIDCProviderForTest(t)
	m.QueueUser(&mockoidc.MockUser{Subject: "1234", Email: "jane@example.com", PreferredUsername: "jane"})

	profile, err := provider.Exchange(context.Background(), oidcRedirectURI, obtainCode(t, provider))
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", profile.Email)
	assert.Equal(t, "1234", profile.Attr["sub"])
}

func TestOIDCExchangeRejectsInvalidCode(t *testing.T) {
	_, provider := newOIDCProviderForTest(t)

	_, err := provider.Exchange(context.Background(), oidcRedirectURI, "bogus-code")
	require.Error(t, err)
}

func TestOIDCExchangeMissingEmail(t *testing.T) {
	m, provider := newOIDCProviderForTest(t)
	m.QueueUser(&mockoidc.MockUser{Subject: "5678", PreferredUsername: "ghost"})

	_, err := provider.Exchange(context.Background(), oidcRedirectURI, obtainCode(t, provider))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestOIDCDiscoveryFailure(t *testing.T) {
	_, err := NewOIDCProvider(&config.AuthProvider{Issuer: "http://127.0.0.1:1"})
	require.Error(t, err)
}
