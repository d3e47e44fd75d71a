package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jsiebens/memberd/internal/config"
	"golang.org/x/oauth2"
)

// KakaoProvider talks to a Kakao-style OAuth provider: a form-encoded code
// exchange against the token endpoint, followed by a Bearer-authenticated
// GET of the user profile endpoint.
type KakaoProvider struct {
	clientID     string
	clientSecret string
	authURL      string
	tokenURL     string
	userInfoURL  string
	scopes       []string
	client       *http.Client
}

func NewKakaoProvider(c *config.AuthProvider) *KakaoProvider {
	return &KakaoProvider{
		clientID:     c.ClientID,
		clientSecret: c.ClientSecret,
		authURL:      c.AuthUrl,
		tokenURL:     c.TokenUrl,
		userInfoURL:  c.UserInfoUrl,
		scopes:       c.Scopes,
		client:       http.DefaultClient,
	}
}

func (p *KakaoProvider) GetLoginURL(redirectURI, state string) string {
	cfg := p.oauth2Config(redirectURI)
	return cfg.AuthCodeURL(state)
}

func (p *KakaoProvider) Exchange(ctx context.Context, redirectURI, code string) (*Profile, error) {
	oauth2Config := p.oauth2Config(redirectURI)

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	oauth2Token, err := oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	return p.getProfile(ctx, oauth2Token)
}

func (p *KakaoProvider) oauth2Config(redirectURI string) oauth2.Config {
	return oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       p.scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.authURL,
			TokenURL:  p.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (p *KakaoProvider) getProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	token.SetAuthHeader(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching user profile failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching user profile failed with status %d", resp.StatusCode)
	}

	var raw = make(map[string]interface{})
	var claims struct {
		KakaoAccount struct {
			Email string `json:"email"`
		} `json:"kakao_account"`
		Properties struct {
			Nickname string `json:"nickname"`
		} `json:"properties"`
	}

	if err := json.Unmarshal(body, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse user profile: %v", err)
	}

	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse user profile: %v", err)
	}

	if claims.KakaoAccount.Email == "" {
		return nil, fmt.Errorf("user profile is missing an email claim")
	}

	return &Profile{
		Email: claims.KakaoAccount.Email,
		Name:  claims.Properties.Nickname,
		Attr:  raw,
	}, nil
}
