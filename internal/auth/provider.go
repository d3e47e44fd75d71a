package auth

import (
	"context"
	"fmt"

	"github.com/jsiebens/memberd/internal/config"
)

// Provider exchanges an authorization code issued by the identity provider's
// consent screen for the user's profile claims.
type Provider interface {
	GetLoginURL(redirectURI, state string) string
	Exchange(ctx context.Context, redirectURI, code string) (*Profile, error)
}

type Profile struct {
	Email string
	Name  string
	Attr  map[string]interface{}
}

func NewProvider(c *config.AuthProvider) (Provider, error) {
	switch c.Type {
	case "", "kakao":
		return NewKakaoProvider(c), nil
	case "oidc":
		return NewOIDCProvider(c)
	}
	return nil, fmt.Errorf("invalid auth provider type '%s'", c.Type)
}
