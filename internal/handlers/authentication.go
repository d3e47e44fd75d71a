package handlers

import (
	"net/http"
	"strings"

	"github.com/jsiebens/memberd/internal/auth"
	"github.com/jsiebens/memberd/internal/config"
	"github.com/jsiebens/memberd/internal/domain"
	apperrors "github.com/jsiebens/memberd/internal/errors"
	"github.com/jsiebens/memberd/internal/token"
	"github.com/jsiebens/memberd/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/mr-tron/base58"
)

func NewAuthenticationHandlers(
	config *config.Config,
	authProvider auth.Provider,
	sessionIssuer *token.Issuer,
	repository domain.Repository) *AuthenticationHandlers {

	return &AuthenticationHandlers{
		config:        config,
		authProvider:  authProvider,
		sessionIssuer: sessionIssuer,
		repository:    repository,
	}
}

type AuthenticationHandlers struct {
	config        *config.Config
	authProvider  auth.Provider
	sessionIssuer *token.Issuer
	repository    domain.Repository
}

type LoginInput struct {
	Code string `json:"code" form:"code"`
}

type LoginResponse struct {
	Token          string `json:"token"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	IsExistingUser bool   `json:"isExistingUser"`
}

// Login exchanges the authorization code for the provider profile, resolves
// or creates the local member, and issues a session token.
func (h *AuthenticationHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var input LoginInput
	if err := c.Bind(&input); err != nil {
		return logError(apperrors.NewValidationError("invalid request body"))
	}

	if strings.TrimSpace(input.Code) == "" {
		return logError(apperrors.NewValidationError("authorization code is required"))
	}

	profile, err := h.authProvider.Exchange(ctx, h.redirectUrl(), input.Code)
	if err != nil {
		loginFailuresTotal.Inc()
		return logError(apperrors.NewUpstreamError("authentication with provider failed", err))
	}

	var member *domain.Member
	var created bool

	err = h.repository.Transaction(func(rp domain.Repository) error {
		m, isNew, err := rp.GetOrCreateMember(ctx, profile.Email, profile.Name)
		if err != nil {
			return err
		}
		if err := rp.SetMemberLastLogin(ctx, m.ID); err != nil {
			return err
		}
		member = m
		created = isNew
		return nil
	})
	if err != nil {
		loginFailuresTotal.Inc()
		return logError(apperrors.NewUpstreamError("unable to resolve member", err))
	}

	sessionToken, err := h.sessionIssuer.Sign(member.ID, member.Email)
	if err != nil {
		return logError(err)
	}

	if created {
		loginsTotal.WithLabelValues("new").Inc()
	} else {
		loginsTotal.WithLabelValues("existing").Inc()
	}

	return c.JSON(http.StatusOK, LoginResponse{
		Token:          sessionToken,
		Email:          member.Email,
		Name:           member.Name,
		IsExistingUser: !created,
	})
}

// Authorize redirects the browser to the provider's consent screen.
func (h *AuthenticationHandlers) Authorize(c echo.Context) error {
	state, err := createState()
	if err != nil {
		return logError(err)
	}

	redirectUrl := h.authProvider.GetLoginURL(h.redirectUrl(), state)

	return c.Redirect(http.StatusFound, redirectUrl)
}

// Logout only acknowledges: session tokens are stateless and there is no
// server-side session to invalidate.
func (h *AuthenticationHandlers) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthenticationHandlers) redirectUrl() string {
	if h.config.AuthProvider.RedirectUrl != "" {
		return h.config.AuthProvider.RedirectUrl
	}
	return h.config.CreateUrl("/auth/callback")
}

func createState() (string, error) {
	b, err := util.RandomBytes(16)
	if err != nil {
		return "", err
	}
	return base58.FastBase58Encoding(b), nil
}
