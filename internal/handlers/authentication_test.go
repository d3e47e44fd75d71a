package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jsiebens/memberd/internal/auth"
	"github.com/jsiebens/memberd/internal/config"
	"github.com/jsiebens/memberd/internal/domain"
	apperrors "github.com/jsiebens/memberd/internal/errors"
	"github.com/jsiebens/memberd/internal/token"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "6d656d626572642d746573742d736563726574"

type stubProvider struct {
	profile   *auth.Profile
	err       error
	exchanges int
}

func (s *stubProvider) GetLoginURL(redirectURI, state string) string {
	return fmt.Sprintf("https://provider.localtest.me/authorize?redirect_uri=%s&state=%s", redirectURI, state)
}

func (s *stubProvider) Exchange(ctx context.Context, redirectURI, code string) (*auth.Profile, error) {
	s.exchanges++
	if s.err != nil {
		return nil, s.err
	}
	return s.profile, nil
}

func newTestRepository(t *testing.T) domain.Repository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Member{}))
	return domain.NewRepository(db)
}

func newTestIssuer(t *testing.T) *token.Issuer {
	issuer, err := token.NewIssuer(testSecret, "https://memberd.localtest.me", time.Hour)
	require.NoError(t, err)
	return issuer
}

func newAuthenticationHandlers(t *testing.T, provider *stubProvider) (*AuthenticationHandlers, domain.Repository) {
	repository := newTestRepository(t)

	c := &config.Config{ServerUrl: "https://memberd.localtest.me"}
	h := NewAuthenticationHandlers(c, provider, newTestIssuer(t), repository)

	return h, repository
}

func postLogin(h *AuthenticationHandlers, body string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, h.Login(e.NewContext(req, rec))
}

func TestLoginWithoutCode(t *testing.T) {
	provider := &stubProvider{}
	h, _ := newAuthenticationHandlers(t, provider)

	_, err := postLogin(h, `{"code":""}`)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
	// no outbound call is made when validation fails
	assert.Equal(t, 0, provider.exchanges)
}

func TestLoginFirstTime(t *testing.T) {
	provider := &stubProvider{profile: &auth.Profile{Email: "jane@example.com", Name: "jane"}}
	h, repository := newAuthenticationHandlers(t, provider)

	rec, err := postLogin(h, `{"code":"valid-code"}`)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.False(t, resp.IsExistingUser)
	assert.Equal(t, "jane@example.com", resp.Email)
	assert.Equal(t, "jane", resp.Name)
	assert.NotEmpty(t, resp.Token)

	member, err := repository.GetMemberByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, member)
	assert.NotNil(t, member.LastLoginAt)

	identity, err := newTestIssuer(t).Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, member.ID, identity.MemberID)
	assert.Equal(t, "jane@example.com", identity.Email)
}

func TestLoginRepeat(t *testing.T) {
	provider := &stubProvider{profile: &auth.Profile{Email: "jane@example.com", Name: "jane"}}
	h, repository := newAuthenticationHandlers(t, provider)

	_, err := postLogin(h, `{"code":"valid-code"}`)
	require.NoError(t, err)

	first, err := repository.GetMemberByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)

	rec, err := postLogin(h, `{"code":"another-code"}`)
	require.NoError(t, err)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsExistingUser)

	identity, err := newTestIssuer(t).Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, first.ID, identity.MemberID)
}

func TestLoginProviderFailure(t *testing.T) {
	provider := &stubProvider{err: fmt.Errorf("invalid_grant")}
	h, repository := newAuthenticationHandlers(t, provider)

	_, err := postLogin(h, `{"code":"bogus"}`)
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstreamError(err))

	member, err := repository.GetMemberByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Nil(t, member)
}

func TestAuthorizeRedirect(t *testing.T) {
	provider := &stubProvider{}
	h, _ := newAuthenticationHandlers(t, provider)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/authorize", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Authorize(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusFound, rec.Code)

	location := rec.Header().Get(echo.HeaderLocation)
	assert.Contains(t, location, "https://provider.localtest.me/authorize")
	assert.Contains(t, location, "redirect_uri=https://memberd.localtest.me/auth/callback")
	assert.Contains(t, location, "state=")
}

func TestLogout(t *testing.T) {
	provider := &stubProvider{}
	h, _ := newAuthenticationHandlers(t, provider)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Logout(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}
