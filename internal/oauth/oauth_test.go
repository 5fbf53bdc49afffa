package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/collabdoor/collabdoor-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestGenerateState(t *testing.T) {
	state1, err := GenerateState()
	assert.NoError(t, err)
	assert.NotEmpty(t, state1)

	state2, err := GenerateState()
	assert.NoError(t, err)

	assert.NotEqual(t, state1, state2)
	assert.Len(t, state1, 44)
}

func TestNewProviders_OnlyConfigured(t *testing.T) {
	cfg := &config.Config{
		GitHub: config.OAuthConfig{ClientID: "gh"},
		Google: config.OAuthConfig{ClientID: "g"},
	}

	providers := NewProviders(cfg)

	assert.Len(t, providers, 2)
	assert.Equal(t, "github", providers["github"].Name())
	assert.Equal(t, "google", providers["google"].Name())
	assert.NotContains(t, providers, "gitlab")
}

func TestProvider_GetConsentURL(t *testing.T) {
	tests := []struct {
		name string
		p    *provider
		host string
	}{
		{"github", newGitHub(config.OAuthConfig{ClientID: "test-client-id", RedirectURL: "http://localhost/callback"}), "github.com"},
		{"gitlab", newGitLab(config.OAuthConfig{ClientID: "test-client-id", RedirectURL: "http://localhost/callback"}), "gitlab.com"},
		{"google", newGoogle(config.OAuthConfig{ClientID: "test-client-id", RedirectURL: "http://localhost/callback"}), "google.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := tt.p.GetConsentURL("test-state")

			assert.Contains(t, url, tt.host)
			assert.Contains(t, url, "client_id=test-client-id")
			assert.Contains(t, url, "state=test-state")
			assert.Contains(t, url, "redirect_uri=http")
		})
	}
}

// fakeIdentityServer serves the token endpoint and the given API routes.
func fakeIdentityServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/token" {
			_, _ = w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer"}`))
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testProvider(srv *httptest.Server, name string, fetch profileFetcher) *provider {
	return &provider{
		name: name,
		config: &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:  srv.URL + "/authorize",
				TokenURL: srv.URL + "/token",
			},
		},
		apiBase: srv.URL,
		fetch:   fetch,
	}
}

func TestGitHub_ExchangeCode(t *testing.T) {
	srv := fakeIdentityServer(t, map[string]string{
		"/user": `{"id": 12345, "login": "testuser", "name": "Test User", "email": "test@example.com", "avatar_url": "https://avatars/1"}`,
	})
	p := testProvider(srv, "github", fetchGitHubProfile)

	info, err := p.ExchangeCode(context.Background(), "code")

	require.NoError(t, err)
	assert.Equal(t, "12345", info.ID)
	assert.Equal(t, "Test User", info.Name)
	assert.Equal(t, "test@example.com", info.Email)
	assert.Equal(t, "github", info.Provider)
}

func TestGitHub_ExchangeCode_EmailAndNameFallback(t *testing.T) {
	srv := fakeIdentityServer(t, map[string]string{
		"/user": `{"id": 7, "login": "testuser", "name": "", "email": ""}`,
		"/user/emails": `[
			{"email": "unverified@example.com", "primary": false, "verified": false},
			{"email": "private@example.com", "primary": true, "verified": true}
		]`,
	})
	p := testProvider(srv, "github", fetchGitHubProfile)

	info, err := p.ExchangeCode(context.Background(), "code")

	require.NoError(t, err)
	assert.Equal(t, "private@example.com", info.Email)
	assert.Equal(t, "testuser", info.Name)
}

func TestGitLab_ExchangeCode(t *testing.T) {
	srv := fakeIdentityServer(t, map[string]string{
		"/user": `{"id": 99, "username": "gl-user", "name": "", "email": "gl@example.com"}`,
	})
	p := testProvider(srv, "gitlab", fetchGitLabProfile)

	info, err := p.ExchangeCode(context.Background(), "code")

	require.NoError(t, err)
	assert.Equal(t, "99", info.ID)
	assert.Equal(t, "gl-user", info.Name)
	assert.Equal(t, "gitlab", info.Provider)
}

func TestGoogle_ExchangeCode(t *testing.T) {
	srv := fakeIdentityServer(t, map[string]string{
		"/userinfo": `{"id": "g-1", "email": "g@example.com", "name": "G User", "picture": "https://pic"}`,
	})
	p := testProvider(srv, "google", fetchGoogleProfile)

	info, err := p.ExchangeCode(context.Background(), "code")

	require.NoError(t, err)
	assert.Equal(t, "g-1", info.ID)
	assert.Equal(t, "https://pic", info.AvatarURL)
}

func TestExchangeCode_MissingEmail(t *testing.T) {
	srv := fakeIdentityServer(t, map[string]string{
		"/user": `{"id": 1, "username": "nomail"}`,
	})
	p := testProvider(srv, "gitlab", fetchGitLabProfile)

	_, err := p.ExchangeCode(context.Background(), "code")

	assert.ErrorContains(t, err, "no email address")
}

func TestExchangeCode_APIError(t *testing.T) {
	srv := fakeIdentityServer(t, map[string]string{})
	p := testProvider(srv, "google", fetchGoogleProfile)

	_, err := p.ExchangeCode(context.Background(), "code")

	assert.ErrorContains(t, err, "google api returned status 404")
}
