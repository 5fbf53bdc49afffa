// Package oauth signs users in through third-party identity providers.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/collabdoor/collabdoor-api/internal/config"
	"golang.org/x/oauth2"
)

type UserInfo struct {
	Email     string
	Name      string
	AvatarURL string
	ID        string
	Provider  string
}

type Provider interface {
	GetConsentURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*UserInfo, error)
	Name() string
}

// profileFetcher turns an authenticated client into the signed-in user's profile.
type profileFetcher func(ctx context.Context, client *http.Client, apiBase string) (*UserInfo, error)

type provider struct {
	name    string
	config  *oauth2.Config
	apiBase string
	fetch   profileFetcher
}

func (p *provider) Name() string {
	return p.name
}

func (p *provider) GetConsentURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (p *provider) ExchangeCode(ctx context.Context, code string) (*UserInfo, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	info, err := p.fetch(ctx, p.config.Client(ctx, token), p.apiBase)
	if err != nil {
		return nil, err
	}
	info.Provider = p.name
	if info.Email == "" {
		return nil, fmt.Errorf("%s account has no email address", p.name)
	}
	return info, nil
}

// NewProviders builds every provider that has a client ID configured.
func NewProviders(cfg *config.Config) map[string]Provider {
	out := make(map[string]Provider)
	if cfg.GitHub.ClientID != "" {
		out["github"] = newGitHub(cfg.GitHub)
	}
	if cfg.GitLab.ClientID != "" {
		out["gitlab"] = newGitLab(cfg.GitLab)
	}
	if cfg.Google.ClientID != "" {
		out["google"] = newGoogle(cfg.Google)
	}
	return out
}

func oauthConfig(cfg config.OAuthConfig, endpoint oauth2.Endpoint, scopes ...string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       scopes,
		Endpoint:     endpoint,
	}
}

func getJSON(ctx context.Context, client *http.Client, url, providerName string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get user info: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s api returned status %d", providerName, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode user info: %w", err)
	}
	return nil
}

func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
