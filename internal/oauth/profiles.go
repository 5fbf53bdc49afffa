package oauth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/collabdoor/collabdoor-api/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

var gitlabEndpoint = oauth2.Endpoint{
	AuthURL:  "https://gitlab.com/oauth/authorize",
	TokenURL: "https://gitlab.com/oauth/token",
}

func newGitHub(cfg config.OAuthConfig) *provider {
	return &provider{
		name:    "github",
		config:  oauthConfig(cfg, github.Endpoint, "user:email", "read:user"),
		apiBase: "https://api.github.com",
		fetch:   fetchGitHubProfile,
	}
}

func newGitLab(cfg config.OAuthConfig) *provider {
	return &provider{
		name:    "gitlab",
		config:  oauthConfig(cfg, gitlabEndpoint, "read_user"),
		apiBase: "https://gitlab.com/api/v4",
		fetch:   fetchGitLabProfile,
	}
}

func newGoogle(cfg config.OAuthConfig) *provider {
	return &provider{
		name: "google",
		config: oauthConfig(cfg, google.Endpoint,
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		),
		apiBase: "https://www.googleapis.com/oauth2/v2",
		fetch:   fetchGoogleProfile,
	}
}

func fetchGitHubProfile(ctx context.Context, client *http.Client, apiBase string) (*UserInfo, error) {
	var u struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, client, apiBase+"/user", "github", &u); err != nil {
		return nil, err
	}

	email := u.Email
	if email == "" {
		var err error
		if email, err = githubPrimaryEmail(ctx, client, apiBase); err != nil {
			return nil, err
		}
	}

	name := u.Name
	if name == "" {
		name = u.Login
	}

	return &UserInfo{
		Email:     email,
		Name:      name,
		AvatarURL: u.AvatarURL,
		ID:        strconv.FormatInt(u.ID, 10),
	}, nil
}

// githubPrimaryEmail prefers the primary verified address, then any verified one.
func githubPrimaryEmail(ctx context.Context, client *http.Client, apiBase string) (string, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(ctx, client, apiBase+"/user/emails", "github", &emails); err != nil {
		return "", err
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}
	return "", fmt.Errorf("no email found")
}

func fetchGitLabProfile(ctx context.Context, client *http.Client, apiBase string) (*UserInfo, error) {
	var u struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, client, apiBase+"/user", "gitlab", &u); err != nil {
		return nil, err
	}

	name := u.Name
	if name == "" {
		name = u.Username
	}

	return &UserInfo{
		Email:     u.Email,
		Name:      name,
		AvatarURL: u.AvatarURL,
		ID:        strconv.FormatInt(u.ID, 10),
	}, nil
}

func fetchGoogleProfile(ctx context.Context, client *http.Client, apiBase string) (*UserInfo, error) {
	var u struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := getJSON(ctx, client, apiBase+"/userinfo", "google", &u); err != nil {
		return nil, err
	}

	return &UserInfo{
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.Picture,
		ID:        u.ID,
	}, nil
}
