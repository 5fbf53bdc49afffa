package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/collabdoor/collabdoor-api/internal/logger"
	"github.com/collabdoor/collabdoor-api/internal/middleware"
	"github.com/collabdoor/collabdoor-api/internal/oauth"
	"github.com/collabdoor/collabdoor-api/internal/services"
	"github.com/collabdoor/collabdoor-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const exchangeTimeout = 30 * time.Second

// callbackPage bounces the browser from the provider callback to the frontend.
var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; background: #f4f6f5; color: #1f2d27; margin: 0; padding: 48px 16px; }
main { max-width: 420px; margin: 0 auto; background: #fff; border-radius: 10px; padding: 36px 28px; text-align: center; }
h1 { font-size: 19px; margin: 0 0 10px; }
h1.failed { color: #a4262c; }
</style>
</head>
<body>
<main>
<h1{{if .Failed}} class="failed"{{end}}>{{.Title}}</h1>
<p>{{.Detail}}</p>
<p><a href="{{.Next}}">Continue</a></p>
</main>
<script>window.location.replace({{.Next}});</script>
</body>
</html>`))

type callbackView struct {
	Title  string
	Detail string
	Next   string
	Failed bool
}

type AuthHandler struct {
	callbackURL    string
	providers      map[string]oauth.Provider
	userService    UserServiceInterface
	sessionService SessionServiceInterface
}

func NewAuthHandler(
	callbackURL string,
	providers map[string]oauth.Provider,
	userService UserServiceInterface,
	sessionService SessionServiceInterface,
) *AuthHandler {
	return &AuthHandler{
		callbackURL:    callbackURL,
		providers:      providers,
		userService:    userService,
		sessionService: sessionService,
	}
}

func (h *AuthHandler) GetConsentURL(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		c.BadRequest("unsupported provider: " + provider)
		return
	}

	state, err := h.sessionService.BeginLogin(c.Request.Context())
	if err != nil {
		c.InternalServerError("failed to generate state")
		return
	}

	_ = c.JSON(http.StatusOK, dto.ConsentURLResponse{
		URL: p.GetConsentURL(state),
	})
}

func (h *AuthHandler) Callback(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		h.redirectWithError(c, "unsupported provider")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), exchangeTimeout)
	defer cancel()

	if err := h.sessionService.ConsumeState(ctx, c.QueryParam("state")); err != nil {
		h.redirectWithError(c, "invalid or expired state")
		return
	}

	code := c.QueryParam("code")
	if code == "" {
		h.redirectWithError(c, "missing authorization code")
		return
	}

	userInfo, err := p.ExchangeCode(ctx, code)
	if err != nil {
		logger.Warn("oauth code exchange failed", "provider", provider, "error", err)
		h.redirectWithError(c, "failed to exchange code")
		return
	}

	user, err := h.userService.FindOrCreateFromOAuth(ctx, userInfo)
	if errors.Is(err, services.ErrEmailInUse) {
		h.redirectWithError(c, "email already used by another sign-in provider")
		return
	}
	if err != nil {
		logger.Error("failed to sign in user", "provider", provider, "error", err)
		h.redirectWithError(c, "failed to create user")
		return
	}

	authCode, err := h.sessionService.IssueAuthCode(ctx, user.ID)
	if err != nil {
		h.redirectWithError(c, "failed to generate auth code")
		return
	}

	h.finishLogin(c, url.Values{"code": {authCode}}, "")
}

func (h *AuthHandler) ExchangeCode(c *drift.Context) {
	var req dto.ExchangeCodeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Code == "" {
		c.BadRequest("code is required")
		return
	}

	pair, err := h.sessionService.ExchangeAuthCode(c.Request.Context(), req.Code)
	h.respondWithTokens(c, pair, err, "failed to generate tokens")
}

func (h *AuthHandler) RefreshToken(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.RefreshToken == "" {
		c.BadRequest("refresh_token is required")
		return
	}

	pair, err := h.sessionService.Refresh(c.Request.Context(), req.RefreshToken)
	h.respondWithTokens(c, pair, err, "failed to refresh tokens")
}

// Logout always succeeds for the client; a token that is already gone is fine.
func (h *AuthHandler) Logout(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if err := h.sessionService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		logger.Warn("failed to revoke refresh token on logout", "error", err)
	}
	_ = c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) LogoutAll(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.sessionService.LogoutAll(c.Request.Context(), userID); err != nil {
		logger.Error("failed to revoke sessions", "user_id", userID, "error", err)
		c.InternalServerError("failed to revoke tokens")
		return
	}
	_ = c.JSON(http.StatusOK, map[string]string{"message": "all sessions logged out"})
}

func (h *AuthHandler) respondWithTokens(c *drift.Context, pair *services.TokenPair, err error, failure string) {
	switch {
	case errors.Is(err, services.ErrInvalidAuthCode),
		errors.Is(err, services.ErrInvalidRefreshToken),
		errors.Is(err, services.ErrUserNotFound):
		c.Unauthorized(err.Error())
	case err != nil:
		logger.Error(failure, "error", err)
		c.InternalServerError(failure)
	default:
		_ = c.JSON(http.StatusOK, dto.TokenResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresIn:    pair.ExpiresIn,
		})
	}
}

func (h *AuthHandler) redirectWithError(c *drift.Context, errMsg string) {
	h.finishLogin(c, url.Values{"error": {errMsg}}, errMsg)
}

// finishLogin renders the hand-off page pointing at the frontend callback with
// query appended. A non-empty failure renders the error variant with a 400.
func (h *AuthHandler) finishLogin(c *drift.Context, query url.Values, failure string) {
	view := callbackView{
		Title:  "Signed in to CollabDoor",
		Detail: "Taking you back to CollabDoor...",
		Next:   h.callbackURL + "?" + query.Encode(),
	}
	status := http.StatusOK
	if failure != "" {
		view.Title = "Sign-in failed"
		view.Detail = failure
		view.Failed = true
		status = http.StatusBadRequest
	}

	var page strings.Builder
	if err := callbackPage.Execute(&page, view); err != nil {
		logger.Error("failed to render callback page", "error", err)
		c.InternalServerError("failed to render callback page")
		return
	}
	_ = c.HTML(status, page.String())
}
