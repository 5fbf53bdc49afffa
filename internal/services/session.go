package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/collabdoor/collabdoor-api/internal/cache"
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/collabdoor/collabdoor-api/internal/oauth"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidState        = errors.New("invalid or expired state")
	ErrInvalidAuthCode     = errors.New("invalid or expired code")
	ErrInvalidRefreshToken = errors.New("refresh token not found or expired")
	ErrUserNotFound        = errors.New("user not found")
)

const (
	stateTTL    = 10 * time.Minute
	authCodeTTL = 30 * time.Second
)

type RefreshTokenStore interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ConsumeRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SessionService owns the sign-in lifecycle: OAuth state, one-time auth codes
// handed to the frontend, and rotating refresh tokens.
type SessionService struct {
	jwt    *JWTService
	tokens RefreshTokenStore
	users  UserLookup
	store  cache.QueryCache
	now    func() time.Time
}

func NewSessionService(jwt *JWTService, tokens RefreshTokenStore, users UserLookup, store cache.QueryCache) *SessionService {
	return &SessionService{
		jwt:    jwt,
		tokens: tokens,
		users:  users,
		store:  store,
		now:    time.Now,
	}
}

func (s *SessionService) BeginLogin(ctx context.Context) (string, error) {
	state, err := oauth.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	if err := s.store.SetJSONFor(ctx, cache.OAuthStateKey(state), true, stateTTL); err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}
	return state, nil
}

func (s *SessionService) ConsumeState(ctx context.Context, state string) error {
	if state == "" {
		return ErrInvalidState
	}
	var ok bool
	if err := s.store.Take(ctx, cache.OAuthStateKey(state), &ok); err != nil || !ok {
		return ErrInvalidState
	}
	return nil
}

// IssueAuthCode returns a short-lived single-use code the frontend trades for tokens.
func (s *SessionService) IssueAuthCode(ctx context.Context, userID uuid.UUID) (string, error) {
	code, err := oauth.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate auth code: %w", err)
	}
	if err := s.store.SetJSONFor(ctx, cache.AuthCodeKey(code), userID, authCodeTTL); err != nil {
		return "", fmt.Errorf("failed to store auth code: %w", err)
	}
	return code, nil
}

func (s *SessionService) ExchangeAuthCode(ctx context.Context, code string) (*TokenPair, error) {
	if code == "" {
		return nil, ErrInvalidAuthCode
	}
	var userID uuid.UUID
	if err := s.store.Take(ctx, cache.AuthCodeKey(code), &userID); err != nil {
		return nil, ErrInvalidAuthCode
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// Refresh rotates a refresh token: the presented one is consumed and a new
// pair issued. Replaying a consumed token fails.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	storedUserID, err := s.tokens.ConsumeRefreshToken(ctx, HashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if storedUserID != userID {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.RevokeRefreshToken(ctx, HashToken(refreshToken))
}

func (s *SessionService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return s.tokens.RevokeAllUserTokens(ctx, userID)
}

func (s *SessionService) issue(ctx context.Context, user *models.User) (*TokenPair, error) {
	pair, err := s.jwt.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	expiresAt := s.now().Add(s.jwt.RefreshExpiry())
	if err := s.tokens.StoreRefreshToken(ctx, user.ID, HashToken(pair.RefreshToken), expiresAt); err != nil {
		return nil, err
	}
	return pair, nil
}
