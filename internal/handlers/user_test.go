package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/collabdoor/collabdoor-api/internal/services"
	"github.com/collabdoor/collabdoor-api/pkg/dto"
	"github.com/collabdoor/collabdoor-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_GetMe(t *testing.T) {
	callerID := uuid.New()
	avatar := "https://avatars.collabdoor.test/maker.png"
	maker := &models.User{ID: callerID, Email: "maker@collabdoor.test", Name: "Maker", AvatarURL: &avatar, Provider: "github"}

	tests := []struct {
		name     string
		anon     bool
		found    *models.User
		err      error
		wantCode int
	}{
		{name: "profile", found: maker, wantCode: http.StatusOK},
		{name: "anonymous", anon: true, wantCode: http.StatusUnauthorized},
		{name: "deleted account", err: services.ErrUserNotFound, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(testutil.MockUserService)
			handler := NewUserHandler(users, new(testutil.MockReviewService))
			jwtSvc := newTestJWTService()

			token := ""
			if !tt.anon {
				token = generateTestToken(t, jwtSvc, callerID, "maker@collabdoor.test")
				users.On("GetByID", mock.Anything, callerID).Return(tt.found, tt.err)
			}

			rec := serve(t, jwtSvc, http.MethodGet, "/users/me", handler.GetMe, "/users/me", token, nil)

			require.Equal(t, tt.wantCode, rec.Code)
			users.AssertExpectations(t)
			if tt.wantCode != http.StatusOK {
				return
			}
			var got dto.UserResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, callerID, got.ID)
			assert.Equal(t, "Maker", got.Name)
			assert.Equal(t, &avatar, got.AvatarURL)
			assert.Equal(t, "github", got.Provider)
		})
	}
}

func TestUserHandler_UpdateMe(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		stored   string
		err      error
		wantCode int
	}{
		{name: "trims name", body: "  Riverside Makers  ", stored: "Riverside Makers", wantCode: http.StatusOK},
		{name: "blank name", body: "   ", wantCode: http.StatusBadRequest},
		{name: "store failure", body: "Riverside", stored: "Riverside", err: errors.New("db down"), wantCode: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(testutil.MockUserService)
			handler := NewUserHandler(users, new(testutil.MockReviewService))
			jwtSvc := newTestJWTService()
			callerID := uuid.New()

			if tt.stored != "" {
				var updated *models.User
				if tt.err == nil {
					updated = &models.User{ID: callerID, Name: tt.stored, Provider: "github"}
				}
				users.On("Update", mock.Anything, callerID, tt.stored).Return(updated, tt.err)
			}

			token := generateTestToken(t, jwtSvc, callerID, "maker@collabdoor.test")
			rec := serve(t, jwtSvc, http.MethodPatch, "/users/me", handler.UpdateMe, "/users/me", token,
				dto.UpdateUserRequest{Name: tt.body})

			assert.Equal(t, tt.wantCode, rec.Code)
			users.AssertExpectations(t)
			if tt.stored == "" {
				users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestUserHandler_Reviews(t *testing.T) {
	reviews := new(testutil.MockReviewService)
	handler := NewUserHandler(new(testutil.MockUserService), reviews)
	jwtSvc := newTestJWTService()

	subjectID := uuid.New()
	comment := "showed up every weekend"
	reviews.On("Summary", mock.Anything, subjectID).
		Return(&models.ReviewSummary{UserID: subjectID, Count: 2, AverageRating: 4.5}, nil)
	reviews.On("ListForUser", mock.Anything, subjectID).Return([]models.Review{
		{ID: uuid.New(), RevieweeID: subjectID, Rating: 5, Comment: &comment},
		{ID: uuid.New(), RevieweeID: subjectID, Rating: 4},
	}, nil)

	token := generateTestToken(t, jwtSvc, uuid.New(), "viewer@collabdoor.test")
	rec := serve(t, jwtSvc, http.MethodGet, "/users/:id/reviews", handler.Reviews,
		"/users/"+subjectID.String()+"/reviews", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got dto.UserReviewsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, subjectID, got.UserID)
	assert.Equal(t, 2, got.Count)
	assert.InDelta(t, 4.5, got.AverageRating, 0.001)
	assert.Len(t, got.Reviews, 2)
	reviews.AssertExpectations(t)

	rec = serve(t, jwtSvc, http.MethodGet, "/users/:id/reviews", handler.Reviews, "/users/not-a-uuid/reviews", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
