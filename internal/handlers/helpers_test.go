package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/collabdoor/collabdoor-api/internal/middleware"
	"github.com/collabdoor/collabdoor-api/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *services.JWTService {
	return services.NewJWTService("test-secret-key", 15*time.Minute, 24*time.Hour)
}

func generateTestToken(t *testing.T, jwtSvc *services.JWTService, userID uuid.UUID, email string) string {
	t.Helper()
	pair, err := jwtSvc.GenerateTokenPair(userID, email)
	require.NoError(t, err)
	return pair.AccessToken
}

// serve registers handler on route and performs one request against path.
// A nil jwtSvc leaves the route public. body may be nil.
func serve(t *testing.T, jwtSvc *services.JWTService, method, route string, handler drift.HandlerFunc, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	app := drift.New()
	app.Use(driftmw.BodyParser())
	if jwtSvc != nil {
		app.Use(middleware.Auth(jwtSvc))
	}
	switch method {
	case http.MethodGet:
		app.Get(route, handler)
	case http.MethodPost:
		app.Post(route, handler)
	case http.MethodPatch:
		app.Patch(route, handler)
	case http.MethodDelete:
		app.Delete(route, handler)
	default:
		t.Fatalf("unsupported method %s", method)
	}

	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}
