package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/collabdoor/collabdoor-api/internal/services"
)

// TestJWTService signs tokens accepted by routers built with the same service.
func TestJWTService() *services.JWTService {
	return services.NewJWTService("test-secret-key-for-testing-only", 15*time.Minute, 24*time.Hour)
}

// APIClient drives an http.Handler in process. The zero caller is anonymous.
type APIClient struct {
	t       *testing.T
	handler http.Handler
	jwt     *services.JWTService
	token   string
}

func NewAPIClient(t *testing.T, handler http.Handler, jwt *services.JWTService) *APIClient {
	return &APIClient{t: t, handler: handler, jwt: jwt}
}

// As returns a client that authenticates every request as user.
func (c *APIClient) As(user *models.User) *APIClient {
	c.t.Helper()
	pair, err := c.jwt.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		c.t.Fatalf("failed to sign token for %s: %v", user.Email, err)
	}
	next := *c
	next.token = pair.AccessToken
	return &next
}

func (c *APIClient) Do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("failed to encode %s %s body: %v", method, path, err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func (c *APIClient) Get(path string) *httptest.ResponseRecorder {
	return c.Do(http.MethodGet, path, nil)
}

func (c *APIClient) Post(path string, body any) *httptest.ResponseRecorder {
	return c.Do(http.MethodPost, path, body)
}

func (c *APIClient) Patch(path string, body any) *httptest.ResponseRecorder {
	return c.Do(http.MethodPatch, path, body)
}

func (c *APIClient) Delete(path string) *httptest.ResponseRecorder {
	return c.Do(http.MethodDelete, path, nil)
}

// Expect fails the test unless rec has the given status, then decodes the body
// into out when out is non-nil.
func Expect(t *testing.T, rec *httptest.ResponseRecorder, status int, out any) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	if out == nil {
		return
	}
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response: %v: %s", err, rec.Body.String())
	}
}
