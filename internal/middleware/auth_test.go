package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
)

const testSecret = "test-secret"

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu       sync.Mutex
	keys     map[string]*models.APIKey // by hash
	users    map[string]*models.User
	lastUsed chan string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		keys:     map[string]*models.APIKey{},
		users:    map[string]*models.User{},
		lastUsed: make(chan string, 8),
	}
}

func (s *fakeStore) GetAPIKeyByHash(_ context.Context, hash string) (*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k, ok := s.keys[hash]; ok && k.Active {
		return k, nil
	}
	return nil, errors.New("not found")
}

func (s *fakeStore) UpdateAPIKeyLastUsed(_ context.Context, id string) error {
	s.lastUsed <- id
	return nil
}

func (s *fakeStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func init() {
	gin.SetMode(gin.TestMode)
}

// whoami runs mw and reports which identity the request carried.
func whoami(mw gin.HandlerFunc, header map[string]string) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/", mw, func(c *gin.Context) {
		resp := gin.H{}
		if k := GetAPIKey(c); k != nil {
			resp["key"] = k.ID
		}
		if u := GetUser(c); u != nil {
			resp["user"] = u.ID
		}
		c.JSON(http.StatusOK, resp)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seededStore(t *testing.T) (*fakeStore, string) {
	t.Helper()
	store := newFakeStore()
	store.keys[HashAPIKey("pdf_live_key")] = &models.APIKey{ID: "key-1", Active: true, RateLimit: 100}
	store.keys[HashAPIKey("pdf_revoked")] = &models.APIKey{ID: "key-2", Active: false}
	user := &models.User{ID: "user-1", Email: "a@example.com"}
	store.users[user.ID] = user

	token, err := GenerateJWT(user, testSecret)
	require.NoError(t, err)
	return store, token
}

func TestHashAPIKey(t *testing.T) {
	// Same input always produces same output
	assert.Equal(t, HashAPIKey("pdf_determinism"), HashAPIKey("pdf_determinism"))
	assert.NotEqual(t, HashAPIKey("pdf_key_one"), HashAPIKey("pdf_key_two"))
	// 256 bits = 64 hex chars
	assert.Len(t, HashAPIKey("pdf_any_key"), 64)
	// SHA-256 of the empty string
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashAPIKey(""))
}

func TestDualAuth(t *testing.T) {
	store, token := seededStore(t)
	mw := DualAuth(store, testSecret)

	t.Run("api key", func(t *testing.T) {
		w := whoami(mw, map[string]string{"X-API-Key": "pdf_live_key"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"key":"key-1"}`, w.Body.String())

		select {
		case id := <-store.lastUsed:
			assert.Equal(t, "key-1", id)
		case <-time.After(time.Second):
			t.Fatal("last_used_at was not updated")
		}
	})

	t.Run("bearer token", func(t *testing.T) {
		w := whoami(mw, map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user":"user-1"}`, w.Body.String())
	})

	t.Run("bad key falls back to token", func(t *testing.T) {
		w := whoami(mw, map[string]string{"X-API-Key": "pdf_wrong", "Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user":"user-1"}`, w.Body.String())
	})

	tests := []struct {
		name   string
		header map[string]string
	}{
		{"nothing", nil},
		{"revoked key", map[string]string{"X-API-Key": "pdf_revoked"}},
		{"wrong secret", map[string]string{"Authorization": "Bearer " + mustSign(t, jwt.SigningMethodHS256, "other", time.Hour)}},
		{"expired", map[string]string{"Authorization": "Bearer " + mustSign(t, jwt.SigningMethodHS256, testSecret, -time.Hour)}},
		{"not bearer", map[string]string{"Authorization": "Basic " + token}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := whoami(mw, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "unauthorized")
		})
	}
}

func TestJWTAuthRejectsAPIKey(t *testing.T) {
	store, token := seededStore(t)
	mw := JWTAuth(store, testSecret)

	w := whoami(mw, map[string]string{"X-API-Key": "pdf_live_key"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = whoami(mw, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthUnknownUser(t *testing.T) {
	store := newFakeStore()
	token, err := GenerateJWT(&models.User{ID: "gone"}, testSecret)
	require.NoError(t, err)

	w := whoami(JWTAuth(store, testSecret), map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestParseJWT(t *testing.T) {
	token, err := GenerateJWT(&models.User{ID: "u1", Email: "u1@example.com"}, testSecret)
	require.NoError(t, err)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.Equal(t, "u1", claims.Subject)

	// Same secret, different HMAC algorithm
	_, err = ParseJWT(mustSign(t, jwt.SigningMethodHS384, testSecret, time.Hour), testSecret)
	assert.Error(t, err)

	_, err = ParseJWT("not-a-token", testSecret)
	assert.Error(t, err)
}

func mustSign(t *testing.T, method jwt.SigningMethod, secret string, ttl time.Duration) string {
	t.Helper()
	claims := JWTClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestIsOwnerAPIKey(t *testing.T) {
	key := &models.APIKey{ID: "id-1", KeyPrefix: "pdf_abcd..."}

	assert.False(t, IsOwnerAPIKey(nil, "id-1", ""))
	assert.False(t, IsOwnerAPIKey(key, "", ""))
	assert.False(t, IsOwnerAPIKey(key, "", "..."))
	assert.True(t, IsOwnerAPIKey(key, "id-1", ""))
	assert.True(t, IsOwnerAPIKey(key, "", "pdf_abcd"))
	assert.True(t, IsOwnerAPIKey(key, "", "pdf_abcd..."))
	assert.False(t, IsOwnerAPIKey(key, "id-2", "pdf_zzzz"))
}
