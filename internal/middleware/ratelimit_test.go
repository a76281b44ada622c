package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
)

// testLimiter returns a limiter on a clock the test controls.
func testLimiter(t *testing.T, defaultLimit int, exempt func(*models.APIKey) bool) (*RateLimiter, *time.Time) {
	t.Helper()
	rl := NewRateLimiter(defaultLimit, exempt)
	t.Cleanup(rl.Stop)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllowConsumesAndRefills(t *testing.T) {
	rl, now := testLimiter(t, 10, nil)

	for i := 0; i < 3; i++ {
		res := rl.allow("key:a", 3)
		assert.True(t, res.allowed, "request %d", i+1)
		assert.Equal(t, float64(2-i), res.remaining)
		assert.Equal(t, float64(3), res.limit)
	}
	assert.False(t, rl.allow("key:a", 3).allowed)

	// Other callers have their own bucket
	assert.True(t, rl.allow("key:b", 3).allowed)

	// 3 per hour = one token every 20 minutes
	*now = now.Add(21 * time.Minute)
	assert.True(t, rl.allow("key:a", 3).allowed)
	assert.False(t, rl.allow("key:a", 3).allowed)
}

func TestAllowResetsOnLimitChange(t *testing.T) {
	rl, _ := testLimiter(t, 10, nil)

	assert.True(t, rl.allow("key:a", 1).allowed)
	assert.False(t, rl.allow("key:a", 1).allowed)

	res := rl.allow("key:a", 5)
	assert.True(t, res.allowed)
	assert.Equal(t, float64(4), res.remaining)
}

func TestSweepDropsIdleBuckets(t *testing.T) {
	rl, now := testLimiter(t, 10, nil)
	rl.allow("key:a", 5)

	*now = now.Add(30 * time.Minute)
	rl.allow("key:b", 5)

	*now = now.Add(45 * time.Minute)
	rl.sweep()

	assert.NotContains(t, rl.buckets, "key:a")
	assert.Contains(t, rl.buckets, "key:b")
}

// limited serves GET / behind RateLimit with identity injected directly.
func limited(rl *RateLimiter, key *models.APIKey, user *models.User) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		if key != nil {
			c.Set(string(apiKeyContextKey), key)
		}
		if user != nil {
			c.Set(userContextKey, user)
		}
	}, rl.RateLimit(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	owner := &models.APIKey{ID: "owner", RateLimit: 1}
	rl, _ := testLimiter(t, 2, func(k *models.APIKey) bool { return k.ID == "owner" })

	t.Run("api key", func(t *testing.T) {
		key := &models.APIKey{ID: "k1", RateLimit: 1}

		w := limited(rl, key, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

		w = limited(rl, key, nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
	})

	t.Run("jwt user gets default limit", func(t *testing.T) {
		user := &models.User{ID: "u1"}
		assert.Equal(t, http.StatusNoContent, limited(rl, nil, user).Code)
		assert.Equal(t, http.StatusNoContent, limited(rl, nil, user).Code)
		w := limited(rl, nil, user)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("key without limit gets default", func(t *testing.T) {
		w := limited(rl, &models.APIKey{ID: "k2"}, nil)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("owner is exempt", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			w := limited(rl, owner, nil)
			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
		}
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, limited(rl, nil, nil).Code)
	})
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(10, nil)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)

	select {
	case <-rl.done:
	default:
		t.Fatal("done channel still open after Stop")
	}
}
