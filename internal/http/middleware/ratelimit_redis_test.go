package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

func newLimiter(t *testing.T) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimiter(client), mr
}

func do(r http.Handler, path string) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w.Code
}

func TestPerIPBlocksAfterLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, mr := newLimiter(t)

	r := gin.New()
	r.GET("/test", rl.PerIP(2, time.Minute), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		if code := do(r, "/test"); code != 200 {
			t.Fatalf("request %d: expected 200 got %d", i, code)
		}
	}
	if code := do(r, "/test"); code != 429 {
		t.Fatalf("expected 429 got %d", code)
	}

	mr.FastForward(time.Minute + time.Second)
	if code := do(r, "/test"); code != 200 {
		t.Fatalf("after window: expected 200 got %d", code)
	}
}

func TestPerUserKeysByUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, _ := newLimiter(t)

	r := gin.New()
	r.GET("/spin/:uid", func(c *gin.Context) {
		if c.Param("uid") == "1" {
			c.Set("user_id", int64(1))
		} else {
			c.Set("user_id", int64(2))
		}
	}, rl.PerUser("spin", 1, time.Minute), func(c *gin.Context) {
		c.Status(200)
	})

	if code := do(r, "/spin/1"); code != 200 {
		t.Fatalf("user 1 first: %d", code)
	}
	if code := do(r, "/spin/1"); code != 429 {
		t.Fatalf("user 1 second: %d", code)
	}
	if code := do(r, "/spin/2"); code != 200 {
		t.Fatalf("user 2 first: %d", code)
	}
}

func TestPerUserRequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, _ := newLimiter(t)

	r := gin.New()
	r.GET("/x", rl.PerUser("spin", 1, time.Minute), func(c *gin.Context) { c.Status(200) })
	if code := do(r, "/x"); code != 401 {
		t.Fatalf("expected 401 got %d", code)
	}
}

func TestLimiterFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/nil", NewRateLimiter(nil).PerIP(0, time.Minute), func(c *gin.Context) { c.Status(200) })
	if code := do(r, "/nil"); code != 200 {
		t.Fatalf("nil client: %d", code)
	}

	rl, mr := newLimiter(t)
	mr.Close()
	r.GET("/down", rl.PerIP(0, time.Minute), func(c *gin.Context) { c.Status(200) })
	if code := do(r, "/down"); code != 200 {
		t.Fatalf("redis down: %d", code)
	}
}
