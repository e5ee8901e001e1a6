package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/codementorx/internal/config"
    "github.com/iliyamo/codementorx/internal/utils"
)

func newRedis(t *testing.T) *redis.Client {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return rdb
}

func do(e *echo.Echo, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, nil)
    for k, v := range hdr {
        req.Header.Set(k, v)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuth(t *testing.T) {
    const secret = "s3cret"
    e := echo.New()
    e.GET("/me", func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{"uid": c.Get(UserIDKey)})
    }, JWTAuth(secret))

    good, err := utils.NewAccessToken(secret, 42, "alice", 15, time.Now())
    require.NoError(t, err)
    expired, err := utils.NewAccessToken(secret, 42, "alice", 15, time.Now().Add(-time.Hour))
    require.NoError(t, err)
    forged, err := utils.NewAccessToken("other", 42, "alice", 15, time.Now())
    require.NoError(t, err)

    rec := do(e, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + good.Token})
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"uid":42}`, rec.Body.String())

    for name, hdr := range map[string]string{
        "missing": "",
        "basic":   "Basic abc",
        "expired": "Bearer " + expired.Token,
        "forged":  "Bearer " + forged.Token,
        "garbage": "Bearer not-a-jwt",
    } {
        rec := do(e, http.MethodGet, "/me", map[string]string{"Authorization": hdr})
        assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
    }
}

func TestTokenBucket_BlocksWhenEmpty(t *testing.T) {
    rdb := newRedis(t)
    cfg := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: time.Minute,
        TTL:            10 * time.Minute,
        KeyStrategy:    "ip_route",
        Prefix:         "rl",
    }
    e := echo.New()
    e.POST("/login/", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, rdb, nil))

    for i := 0; i < 2; i++ {
        rec := do(e, http.MethodPost, "/login/", nil)
        require.Equal(t, http.StatusOK, rec.Code)
        assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
    }
    rec := do(e, http.MethodPost, "/login/", nil)
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.NotEmpty(t, rec.Header().Get("Retry-After"))

    // another client address has its own bucket
    rec = do(e, http.MethodPost, "/login/", map[string]string{"X-Real-IP": "10.0.0.9"})
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenBucket_DisabledWithoutRedis(t *testing.T) {
    cfg := config.RateLimitConfig{Enabled: true, Capacity: 1}
    e := echo.New()
    e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, nil, nil))
    for i := 0; i < 3; i++ {
        assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", nil).Code)
    }
}

func TestBuildRateKey(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/signup/", nil)
    req.Header.Set("X-Real-IP", "1.2.3.4")
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/signup/")

    assert.Equal(t, "rl:ip:1.2.3.4:route:POST /signup/", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}, c))
    assert.Equal(t, "rl:user:anon", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
    c.Set(UserIDKey, uint64(7))
    assert.Equal(t, "rl:user:7", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
}

func TestRedisCache_ScopedPerUser(t *testing.T) {
    rdb := newRedis(t)
    cfg := config.CacheConfig{
        Enabled:      true,
        Methods:      map[string]bool{http.MethodGet: true},
        TTL:          time.Minute,
        KeyStrategy:  "user_route",
        Prefix:       "cache",
        MaxBodyBytes: 65536,
    }
    calls := 0
    asUser := func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if u := c.Request().Header.Get("X-Test-User"); u == "2" {
                c.Set(UserIDKey, uint64(2))
            } else {
                c.Set(UserIDKey, uint64(1))
            }
            return next(c)
        }
    }
    e := echo.New()
    e.GET("/user-profile/", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, echo.Map{"uid": c.Get(UserIDKey)})
    }, asUser, NewRedisCache(cfg, rdb))

    rec := do(e, http.MethodGet, "/user-profile/", nil)
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    rec = do(e, http.MethodGet, "/user-profile/", nil)
    assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
    assert.JSONEq(t, `{"uid":1}`, rec.Body.String())
    assert.Equal(t, 1, calls)

    rec = do(e, http.MethodGet, "/user-profile/", map[string]string{"X-Test-User": "2"})
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    assert.JSONEq(t, `{"uid":2}`, rec.Body.String())
    assert.Equal(t, 2, calls)
}

func TestPayloadRoundTrip(t *testing.T) {
    hdr := http.Header{"Content-Type": {"application/json"}}
    bs, err := encodePayload(201, hdr, []byte(`{"a":1}`))
    require.NoError(t, err)
    status, got, body, ok := decodePayload(bs)
    require.True(t, ok)
    assert.Equal(t, 201, status)
    assert.Equal(t, hdr, got)
    assert.Equal(t, `{"a":1}`, string(body))

    _, _, _, ok = decodePayload([]byte{0, 1})
    assert.False(t, ok)
}
