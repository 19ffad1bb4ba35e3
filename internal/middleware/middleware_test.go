package middleware

import (
    "net/http"
    "net/http/httptest"
    "strconv"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/planetarium-reservation/internal/config"
    "github.com/iliyamo/planetarium-reservation/internal/utils"
)

const secret = "test-secret"

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return mr, rdb
}

func do(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, nil)
    if token != "" {
        req.Header.Set("Authorization", "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func whoami(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"user_id": c.Get(ContextUserID), "role": c.Get(ContextRole)})
}

func TestJWTAuth(t *testing.T) {
    e := echo.New()
    e.GET("/me", whoami, JWTAuth(secret))

    rec := do(e, http.MethodGet, "/me", "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    tok, err := utils.NewAccessToken(secret, 42, "CUSTOMER", 5)
    require.NoError(t, err)
    rec = do(e, http.MethodGet, "/me", tok.Token)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"user_id":42,"role":"CUSTOMER"}`, rec.Body.String())

    wrong, err := utils.NewAccessToken("other", 42, "CUSTOMER", 5)
    require.NoError(t, err)
    assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", wrong.Token).Code)

    expired, err := utils.NewAccessToken(secret, 42, "CUSTOMER", -5)
    require.NoError(t, err)
    assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", expired.Token).Code)

    // numeric subjects are not issued by this service
    numeric := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "sub": 42, "role": "CUSTOMER", "exp": time.Now().Add(time.Minute).Unix(),
    })
    raw, err := numeric.SignedString([]byte(secret))
    require.NoError(t, err)
    assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", raw).Code)
}

func TestRequireRole(t *testing.T) {
    e := echo.New()
    e.GET("/admin", whoami, JWTAuth(secret), RequireRole("ADMIN"))

    customer, _ := utils.NewAccessToken(secret, 1, "CUSTOMER", 5)
    admin, _ := utils.NewAccessToken(secret, 2, "ADMIN", 5)
    assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/admin", customer.Token).Code)
    assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/admin", admin.Token).Code)
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.RateLimitConfig{
        Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
        TTL: 2 * time.Hour, KeyStrategy: "user_route", Prefix: "rl",
    }
    e := echo.New()
    e.POST("/v1/tickets", whoami, JWTAuth(secret), NewTokenBucket(cfg, rdb, nil))
    tok, _ := utils.NewAccessToken(secret, 7, "CUSTOMER", 5)

    first := do(e, http.MethodPost, "/v1/tickets", tok.Token)
    require.Equal(t, http.StatusOK, first.Code)
    assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
    assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

    assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/v1/tickets", tok.Token).Code)
    blocked := do(e, http.MethodPost, "/v1/tickets", tok.Token)
    assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
    retry, err := strconv.Atoi(blocked.Header().Get("Retry-After"))
    require.NoError(t, err)
    assert.Positive(t, retry)

    // another user has an independent bucket
    other, _ := utils.NewAccessToken(secret, 8, "CUSTOMER", 5)
    assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/v1/tickets", other.Token).Code)
}

func TestTokenBucketFailsOpen(t *testing.T) {
    mr, rdb := newRedis(t)
    mr.Close()
    cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour, TTL: time.Hour, Prefix: "rl"}
    e := echo.New()
    e.POST("/x", whoami, NewTokenBucket(cfg, rdb, nil))
    assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/x", "").Code)
    assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/x", "").Code)
}

func TestRedisCache(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.CacheConfig{
        Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute,
        KeyStrategy: "route_query", Prefix: "cache", MaxBodyBytes: 1 << 10,
    }
    calls := 0
    e := echo.New()
    e.GET("/v1/show_themes", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, echo.Map{"calls": calls})
    }, NewRedisCache(cfg, rdb, nil))

    first := do(e, http.MethodGet, "/v1/show_themes", "")
    assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
    second := do(e, http.MethodGet, "/v1/show_themes", "")
    assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
    assert.JSONEq(t, first.Body.String(), second.Body.String())
    assert.Equal(t, 1, calls)
    assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))

    third := do(e, http.MethodGet, "/v1/show_themes?x=1", "")
    assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
    assert.Equal(t, 2, calls)
}

func TestRedisCacheSkipsOversizedAndErrors(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 8}
    calls := 0
    e := echo.New()
    e.GET("/big", func(c echo.Context) error {
        calls++
        return c.String(http.StatusOK, "this body is longer than eight bytes")
    }, NewRedisCache(cfg, rdb, nil))
    e.GET("/missing", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusNotFound, echo.Map{"error": "nope"})
    }, NewRedisCache(cfg, rdb, nil))

    for range 2 {
        rec := do(e, http.MethodGet, "/big", "")
        assert.Equal(t, "this body is longer than eight bytes", rec.Body.String())
        assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
        do(e, http.MethodGet, "/missing", "")
    }
    assert.Equal(t, 4, calls)
}
