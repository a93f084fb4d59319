package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzliekkas/qiniustorage/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(middleware.RequestIDKey))
	})

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/ping", nil))
	id := w.Header().Get(middleware.RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	w = serve(engine, req)
	assert.Equal(t, "abc-123", w.Header().Get(middleware.RequestIDHeader))
}

func TestLoggerLevels(t *testing.T) {
	logger, hook := test.NewNullLogger()
	engine := gin.New()
	engine.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Output:    logger,
		SkipPaths: []string{"/healthz"},
	}))
	engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	engine.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(engine, httptest.NewRequest(http.MethodGet, "/ok?x=1", nil))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "/ok?x=1", hook.LastEntry().Data["path"])

	serve(engine, httptest.NewRequest(http.MethodGet, "/bad", nil))
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	serve(engine, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, http.StatusBadGateway, hook.LastEntry().Data["status"])

	hook.Reset()
	serve(engine, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, hook.AllEntries())
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	engine := gin.New()
	engine.Use(middleware.Recovery(logger))
	engine.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":500,"message":"内部服务器错误"}`, w.Body.String())
	assert.Contains(t, buf.String(), "boom")
}

func TestCORS(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.CORS("https://app.example.com"))
	engine.GET("/uploads/a.jpg", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("预检请求", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/uploads/a.jpg", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "GET")
		w := serve(engine, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("不允许的来源", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/uploads/a.jpg", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", "GET")
		w := serve(engine, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("实际请求", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/uploads/a.jpg", nil)
		req.Header.Set("Origin", "https://APP.example.com")
		w := serve(engine, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://APP.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, middleware.RequestIDHeader, w.Header().Get("Access-Control-Expose-Headers"))
	})
}

func TestJWT(t *testing.T) {
	key := []byte("secret")
	engine := gin.New()
	engine.Use(middleware.JWT(key))
	engine.GET("/me", func(c *gin.Context) {
		claims, ok := middleware.Claims(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.Subject)
	})

	request := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return serve(engine, req)
	}

	token, err := middleware.CreateTokenWithExp("qiniustorage", "alice", time.Hour, key)
	require.NoError(t, err)
	w := request(token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	w = request("")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), middleware.ErrJWTTokenMissing.Error())

	expired, err := middleware.CreateTokenWithExp("qiniustorage", "alice", -time.Minute, key)
	require.NoError(t, err)
	w = request(expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), middleware.ErrJWTTokenExpired.Error())

	forged, err := middleware.CreateTokenWithExp("qiniustorage", "alice", time.Hour, []byte("other"))
	require.NoError(t, err)
	w = request(forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), middleware.ErrJWTTokenInvalid.Error())

	none, err := middleware.CreateToken(jwt.RegisteredClaims{Subject: "alice"}, jwt.UnsafeAllowNoneSignatureType, jwt.SigningMethodNone)
	require.NoError(t, err)
	w = request(none)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
