package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzliekkas/qiniustorage/config"
	"github.com/zzliekkas/qiniustorage/middleware"
	"github.com/zzliekkas/qiniustorage/server"
)

type echoRoutes struct{}

func (echoRoutes) Register(group *gin.RouterGroup) {
	group.GET("/*filename", func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("filename"))
	})
	group.POST("", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
}

func newServer(t *testing.T, configure func(*server.Config)) *server.Server {
	t.Helper()
	cfg := server.DefaultConfig()
	cfg.Mode = "test"
	if configure != nil {
		configure(&cfg)
	}
	logger, _ := test.NewNullLogger()
	return server.New(cfg, echoRoutes{}, nil, logger)
}

func do(s *server.Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestLoadConfig(t *testing.T) {
	r := config.NewConfig(config.WithSettings(map[string]interface{}{
		server.KeyPort:         "9000",
		server.KeyUploadPrefix: "api/uploads/",
		server.KeyCORSOrigins:  "https://a.example.com, https://b.example.com",
	}))

	cfg, err := server.LoadConfig(r)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, "/api/uploads", cfg.UploadPrefix)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, gin.DebugMode, cfg.GinMode())

	r = config.NewConfig(config.WithSettings(map[string]interface{}{server.KeyPort: 70000}))
	_, err = server.LoadConfig(r)
	assert.True(t, errors.Is(err, config.ErrConfiguration))
}

func TestUploadRoutesMountedUnderPrefix(t *testing.T) {
	s := newServer(t, nil)

	w := do(s, httptest.NewRequest(http.MethodGet, "/uploads/photo.jpg", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/photo.jpg", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = do(s, httptest.NewRequest(http.MethodPost, "/uploads", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestPreflight(t *testing.T) {
	s := newServer(t, func(cfg *server.Config) {
		cfg.JWTSecret = "secret"
	})

	req := httptest.NewRequest(http.MethodOptions, "/uploads", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := do(s, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestJWTProtectsUploadRoutes(t *testing.T) {
	s := newServer(t, func(cfg *server.Config) {
		cfg.JWTSecret = "secret"
	})

	w := do(s, httptest.NewRequest(http.MethodGet, "/uploads/photo.jpg", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := middleware.CreateTokenWithExp("qiniustorage", "tester", time.Minute, []byte("secret"))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/uploads/photo.jpg", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = do(s, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth(t *testing.T) {
	s := newServer(t, nil)
	s.Health().Register("database", func(ctx context.Context) error { return nil })

	w := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":{"status":"healthy"}`)

	s.Health().Register("storage", func(ctx context.Context) error { return errors.New("unreachable") })
	w = do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"unreachable"`)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := newServer(t, func(cfg *server.Config) {
		cfg.Host = "127.0.0.1"
		cfg.Port = 0
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("服务器未在超时内关闭")
	}
}
