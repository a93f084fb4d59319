package server

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zzliekkas/qiniustorage/config"
)

// 配置键
const (
	KeyHost            = "SERVER_HOST"
	KeyPort            = "SERVER_PORT"
	KeyMode            = "APP_MODE"
	KeyUploadPrefix    = "UPLOAD_PREFIX"
	KeyJWTSecret       = "UPLOAD_JWT_SECRET"
	KeyCORSOrigins     = "CORS_ORIGINS"
	KeyShutdownTimeout = "SHUTDOWN_TIMEOUT"
)

// Config HTTP服务器配置
type Config struct {
	Host string
	Port int

	// Mode 运行模式：debug, release, test
	Mode string

	// UploadPrefix 上传接口的路由前缀
	UploadPrefix string

	// JWTSecret 非空时上传接口需要 HS256 Bearer 令牌
	JWTSecret string

	// CORSOrigins 允许直传的浏览器来源
	CORSOrigins []string

	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
}

// DefaultConfig 返回默认服务器配置
func DefaultConfig() Config {
	return Config{
		Host:            "",
		Port:            8080,
		Mode:            "debug",
		UploadPrefix:    "/uploads",
		CORSOrigins:     []string{"*"},
		ShutdownTimeout: 5 * time.Second,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
	}
}

// LoadConfig 从配置解析器读取服务器配置
func LoadConfig(r config.Resolver) (Config, error) {
	cfg := DefaultConfig()

	var err error
	if cfg.Host, err = config.ResolveString(r, KeyHost, cfg.Host); err != nil {
		return cfg, err
	}
	if cfg.Port, err = config.ResolveInt(r, KeyPort, cfg.Port); err != nil {
		return cfg, err
	}
	if cfg.Mode, err = config.ResolveString(r, KeyMode, cfg.Mode); err != nil {
		return cfg, err
	}
	if cfg.UploadPrefix, err = config.ResolveString(r, KeyUploadPrefix, cfg.UploadPrefix); err != nil {
		return cfg, err
	}
	if cfg.JWTSecret, err = config.ResolveString(r, KeyJWTSecret, ""); err != nil {
		return cfg, err
	}
	origins, err := config.ResolveString(r, KeyCORSOrigins, "*")
	if err != nil {
		return cfg, err
	}
	cfg.CORSOrigins = splitList(origins)
	if cfg.ShutdownTimeout, err = config.ResolveSeconds(r, KeyShutdownTimeout, cfg.ShutdownTimeout); err != nil {
		return cfg, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, &config.ConfigurationError{Key: KeyPort, Reason: "端口超出范围"}
	}
	cfg.UploadPrefix = "/" + strings.Trim(cfg.UploadPrefix, "/")

	return cfg, nil
}

// Addr 返回监听地址
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// GinMode 将运行模式映射到Gin模式
func (c Config) GinMode() string {
	switch strings.ToLower(c.Mode) {
	case "release", "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
