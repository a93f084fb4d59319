package app

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/zzliekkas/qiniustorage/config"
)

// 环境配置键
const (
	KeyAppEnv     = "APP_ENV"
	KeyAppName    = "APP_NAME"
	KeyAppVersion = "APP_VERSION"
)

// Version 应用版本
const Version = "0.1.0"

// Environment 环境信息结构体
type Environment struct {
	// 系统信息
	GoVersion string    // Go版本
	GOOS      string    // 操作系统
	GOARCH    string    // 系统架构
	Hostname  string    // 主机名
	StartTime time.Time // 启动时间

	// 应用配置
	AppEnv     string // 应用环境 (development, testing, production)
	AppName    string // 应用名称
	AppVersion string // 应用版本
}

// NewEnvironment 创建环境信息
func NewEnvironment(r config.Resolver) (*Environment, error) {
	hostname, _ := os.Hostname()

	env := &Environment{
		GoVersion: runtime.Version(),
		GOOS:      runtime.GOOS,
		GOARCH:    runtime.GOARCH,
		Hostname:  hostname,
		StartTime: time.Now(),
	}

	var err error
	if env.AppEnv, err = config.ResolveString(r, KeyAppEnv, "development"); err != nil {
		return nil, err
	}
	if env.AppName, err = config.ResolveString(r, KeyAppName, "qiniustorage"); err != nil {
		return nil, err
	}
	if env.AppVersion, err = config.ResolveString(r, KeyAppVersion, Version); err != nil {
		return nil, err
	}
	env.AppEnv = strings.ToLower(env.AppEnv)

	return env, nil
}

// IsDevelopment 检查是否为开发环境
func (e *Environment) IsDevelopment() bool {
	return e.AppEnv == "development"
}

// IsProduction 检查是否为生产环境
func (e *Environment) IsProduction() bool {
	return e.AppEnv == "production"
}

// Uptime 返回运行时间
func (e *Environment) Uptime() time.Duration {
	return time.Since(e.StartTime)
}

// Summary 返回环境信息摘要
func (e *Environment) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "应用: %s %s (%s)\n", e.AppName, e.AppVersion, e.AppEnv)
	fmt.Fprintf(&sb, "Go: %s %s/%s\n", e.GoVersion, e.GOOS, e.GOARCH)
	fmt.Fprintf(&sb, "主机: %s", e.Hostname)
	return sb.String()
}
