package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// ErrConfiguration 配置缺失或无效
var ErrConfiguration = errors.New("配置错误")

// ConfigurationError 表示某个必需配置项缺失或无法解析
type ConfigurationError struct {
	Key    string
	Reason string
}

// Error 实现error接口
func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("配置项 '%s' 无效: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("无法在环境变量或配置文件中找到配置项 '%s'", e.Key)
}

// Is 使 errors.Is(err, ErrConfiguration) 成立
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Resolver 按名称解析配置值
type Resolver interface {
	Resolve(name string, def interface{}) (interface{}, error)
}

// Resolve 依次从环境变量、应用设置、默认值中查找配置项
//
// def 为 nil 表示该配置项为必需项，找不到时返回 *ConfigurationError。
func (c *Config) Resolve(name string, def interface{}) (interface{}, error) {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.viper.IsSet(name) {
		if value := c.viper.Get(name); value != nil {
			return value, nil
		}
	}

	if def != nil {
		return def, nil
	}

	return nil, &ConfigurationError{Key: name}
}

// ResolveString 解析字符串配置项
func ResolveString(r Resolver, name string, def interface{}) (string, error) {
	value, err := r.Resolve(name, def)
	if err != nil {
		return "", err
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return "", &ConfigurationError{Key: name, Reason: err.Error()}
	}
	return strings.TrimSpace(s), nil
}

// ResolveBool 解析布尔配置项
func ResolveBool(r Resolver, name string, def interface{}) (bool, error) {
	value, err := r.Resolve(name, def)
	if err != nil {
		return false, err
	}
	b, err := cast.ToBoolE(value)
	if err != nil {
		return false, &ConfigurationError{Key: name, Reason: err.Error()}
	}
	return b, nil
}

// ResolveInt 解析整数配置项
func ResolveInt(r Resolver, name string, def interface{}) (int, error) {
	value, err := r.Resolve(name, def)
	if err != nil {
		return 0, err
	}
	i, err := cast.ToIntE(value)
	if err != nil {
		return 0, &ConfigurationError{Key: name, Reason: err.Error()}
	}
	return i, nil
}

// ResolveSeconds 解析以秒为单位的时长配置项，也接受 "90s"、"1h" 这类写法
func ResolveSeconds(r Resolver, name string, def interface{}) (time.Duration, error) {
	value, err := r.Resolve(name, def)
	if err != nil {
		return 0, err
	}

	if s, ok := value.(string); ok {
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
	}
	if d, ok := value.(time.Duration); ok {
		return d, nil
	}

	seconds, err := cast.ToInt64E(value)
	if err != nil {
		return 0, &ConfigurationError{Key: name, Reason: err.Error()}
	}
	return time.Duration(seconds) * time.Second, nil
}

// ResolveFloat 解析浮点数配置项
func ResolveFloat(r Resolver, name string, def interface{}) (float64, error) {
	value, err := r.Resolve(name, def)
	if err != nil {
		return 0, err
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, &ConfigurationError{Key: name, Reason: err.Error()}
	}
	return f, nil
}
