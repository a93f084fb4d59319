package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 表示配置管理器
//
// 配置值的来源按优先级依次为：进程环境变量、配置文件（应用设置）、调用方提供的默认值。
type Config struct {
	// viper实例
	viper *viper.Viper

	// 配置文件路径
	configPath string

	// 配置文件名
	configName string

	// 配置文件类型
	configType string

	// 环境
	env string

	// .env 文件路径
	envFile string

	// 是否已加载
	loaded bool

	// 锁
	mu sync.RWMutex
}

// 配置选项函数
type ConfigOption func(*Config)

// NewConfig 创建一个新的配置管理器
func NewConfig(options ...ConfigOption) *Config {
	cfg := &Config{
		viper:      viper.New(),
		configPath: "./config",
		configName: "qiniustorage",
		configType: "yaml",
		env:        os.Getenv("APP_ENV"),
	}

	for _, opt := range options {
		opt(cfg)
	}

	// 环境变量始终可用，即使没有加载配置文件
	cfg.viper.AutomaticEnv()
	cfg.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return cfg
}

// WithConfigPath 设置配置文件路径
func WithConfigPath(path string) ConfigOption {
	return func(c *Config) {
		c.configPath = path
	}
}

// WithConfigName 设置配置文件名
func WithConfigName(name string) ConfigOption {
	return func(c *Config) {
		c.configName = name
	}
}

// WithConfigType 设置配置文件类型
func WithConfigType(configType string) ConfigOption {
	return func(c *Config) {
		c.configType = configType
	}
}

// WithEnvironment 设置环境
func WithEnvironment(env string) ConfigOption {
	return func(c *Config) {
		c.env = env
	}
}

// WithEnvFile 设置 .env 文件路径，加载时其中的变量写入进程环境，已存在的环境变量不会被覆盖
func WithEnvFile(path string) ConfigOption {
	return func(c *Config) {
		c.envFile = path
	}
}

// WithSettings 直接注入应用设置，等同于配置文件中的值
func WithSettings(settings map[string]interface{}) ConfigOption {
	return func(c *Config) {
		for key, value := range settings {
			c.viper.Set(key, value)
		}
	}
}

// Load 加载配置文件
//
// 配置文件不存在时不视为错误，此时只使用环境变量与默认值。
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.envFile != "" {
		if _, err := os.Stat(c.envFile); err == nil {
			if err := godotenv.Load(c.envFile); err != nil {
				return fmt.Errorf("读取 .env 文件失败: %w", err)
			}
		}
	}

	if c.configPath != "" {
		c.viper.AddConfigPath(c.configPath)
	} else {
		c.viper.AddConfigPath("./config")
		c.viper.AddConfigPath(".")
	}
	c.viper.SetConfigName(c.configName)
	c.viper.SetConfigType(c.configType)

	// 优先加载特定环境的配置文件，如 qiniustorage.production.yaml
	if c.env != "" {
		envConfigName := fmt.Sprintf("%s.%s", c.configName, c.env)
		envConfigPath := filepath.Join(c.configPath, fmt.Sprintf("%s.%s", envConfigName, c.configType))
		if _, err := os.Stat(envConfigPath); err == nil {
			c.viper.SetConfigName(envConfigName)
		}
	}

	if err := c.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	c.loaded = true
	return nil
}

// ConfigFileUsed 返回实际加载的配置文件路径
func (c *Config) ConfigFileUsed() string {
	return c.viper.ConfigFileUsed()
}

// Get 获取指定键的配置值
func (c *Config) Get(key string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viper.Get(key)
}

// GetString 获取字符串配置值
func (c *Config) GetString(key string) string {
	return c.viper.GetString(key)
}

// GetInt 获取整数配置值
func (c *Config) GetInt(key string) int {
	return c.viper.GetInt(key)
}

// GetBool 获取布尔配置值
func (c *Config) GetBool(key string) bool {
	return c.viper.GetBool(key)
}

// GetDuration 获取时间间隔配置值
func (c *Config) GetDuration(key string) time.Duration {
	return c.viper.GetDuration(key)
}

// Set 设置配置值
func (c *Config) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viper.Set(key, value)
}

// Has 检查是否存在指定键
func (c *Config) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viper.IsSet(key)
}

// AllSettings 获取所有配置
func (c *Config) AllSettings() map[string]interface{} {
	return c.viper.AllSettings()
}

// IsLoaded 检查配置是否已加载
func (c *Config) IsLoaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}
