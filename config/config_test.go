package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_EnvironmentTakesPrecedence(t *testing.T) {
	t.Setenv("QS_TEST_BUCKET", "env-bucket")

	cfg := NewConfig(WithSettings(map[string]interface{}{
		"QS_TEST_BUCKET": "settings-bucket",
	}))

	value, err := cfg.Resolve("QS_TEST_BUCKET", "default-bucket")
	require.NoError(t, err)
	assert.Equal(t, "env-bucket", value, "环境变量应优先于应用设置")
}

func TestResolve_FallsBackToSettingsThenDefault(t *testing.T) {
	cfg := NewConfig(WithSettings(map[string]interface{}{
		"QS_TEST_DOMAIN": "cdn.example.com",
	}))

	value, err := cfg.Resolve("QS_TEST_DOMAIN", nil)
	require.NoError(t, err)
	assert.Equal(t, "cdn.example.com", value)

	value, err = cfg.Resolve("QS_TEST_EXPIRATION", 3600)
	require.NoError(t, err)
	assert.Equal(t, 3600, value, "找不到时应返回默认值")
}

func TestResolve_MissingRequiredKey(t *testing.T) {
	cfg := NewConfig()

	_, err := cfg.Resolve("QS_TEST_MISSING_KEY", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "QS_TEST_MISSING_KEY", cfgErr.Key)
	assert.Contains(t, err.Error(), "QS_TEST_MISSING_KEY", "错误信息应包含缺失的键名")
}

func TestResolve_EmptyEnvironmentIsIgnored(t *testing.T) {
	t.Setenv("QS_TEST_EMPTY", "")

	cfg := NewConfig()
	value, err := cfg.Resolve("QS_TEST_EMPTY", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", value)
}

func TestLoad_ReadsSettingsFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("QS_TEST_FILE_BUCKET: file-bucket\nQS_TEST_FILE_PUBLIC: false\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qiniustorage.yaml"), content, 0o644))

	cfg := NewConfig(WithConfigPath(dir), WithEnvironment(""))
	require.NoError(t, cfg.Load())
	assert.True(t, cfg.IsLoaded())

	bucket, err := ResolveString(cfg, "QS_TEST_FILE_BUCKET", nil)
	require.NoError(t, err)
	assert.Equal(t, "file-bucket", bucket)

	public, err := ResolveBool(cfg, "QS_TEST_FILE_PUBLIC", true)
	require.NoError(t, err)
	assert.False(t, public)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg := NewConfig(WithConfigPath(t.TempDir()), WithEnvironment(""))
	assert.NoError(t, cfg.Load())
	assert.True(t, cfg.IsLoaded())
}

func TestResolveTypedValues(t *testing.T) {
	t.Setenv("QS_TEST_PUBLIC", "false")
	t.Setenv("QS_TEST_SECONDS", "120")
	t.Setenv("QS_TEST_DURATION", "2m")
	t.Setenv("QS_TEST_BAD_BOOL", "maybe")

	cfg := NewConfig()

	public, err := ResolveBool(cfg, "QS_TEST_PUBLIC", true)
	require.NoError(t, err)
	assert.False(t, public)

	seconds, err := ResolveSeconds(cfg, "QS_TEST_SECONDS", 3600)
	require.NoError(t, err)
	assert.Equal(t, 120*time.Second, seconds)

	duration, err := ResolveSeconds(cfg, "QS_TEST_DURATION", 3600)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, duration)

	fallback, err := ResolveSeconds(cfg, "QS_TEST_UNSET_SECONDS", 3600)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, fallback)

	_, err = ResolveBool(cfg, "QS_TEST_BAD_BOOL", true)
	assert.True(t, errors.Is(err, ErrConfiguration), "无法解析的值应返回配置错误")
}

func TestResolveFloat(t *testing.T) {
	t.Setenv("QS_TEST_RATE", "0.25")
	cfg := NewConfig()

	rate, err := ResolveFloat(cfg, "QS_TEST_RATE", 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, rate, 1e-9)

	t.Setenv("QS_TEST_BAD_RATE", "often")
	_, err = ResolveFloat(cfg, "QS_TEST_BAD_RATE", 1.0)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestLoad_EnvFile(t *testing.T) {
	t.Setenv("QS_TEST_DOTENV_KEEP", "from-env")
	t.Cleanup(func() { os.Unsetenv("QS_TEST_DOTENV_NEW") })

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("QS_TEST_DOTENV_NEW=from-file\nQS_TEST_DOTENV_KEEP=from-file\n"), 0o600))

	cfg := NewConfig(WithConfigPath(t.TempDir()), WithEnvFile(envFile))
	require.NoError(t, cfg.Load())

	value, err := ResolveString(cfg, "QS_TEST_DOTENV_NEW", nil)
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)

	value, err = ResolveString(cfg, "QS_TEST_DOTENV_KEEP", nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env", value, ".env 不应覆盖已有的环境变量")
}

func TestLoad_MissingEnvFileIsNotAnError(t *testing.T) {
	cfg := NewConfig(WithConfigPath(t.TempDir()), WithEnvFile(filepath.Join(t.TempDir(), ".env")))
	assert.NoError(t, cfg.Load())
}

func TestResolve_ConcurrentWithSet(t *testing.T) {
	cfg := NewConfig()
	cfg.Set("QS_TEST_LOCATION", "media")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			cfg.Set("QS_TEST_LOCATION", "static")
		}()
		go func() {
			defer wg.Done()
			value, err := cfg.Resolve("QS_TEST_LOCATION", nil)
			assert.NoError(t, err)
			assert.Contains(t, []interface{}{"media", "static"}, value)
		}()
	}
	wg.Wait()

	assert.True(t, cfg.Has("QS_TEST_LOCATION"))
	assert.Equal(t, "static", cfg.Get("QS_TEST_LOCATION"))
}
