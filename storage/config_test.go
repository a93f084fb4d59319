package storage_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzliekkas/qiniustorage/config"
	"github.com/zzliekkas/qiniustorage/storage"
)

func requiredSettings() map[string]interface{} {
	return map[string]interface{}{
		storage.KeyAccessKey:  "ak-123456",
		storage.KeySecretKey:  "sk-abcdef",
		storage.KeyBucketName: "bucket",
		storage.KeyDomain:     "cdn.example.com",
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := storage.LoadConfig(config.NewConfig(config.WithSettings(requiredSettings())))
	require.NoError(t, err)

	assert.Equal(t, "bucket", cfg.Bucket)
	assert.True(t, cfg.Public, "默认为公开空间")
	assert.Equal(t, time.Hour, cfg.Expiration)
	assert.Equal(t, storage.DefaultUpHost, cfg.UpHost)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 0, cfg.Retries, "默认不自动重试")
	assert.Empty(t, cfg.Location)
}

func TestLoadConfig_Overrides(t *testing.T) {
	settings := requiredSettings()
	settings[storage.KeyPublic] = "false"
	settings[storage.KeyExpiration] = 60
	settings[storage.KeyLocation] = "/media/"
	settings[storage.KeyRetries] = "2"
	t.Setenv(storage.KeyBucketName, "env-bucket")

	cfg, err := storage.LoadConfig(config.NewConfig(config.WithSettings(settings)))
	require.NoError(t, err)

	assert.Equal(t, "env-bucket", cfg.Bucket, "环境变量优先")
	assert.False(t, cfg.Public)
	assert.Equal(t, time.Minute, cfg.Expiration)
	assert.Equal(t, "media", cfg.Location)
	assert.Equal(t, 2, cfg.Retries)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	for _, key := range []string{storage.KeyAccessKey, storage.KeySecretKey, storage.KeyBucketName, storage.KeyDomain} {
		settings := requiredSettings()
		delete(settings, key)

		_, err := storage.LoadConfig(config.NewConfig(config.WithSettings(settings)))
		require.Error(t, err, "缺少 %s 时应失败", key)
		assert.True(t, errors.Is(err, config.ErrConfiguration))

		var cfgErr *config.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, key, cfgErr.Key)
	}
}

func TestLoadConfig_InvalidValue(t *testing.T) {
	settings := requiredSettings()
	settings[storage.KeyPublic] = "maybe"

	_, err := storage.LoadConfig(config.NewConfig(config.WithSettings(settings)))
	assert.ErrorIs(t, err, config.ErrConfiguration)

	settings = requiredSettings()
	settings[storage.KeyRegion] = "mars-1"
	_, err = storage.LoadConfig(config.NewConfig(config.WithSettings(settings)))
	assert.ErrorIs(t, err, config.ErrConfiguration, "未知区域应校验失败")
}

func TestConfig_StringMasksSecrets(t *testing.T) {
	cfg := storage.DefaultConfig()
	cfg.AccessKey = "ak-123456"
	cfg.SecretKey = "sk-abcdef"

	s := cfg.String()
	assert.Contains(t, s, "ak-1****")
	assert.NotContains(t, s, "sk-abcdef")
	assert.NotContains(t, s, "ak-123456")
}
