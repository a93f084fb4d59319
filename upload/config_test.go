package upload

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzliekkas/qiniustorage/config"
)

func TestLoadIssuerConfigDefaults(t *testing.T) {
	cfg, err := LoadIssuerConfig(config.NewConfig())
	require.NoError(t, err)

	assert.Equal(t, DefaultBasePath, cfg.BasePath)
	assert.Empty(t, cfg.Bucket)
	assert.Equal(t, time.Hour, cfg.Expires)
	assert.Zero(t, cfg.FsizeLimit)
	assert.Empty(t, cfg.MimeLimit)
}

func TestLoadIssuerConfigFromSettings(t *testing.T) {
	r := config.NewConfig(config.WithSettings(map[string]interface{}{
		KeyBasePath:   "avatars",
		KeyExpires:    600,
		KeyFsizeLimit: 1048576,
		KeyMimeLimit:  "image/jpeg, image/png",
	}))

	cfg, err := LoadIssuerConfig(r)
	require.NoError(t, err)
	assert.Equal(t, "avatars", cfg.BasePath)
	assert.Equal(t, 10*time.Minute, cfg.Expires)
	assert.Equal(t, int64(1048576), cfg.FsizeLimit)
	assert.Equal(t, []string{"image/jpeg", "image/png"}, cfg.MimeLimit)

	r = config.NewConfig(config.WithSettings(map[string]interface{}{KeyFsizeLimit: -1}))
	_, err = LoadIssuerConfig(r)
	assert.True(t, errors.Is(err, config.ErrConfiguration))
}
