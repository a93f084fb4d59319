package upload

import (
	"strings"

	"github.com/zzliekkas/qiniustorage/config"
)

// 配置键
const (
	KeyBasePath   = "UPLOAD_BASE_PATH"
	KeyBucket     = "UPLOAD_BUCKET"
	KeyExpires    = "UPLOAD_EXPIRES"
	KeyFsizeLimit = "UPLOAD_FSIZE_LIMIT"
	KeyMimeLimit  = "UPLOAD_MIME_LIMIT"
)

// DefaultBasePath 默认上传根路径
const DefaultBasePath = "uploads"

// LoadIssuerConfig 从配置解析器读取签发配置
func LoadIssuerConfig(r config.Resolver) (IssuerConfig, error) {
	cfg := IssuerConfig{}

	var err error
	if cfg.BasePath, err = config.ResolveString(r, KeyBasePath, DefaultBasePath); err != nil {
		return cfg, err
	}
	if cfg.Bucket, err = config.ResolveString(r, KeyBucket, ""); err != nil {
		return cfg, err
	}
	if cfg.Expires, err = config.ResolveSeconds(r, KeyExpires, int(DefaultExpires.Seconds())); err != nil {
		return cfg, err
	}
	limit, err := config.ResolveInt(r, KeyFsizeLimit, 0)
	if err != nil {
		return cfg, err
	}
	if limit < 0 {
		return cfg, &config.ConfigurationError{Key: KeyFsizeLimit, Reason: "不能为负数"}
	}
	cfg.FsizeLimit = int64(limit)

	mimes, err := config.ResolveString(r, KeyMimeLimit, "")
	if err != nil {
		return cfg, err
	}
	for _, mime := range strings.Split(mimes, ",") {
		if mime = strings.TrimSpace(mime); mime != "" {
			cfg.MimeLimit = append(cfg.MimeLimit, mime)
		}
	}

	return cfg, nil
}
