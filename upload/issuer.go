package upload

import (
	"path"
	"strings"
	"time"

	"github.com/zzliekkas/qiniustorage/storage"
)

// DefaultExpires 上传凭证的默认有效期
const DefaultExpires = time.Hour

// IssuerConfig 上传凭证签发配置
//
// 所有字段都来自部署方的配置，不能由请求参数覆盖。
type IssuerConfig struct {
	// BasePath 上传根路径，签发的对象键都位于其下
	BasePath string

	// Bucket 覆盖存储配置中的空间名称，为空时使用存储配置
	Bucket string

	// Expires 凭证有效期，原样交给签名方
	Expires time.Duration

	// FsizeLimit 允许上传的最大字节数，0 表示不限制
	FsizeLimit int64

	// MimeLimit 允许的MIME类型，为空表示不限制
	MimeLimit []string
}

// Ticket 签发给客户端的上传凭证
type Ticket struct {
	Token string `json:"token"`
	Key   string `json:"key"`
	URL   string `json:"url"`
}

// Issuer 上传凭证签发器
//
// 只计算签名，不发起网络请求。
type Issuer struct {
	cfg     IssuerConfig
	storage *storage.Storage
}

// NewIssuer 创建上传凭证签发器
func NewIssuer(s *storage.Storage, cfg IssuerConfig) *Issuer {
	if cfg.Expires <= 0 {
		cfg.Expires = DefaultExpires
	}
	cfg.BasePath = storage.CleanLocation(cfg.BasePath)
	return &Issuer{cfg: cfg, storage: s}
}

// Config 返回签发配置
func (i *Issuer) Config() IssuerConfig {
	return i.cfg
}

// Issue 为文件名签发限定到单个对象键的上传凭证
func (i *Issuer) Issue(filename string) (*Ticket, error) {
	key, err := i.Key(filename)
	if err != nil {
		return nil, err
	}

	bucket := i.cfg.Bucket
	if bucket == "" {
		bucket = i.storage.Bucket()
	}

	policy := storage.NewUploadPolicy(bucket, key, i.cfg.Expires)
	policy.FsizeLimit = i.cfg.FsizeLimit
	policy.MimeLimit = i.cfg.MimeLimit

	return &Ticket{
		Token: i.storage.UploadToken(policy),
		Key:   key,
		URL:   i.storage.UploadURL(),
	}, nil
}

// Key 计算文件名对应的对象键
func (i *Issuer) Key(filename string) (string, error) {
	filename = strings.TrimSpace(strings.ReplaceAll(filename, "\\", "/"))
	for _, segment := range strings.Split(filename, "/") {
		if segment == ".." {
			return "", ErrInvalidFilename
		}
	}

	name := strings.Trim(path.Clean("/"+filename), "/")
	if name == "" || name == "." {
		return "", ErrInvalidFilename
	}

	return i.storage.NormalizeName(path.Join(i.cfg.BasePath, name)), nil
}

// Owns 判断对象键是否由本签发器签发的根路径所有
func (i *Issuer) Owns(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || i.storage.NormalizeName(key) != key {
		return false
	}

	root := i.storage.NormalizeName(i.cfg.BasePath)
	if root == "" {
		return true
	}
	return strings.HasPrefix(key, root+"/")
}
