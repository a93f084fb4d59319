package storage

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/zzliekkas/qiniustorage/config"
)

// 配置项名称，环境变量与配置文件使用相同的键
const (
	KeyAccessKey  = "QINIU_ACCESS_KEY"
	KeySecretKey  = "QINIU_SECRET_KEY"
	KeyBucketName = "QINIU_BUCKET_NAME"
	KeyDomain     = "QINIU_BUCKET_DOMAIN"
	KeyPublic     = "QINIU_BUCKET_PUBLIC"
	KeyExpiration = "QINIU_ACCESS_EXPIRATION"
	KeyLocation   = "QINIU_LOCATION"
	KeySecureURL  = "QINIU_SECURE_URL"
	KeyUpHost     = "QINIU_UP_HOST"
	KeyRegion     = "QINIU_REGION"
	KeyUseHTTPS   = "QINIU_USE_HTTPS"
	KeyTimeout    = "QINIU_TIMEOUT"
	KeyRetries    = "QINIU_RETRIES"
)

// 默认值
const (
	DefaultExpiration = time.Hour
	DefaultUpHost     = "upload.qiniup.com"
	DefaultTimeout    = 30 * time.Second
	DefaultRetries    = 0
)

var validate = validator.New()

// Config 存储适配器配置，构造后不再修改
type Config struct {
	// AccessKey 访问密钥
	AccessKey string `validate:"required"`

	// SecretKey 私有密钥
	SecretKey string `validate:"required"`

	// Bucket 空间名称
	Bucket string `validate:"required"`

	// Domain 空间绑定的访问域名，用于生成文件URL
	Domain string `validate:"required"`

	// Public 为 true 时生成不带签名的URL
	Public bool

	// Expiration 私有空间下载地址的有效期
	Expiration time.Duration `validate:"gt=0"`

	// Location 根路径，所有对象键都位于其下
	Location string

	// Secure 文件URL是否使用 https
	Secure bool

	// UpHost 上传域名，返回给客户端用于直传
	UpHost string `validate:"required"`

	// Region 存储区域ID，为空时由SDK自动查询
	Region string `validate:"omitempty,oneof=z0 cn-east-2 z1 z2 na0 as0"`

	// UseHTTPS SDK调用是否使用 https
	UseHTTPS bool

	// Timeout 单次调用的超时时间，0 表示不限制
	Timeout time.Duration `validate:"gte=0"`

	// Retries 幂等操作的最大重试次数
	Retries int `validate:"gte=0,lte=10"`
}

// DefaultConfig 返回带默认值的配置
func DefaultConfig() Config {
	return Config{
		Public:     true,
		Expiration: DefaultExpiration,
		UpHost:     DefaultUpHost,
		Timeout:    DefaultTimeout,
		Retries:    DefaultRetries,
	}
}

// Validate 校验配置是否完整
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}
	return nil
}

// String 返回隐藏了密钥的配置描述
func (c Config) String() string {
	return fmt.Sprintf("bucket=%s domain=%s public=%t location=%q expiration=%s access_key=%s",
		c.Bucket, c.Domain, c.Public, c.Location, c.Expiration, mask(c.AccessKey))
}

// LoadConfig 通过配置解析器构造存储配置
//
// 必需项缺失时立即返回 *config.ConfigurationError。
func LoadConfig(r config.Resolver) (Config, error) {
	cfg := DefaultConfig()
	var err error

	if cfg.AccessKey, err = config.ResolveString(r, KeyAccessKey, nil); err != nil {
		return Config{}, err
	}
	if cfg.SecretKey, err = config.ResolveString(r, KeySecretKey, nil); err != nil {
		return Config{}, err
	}
	if cfg.Bucket, err = config.ResolveString(r, KeyBucketName, nil); err != nil {
		return Config{}, err
	}
	if cfg.Domain, err = config.ResolveString(r, KeyDomain, nil); err != nil {
		return Config{}, err
	}

	if cfg.Public, err = config.ResolveBool(r, KeyPublic, true); err != nil {
		return Config{}, err
	}
	if cfg.Expiration, err = config.ResolveSeconds(r, KeyExpiration, int(DefaultExpiration/time.Second)); err != nil {
		return Config{}, err
	}
	if cfg.Location, err = config.ResolveString(r, KeyLocation, ""); err != nil {
		return Config{}, err
	}
	if cfg.Secure, err = config.ResolveBool(r, KeySecureURL, false); err != nil {
		return Config{}, err
	}
	if cfg.UpHost, err = config.ResolveString(r, KeyUpHost, DefaultUpHost); err != nil {
		return Config{}, err
	}
	if cfg.Region, err = config.ResolveString(r, KeyRegion, ""); err != nil {
		return Config{}, err
	}
	if cfg.UseHTTPS, err = config.ResolveBool(r, KeyUseHTTPS, false); err != nil {
		return Config{}, err
	}
	if cfg.Timeout, err = config.ResolveSeconds(r, KeyTimeout, int(DefaultTimeout/time.Second)); err != nil {
		return Config{}, err
	}
	if cfg.Retries, err = config.ResolveInt(r, KeyRetries, DefaultRetries); err != nil {
		return Config{}, err
	}

	cfg.Location = CleanLocation(cfg.Location)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}
