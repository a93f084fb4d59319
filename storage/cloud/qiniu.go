package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	qiniuauth "github.com/qiniu/go-sdk/v7/auth/qbox"
	qiniuclient "github.com/qiniu/go-sdk/v7/client"
	qiniustorage "github.com/qiniu/go-sdk/v7/storage"

	"github.com/zzliekkas/qiniustorage/storage"
)

// 七牛返回的“文件不存在”错误码
const qiniuCodeNotFound = 612

// serverTokenExpires 服务端上传凭证的有效期
const serverTokenExpires = time.Hour

// Qiniu 七牛云存储客户端，实现 storage.Client
//
// 签名、上传和资源管理都交给七牛 Go SDK 完成。
type Qiniu struct {
	bucket  string
	mac     *qiniuauth.Mac
	config  qiniustorage.Config
	manager *qiniustorage.BucketManager
}

// NewQiniu 创建七牛云存储客户端
//
// 每个客户端持有自己的凭证和SDK配置，不修改SDK的全局状态。
func NewQiniu(cfg storage.Config, httpClient *http.Client) (*Qiniu, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("cloud: 七牛访问密钥不能为空")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("cloud: 七牛空间名称不能为空")
	}

	sdkConfig := qiniustorage.Config{UseHTTPS: cfg.UseHTTPS}
	if cfg.Region != "" {
		region, ok := qiniustorage.GetRegionByID(qiniustorage.RegionID(cfg.Region))
		if !ok {
			return nil, fmt.Errorf("cloud: 未知的七牛区域 '%s'", cfg.Region)
		}
		sdkConfig.Zone = &region
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	mac := qiniuauth.NewMac(cfg.AccessKey, cfg.SecretKey)
	return &Qiniu{
		bucket:  cfg.Bucket,
		mac:     mac,
		config:  sdkConfig,
		manager: qiniustorage.NewBucketManagerEx(mac, &sdkConfig, &qiniuclient.Client{Client: httpClient}),
	}, nil
}

// Put 上传文件，长度未知时使用分片上传
func (q *Qiniu) Put(ctx context.Context, key string, data io.Reader, size int64, mimeType string) error {
	token := q.UploadToken(storage.NewUploadPolicy(q.bucket, key, serverTokenExpires))
	ret := qiniustorage.PutRet{}

	if size < 0 {
		uploader := qiniustorage.NewResumeUploader(&q.config)
		return wrapError(uploader.PutWithoutSize(ctx, &ret, token, key, data, &qiniustorage.RputExtra{MimeType: mimeType}))
	}

	uploader := qiniustorage.NewFormUploader(&q.config)
	return wrapError(uploader.Put(ctx, &ret, token, key, data, size, &qiniustorage.PutExtra{MimeType: mimeType}))
}

// Stat 获取文件信息
func (q *Qiniu) Stat(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := q.manager.Stat(q.bucket, key)
	if err != nil {
		return nil, wrapError(err)
	}

	return &storage.ObjectInfo{
		Key:      key,
		Size:     info.Fsize,
		PutTime:  info.PutTime,
		MimeType: info.MimeType,
		Hash:     info.Hash,
	}, nil
}

// Delete 删除文件
func (q *Qiniu) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrapError(q.manager.Delete(q.bucket, key))
}

// List 列举一页文件
func (q *Qiniu) List(ctx context.Context, prefix, marker string, limit int) (*storage.ListPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, _, nextMarker, hasNext, err := q.manager.ListFiles(q.bucket, prefix, "", marker, limit)
	if err != nil {
		return nil, wrapError(err)
	}

	page := &storage.ListPage{
		Items:   make([]storage.ObjectInfo, 0, len(entries)),
		Marker:  nextMarker,
		HasNext: hasNext,
	}
	for _, entry := range entries {
		page.Items = append(page.Items, storage.ObjectInfo{
			Key:      entry.Key,
			Size:     entry.Fsize,
			PutTime:  entry.PutTime,
			MimeType: entry.MimeType,
			Hash:     entry.Hash,
		})
	}
	return page, nil
}

// UploadToken 签发上传凭证，有效期由SDK从当前时刻开始计算
func (q *Qiniu) UploadToken(policy storage.UploadPolicy) string {
	putPolicy := qiniustorage.PutPolicy{
		Scope:      policy.Scope,
		Expires:    uint64(policy.Expires / time.Second),
		FsizeLimit: policy.FsizeLimit,
		MimeLimit:  strings.Join(policy.MimeLimit, ";"),
	}
	return putPolicy.UploadToken(q.mac)
}

// SignURL 生成私有空间的下载地址
//
// 在地址后附加 e=<过期时间戳>，再对整个地址签名并附加 token 参数。
func (q *Qiniu) SignURL(rawURL string, deadline time.Time) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	urlToSign := rawURL + sep + "e=" + strconv.FormatInt(deadline.Unix(), 10)
	return urlToSign + "&token=" + q.mac.Sign([]byte(urlToSign))
}

// wrapError 将七牛的“文件不存在”错误标记为 storage.ErrNotFound
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
	}
	return err
}

func isNotFound(err error) bool {
	var info *qiniuclient.ErrorInfo
	if errors.As(err, &info) && info.Code == qiniuCodeNotFound {
		return true
	}
	return strings.Contains(err.Error(), "no such file or directory")
}
