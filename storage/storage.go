package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName 存储适配器使用的追踪器名称
const tracerName = "github.com/zzliekkas/qiniustorage/storage"

// listPageSize 列举时每页请求的对象数
const listPageSize = 1000

// Storage 七牛云存储适配器
//
// 将 打开/保存/删除/存在/大小/修改时间/列举/URL 等通用文件操作映射到云存储调用。
// 构造后不可修改，可以在多个goroutine之间共享。
type Storage struct {
	cfg        Config
	client     Client
	location   string
	httpClient *http.Client
	logger     logrus.FieldLogger
	now        func() time.Time
	newBackOff func() backoff.BackOff
	tracer     trace.Tracer
}

// Option 存储适配器选项
type Option func(*Storage)

// WithLogger 设置日志记录器
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Storage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHTTPClient 设置读取文件内容时使用的HTTP客户端
func WithHTTPClient(client *http.Client) Option {
	return func(s *Storage) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithClock 设置时钟，用于计算私有链接的过期时间
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBackOff 设置重试的退避策略
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(s *Storage) {
		if newBackOff != nil {
			s.newBackOff = newBackOff
		}
	}
}

// WithLocation 覆盖配置中的根路径
func WithLocation(location string) Option {
	return func(s *Storage) {
		s.location = CleanLocation(location)
	}
}

// New 创建存储适配器
func New(cfg Config, client Client, opts ...Option) (*Storage, error) {
	if client == nil {
		return nil, errors.New("storage: 云存储客户端不能为空")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Storage{
		cfg:        cfg,
		client:     client,
		location:   CleanLocation(cfg.Location),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logrus.StandardLogger(),
		now:        time.Now,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		tracer:     otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// At 返回使用另一个根路径的适配器副本，与原适配器共享客户端
func (s *Storage) At(location string) *Storage {
	clone := *s
	clone.location = CleanLocation(location)
	clone.cfg.Location = clone.location
	return &clone
}

// Config 返回适配器配置的副本
func (s *Storage) Config() Config {
	return s.cfg
}

// Bucket 返回空间名称
func (s *Storage) Bucket() string {
	return s.cfg.Bucket
}

// Location 返回根路径
func (s *Storage) Location() string {
	return s.location
}

// NormalizeName 返回名称对应的对象键
func (s *Storage) NormalizeName(name string) string {
	return NormalizeName(s.location, name)
}

// Open 打开远程文件，不会发起网络请求
func (s *Storage) Open(ctx context.Context, name string, mode OpenMode) *File {
	return newFile(ctx, s, s.NormalizeName(name), mode)
}

// Save 上传内容并返回最终的对象键
//
// 如果 content 实现了 io.Closer，上传结束后会将其关闭。保存操作不会自动重试。
func (s *Storage) Save(ctx context.Context, name string, content io.Reader) (key string, err error) {
	key = s.NormalizeName(name)
	if closer, ok := content.(io.Closer); ok {
		defer closer.Close()
	}
	if key == "" {
		return "", &IOError{Op: "save", Key: key, Err: ErrInvalidName}
	}

	ctx, finish := s.begin(ctx, "save", key)
	defer func() { finish(err) }()

	if err := s.client.Put(ctx, key, content, contentLength(content), MimeTypeByName(key)); err != nil {
		return "", &IOError{Op: "save", Key: key, Err: err}
	}

	return key, nil
}

// ReadBytes 通过文件URL读取完整内容
func (s *Storage) ReadBytes(ctx context.Context, name string) (data []byte, err error) {
	key := s.NormalizeName(name)
	ctx, finish := s.begin(ctx, "read", key)
	defer func() { finish(err) }()

	fileURL := s.URL(name)
	err = s.retry(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return ErrNotFound
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return fmt.Errorf("意外的响应状态码 %d", resp.StatusCode)
		}

		data, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, &IOError{Op: "read", Key: key, Err: err}
	}

	return data, nil
}

// Delete 删除对象
func (s *Storage) Delete(ctx context.Context, name string) (err error) {
	key := s.NormalizeName(name)
	ctx, finish := s.begin(ctx, "delete", key)
	defer func() { finish(err) }()

	err = s.retry(ctx, func(ctx context.Context) error {
		return s.client.Delete(ctx, key)
	})
	if err != nil {
		return &IOError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Stat 获取对象元数据
func (s *Storage) Stat(ctx context.Context, name string) (info *ObjectInfo, err error) {
	key := s.NormalizeName(name)
	ctx, finish := s.begin(ctx, "stat", key)
	defer func() { finish(err) }()

	err = s.retry(ctx, func(ctx context.Context) error {
		var err error
		info, err = s.client.Stat(ctx, key)
		return err
	})
	if err != nil {
		return nil, &IOError{Op: "stat", Key: key, Err: err}
	}
	return info, nil
}

// StatSilent 获取对象元数据，任何失败都返回 nil
func (s *Storage) StatSilent(ctx context.Context, name string) *ObjectInfo {
	info, err := s.Stat(ctx, name)
	if err != nil {
		return nil
	}
	return info
}

// Exists 判断对象是否存在
func (s *Storage) Exists(ctx context.Context, name string) bool {
	return s.StatSilent(ctx, name) != nil
}

// Size 返回对象大小（字节）
func (s *Storage) Size(ctx context.Context, name string) (int64, error) {
	info, err := s.Stat(ctx, name)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// ModifiedTime 返回对象的最后修改时间
func (s *Storage) ModifiedTime(ctx context.Context, name string) (time.Time, error) {
	info, err := s.Stat(ctx, name)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// List 返回指定前缀下对象的迭代器，每次前进最多请求一页
func (s *Storage) List(prefix string) *Lister {
	normalized := s.NormalizeName(prefix)
	if normalized != "" && (prefix == "" || strings.HasSuffix(prefix, "/")) {
		normalized += "/"
	}
	return newLister(s, normalized)
}

// RelativeName 返回去掉根路径后的名称
func (s *Storage) RelativeName(key string) string {
	return relativeName(s.location, key)
}

// ListDir 列出目录下的子目录和文件
//
// 子目录名按字母序排列并去重，文件名按列举顺序返回，二者都不含前缀。
func (s *Storage) ListDir(ctx context.Context, prefix string) (dirs []string, files []string, err error) {
	prefix = s.NormalizeName(prefix)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	ctx, finish := s.begin(ctx, "list", prefix)
	defer func() { finish(err) }()

	seen := make(map[string]struct{})
	files = []string{}
	lister := newLister(s, prefix)
	for lister.Next(ctx) {
		key := lister.Item().Key
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		rest := strings.TrimPrefix(key, prefix)
		if rest == "" {
			continue
		}

		dir, _, nested := strings.Cut(rest, "/")
		if !nested {
			files = append(files, rest)
			continue
		}
		if _, ok := seen[dir]; !ok {
			seen[dir] = struct{}{}
			dirs = append(dirs, dir)
		}
	}
	if err := lister.Err(); err != nil {
		return nil, nil, err
	}

	if dirs == nil {
		dirs = []string{}
	}
	sort.Strings(dirs)
	return dirs, files, nil
}

// URL 返回文件的访问地址
//
// 名称中 "?" 之后的部分原样保留，私有空间会附加过期时间和签名。
func (s *Storage) URL(name string) string {
	base, query := splitQuery(name)
	key := s.NormalizeName(base)

	rawURL := s.baseURL() + "/" + escapeKey(key) + query
	if s.cfg.Public {
		return rawURL
	}
	return s.client.SignURL(rawURL, s.now().Add(s.cfg.Expiration))
}

// ThumbnailURL 返回图片缩略图的访问地址，非图片文件返回 false
func (s *Storage) ThumbnailURL(name string, opts ThumbnailOptions) (string, bool) {
	base, _ := splitQuery(name)
	if !IsImage(base) {
		return "", false
	}
	return s.URL(base + "?" + opts.Encode()), true
}

// Path 与 URL 相同，远程文件没有本地路径
func (s *Storage) Path(name string) string {
	return s.URL(name)
}

// UploadToken 为上传策略签发上传凭证
func (s *Storage) UploadToken(policy UploadPolicy) string {
	return s.client.UploadToken(policy)
}

// UploadURL 返回客户端直传使用的上传地址
func (s *Storage) UploadURL() string {
	host := s.cfg.UpHost
	if strings.Contains(host, "://") {
		return strings.TrimRight(host, "/")
	}
	return s.scheme() + "://" + strings.TrimRight(host, "/")
}

func (s *Storage) scheme() string {
	if s.cfg.Secure {
		return "https"
	}
	return "http"
}

func (s *Storage) baseURL() string {
	domain := strings.TrimRight(s.cfg.Domain, "/")
	if strings.Contains(domain, "://") {
		return domain
	}
	return s.scheme() + "://" + domain
}

// begin 开启追踪span并应用单次调用超时，返回的函数负责记录结果
func (s *Storage) begin(ctx context.Context, op, key string) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "storage."+op, trace.WithAttributes(
		attribute.String("storage.bucket", s.cfg.Bucket),
		attribute.String("storage.key", key),
	))

	cancel := context.CancelFunc(func() {})
	if s.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
	}

	started := s.now()
	return ctx, func(err error) {
		defer span.End()
		defer cancel()

		entry := s.logger.WithFields(logrus.Fields{
			"op":      op,
			"key":     key,
			"elapsed": s.now().Sub(started).String(),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			entry.WithError(err).Warn("云存储操作失败")
			return
		}
		entry.Debug("云存储操作完成")
	}
}

// retry 按配置的次数重试幂等操作，对象不存在和上下文结束不重试
func (s *Storage) retry(ctx context.Context, op func(ctx context.Context) error) error {
	if s.cfg.Retries <= 0 {
		err := op(ctx)
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return permanent.Err
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(s.newBackOff(), uint64(s.cfg.Retries)), ctx)

	return backoff.RetryNotify(func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if IsNotFound(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		s.logger.WithError(err).WithField("wait", wait.String()).Debug("云存储操作失败，准备重试")
	})
}

// contentLength 尽量获取上传内容的长度，无法确定时返回 -1
func contentLength(content io.Reader) int64 {
	switch v := content.(type) {
	case *bytes.Buffer:
		return int64(v.Len())
	case *bytes.Reader:
		return int64(v.Len())
	case *strings.Reader:
		return int64(v.Len())
	case *os.File:
		fi, err := v.Stat()
		if err != nil || !fi.Mode().IsRegular() {
			return -1
		}
		offset, err := v.Seek(0, io.SeekCurrent)
		if err != nil {
			return -1
		}
		return fi.Size() - offset
	case interface{ Len() int }:
		return int64(v.Len())
	}
	return -1
}

// escapeKey 对键的每一段进行百分号编码，保留 "/"，只有字母数字与 "-_.~" 原样输出
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = strings.ReplaceAll(url.QueryEscape(segment), "+", "%20")
	}
	return strings.Join(segments, "/")
}
