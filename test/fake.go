package test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zzliekkas/qiniustorage/storage"
)

// ErrTransient 模拟的临时故障
var ErrTransient = errors.New("test: 临时故障")

// FakeObject 内存中的对象
type FakeObject struct {
	Data     []byte
	MimeType string
	PutTime  int64
}

// FakeClient 基于内存的云存储客户端，实现 storage.Client
//
// 所有调用都会记录到内嵌的 Mock 中，方法名与 storage.Client 一致。
type FakeClient struct {
	*Mock

	// PageSize 列举时每页返回的对象数，0 表示使用调用方传入的 limit
	PageSize int

	// Now 上传时间的时钟
	Now func() time.Time

	mu       sync.Mutex
	objects  map[string]FakeObject
	errors   map[string]error
	failures map[string]int
}

// NewFakeClient 创建内存云存储客户端
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Mock:     NewMock(),
		Now:      time.Now,
		objects:  make(map[string]FakeObject),
		errors:   make(map[string]error),
		failures: make(map[string]int),
	}
}

// AddObject 直接写入一个对象，不记录调用
func (c *FakeClient) AddObject(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.objects[key] = FakeObject{
		Data:     data,
		MimeType: storage.MimeTypeByName(key),
		PutTime:  c.Now().UnixNano() / 100,
	}
}

// SetObject 写入完整的对象信息
func (c *FakeClient) SetObject(key string, obj FakeObject) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.objects[key] = obj
}

// Object 读取对象内容
func (c *FakeClient) Object(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	obj, ok := c.objects[key]
	return obj.Data, ok
}

// Keys 返回所有对象键，按字母序排列
func (c *FakeClient) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sortedKeys()
}

// FailWith 让指定方法始终返回 err，err 为 nil 时恢复正常
func (c *FakeClient) FailWith(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		delete(c.errors, method)
		return
	}
	c.errors[method] = err
}

// FailTimes 让指定方法的接下来 n 次调用返回 ErrTransient
func (c *FakeClient) FailTimes(method string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failures[method] = n
}

func (c *FakeClient) injected(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err, ok := c.errors[method]; ok {
		return err
	}
	if c.failures[method] > 0 {
		c.failures[method]--
		return ErrTransient
	}
	return nil
}

// Put 实现 storage.Client
func (c *FakeClient) Put(ctx context.Context, key string, data io.Reader, size int64, mimeType string) error {
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	c.RecordCall("Put", key, string(content), size, mimeType)

	if err := c.injected("Put"); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.SetObject(key, FakeObject{
		Data:     content,
		MimeType: mimeType,
		PutTime:  c.Now().UnixNano() / 100,
	})
	return nil
}

// Stat 实现 storage.Client
func (c *FakeClient) Stat(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	c.RecordCall("Stat", key)

	if err := c.injected("Stat"); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	obj, ok := c.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: no such file or directory", storage.ErrNotFound)
	}
	return &storage.ObjectInfo{
		Key:      key,
		Size:     int64(len(obj.Data)),
		PutTime:  obj.PutTime,
		MimeType: obj.MimeType,
		Hash:     strconv.Itoa(len(obj.Data)),
	}, nil
}

// Delete 实现 storage.Client
func (c *FakeClient) Delete(ctx context.Context, key string) error {
	c.RecordCall("Delete", key)

	if err := c.injected("Delete"); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.objects[key]; !ok {
		return fmt.Errorf("%w: no such file or directory", storage.ErrNotFound)
	}
	delete(c.objects, key)
	return nil
}

// List 实现 storage.Client，marker 为下一页第一个对象的序号
func (c *FakeClient) List(ctx context.Context, prefix, marker string, limit int) (*storage.ListPage, error) {
	c.RecordCall("List", prefix, marker)

	if err := c.injected("List"); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []string
	for _, key := range c.sortedKeys() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	start := 0
	if marker != "" {
		n, err := strconv.Atoi(marker)
		if err != nil {
			return nil, fmt.Errorf("无效的 marker %q", marker)
		}
		start = n
	}

	size := limit
	if c.PageSize > 0 {
		size = c.PageSize
	}
	end := start + size
	if end > len(keys) {
		end = len(keys)
	}

	page := &storage.ListPage{Items: []storage.ObjectInfo{}}
	for _, key := range keys[start:end] {
		obj := c.objects[key]
		page.Items = append(page.Items, storage.ObjectInfo{
			Key:      key,
			Size:     int64(len(obj.Data)),
			PutTime:  obj.PutTime,
			MimeType: obj.MimeType,
		})
	}
	if end < len(keys) {
		page.Marker = strconv.Itoa(end)
		page.HasNext = true
	}
	return page, nil
}

// UploadToken 实现 storage.Client，返回 "fake:<scope>:<seconds>"
func (c *FakeClient) UploadToken(policy storage.UploadPolicy) string {
	c.RecordCall("UploadToken", policy)
	return fmt.Sprintf("fake:%s:%d", policy.Scope, int64(policy.Expires/time.Second))
}

// SignURL 实现 storage.Client，附加 e 和 token 参数
func (c *FakeClient) SignURL(rawURL string, deadline time.Time) string {
	c.RecordCall("SignURL", rawURL, deadline.Unix())

	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	signed := rawURL + sep + "e=" + strconv.FormatInt(deadline.Unix(), 10)
	return signed + "&token=fake-sign"
}

// ServeHTTP 以对象键为路径提供对象内容，用于模拟空间域名
func (c *FakeClient) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.RecordCall("GET", r.URL.Path)

	if err := c.injected("GET"); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	key, err := url.PathUnescape(strings.TrimPrefix(r.URL.EscapedPath(), "/"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, ok := c.Object(key)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", storage.MimeTypeByName(key))
	_, _ = w.Write(data)
}

func (c *FakeClient) sortedKeys() []string {
	keys := make([]string, 0, len(c.objects))
	for key := range c.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
