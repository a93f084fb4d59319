// Package test 提供测试支持工具和辅助函数
package test

import (
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zzliekkas/qiniustorage/db"
	"github.com/zzliekkas/qiniustorage/storage"
)

// Helper 测试助手结构
type Helper struct {
	T *testing.T
}

// NewHelper 创建一个新的测试助手实例
func NewHelper(t *testing.T) *Helper {
	return &Helper{T: t}
}

// Config 返回测试用的存储配置，域名为空时需要调用方填写
func (h *Helper) Config() storage.Config {
	cfg := storage.DefaultConfig()
	cfg.AccessKey = "test-access-key"
	cfg.SecretKey = "test-secret-key"
	cfg.Bucket = "test-bucket"
	cfg.Domain = "cdn.example.com"
	cfg.Timeout = 5 * time.Second
	return cfg
}

// Logger 返回丢弃输出的日志记录器
func (h *Helper) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// NewStorage 创建使用内存客户端的存储适配器
//
// 空间域名指向一个由 client 提供内容的 httptest 服务器，测试结束后自动关闭。
func (h *Helper) NewStorage(client *FakeClient, configure func(*storage.Config), opts ...storage.Option) *storage.Storage {
	server := httptest.NewServer(client)
	h.T.Cleanup(server.Close)

	cfg := h.Config()
	cfg.Domain = server.URL
	if configure != nil {
		configure(&cfg)
	}

	options := []storage.Option{
		storage.WithLogger(h.Logger()),
		storage.WithHTTPClient(server.Client()),
		storage.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	}
	s, err := storage.New(cfg, client, append(options, opts...)...)
	require.NoError(h.T, err, "无法创建存储适配器")
	return s
}

// TempFile 创建临时文件并返回其路径，测试完成后会自动清理
func (h *Helper) TempFile(pattern string, content []byte) string {
	tmpFile, err := os.CreateTemp("", pattern)
	require.NoError(h.T, err, "无法创建临时文件")

	defer tmpFile.Close()

	_, err = tmpFile.Write(content)
	require.NoError(h.T, err, "无法写入临时文件内容")

	h.T.Cleanup(func() {
		_ = os.Remove(tmpFile.Name())
	})

	return tmpFile.Name()
}

// SetupTestDB 创建迁移完成的内存 SQLite 数据库，测试完成后自动关闭
func (h *Helper) SetupTestDB() *gorm.DB {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(h.T.Name())
	gdb, err := db.Open(db.Config{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(h.T, err, "无法连接测试数据库")
	require.NoError(h.T, db.Migrate(gdb), "无法迁移测试数据库")

	h.T.Cleanup(func() {
		h.CleanupTestDB(gdb)
	})
	return gdb
}

// CleanupTestDB 清理测试数据库
func (h *Helper) CleanupTestDB(gdb *gorm.DB) {
	sqlDB, err := gdb.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

// AssertContainsAll 断言一个字符串包含所有指定的子字符串
func (h *Helper) AssertContainsAll(str string, substrings ...string) {
	for _, substring := range substrings {
		require.True(h.T, strings.Contains(str, substring),
			"期望字符串包含 %q，但不包含", substring)
	}
}
