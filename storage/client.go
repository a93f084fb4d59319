package storage

import (
	"context"
	"io"
	"time"
)

// Client 云存储厂商SDK需要提供的能力
//
// 签名算法和REST接口都由SDK实现，这里只描述适配器需要调用的部分。
type Client interface {
	// Put 上传对象，size 为 -1 表示长度未知
	Put(ctx context.Context, key string, data io.Reader, size int64, mimeType string) error

	// Stat 获取对象元数据，对象不存在时返回的错误应满足 errors.Is(err, ErrNotFound)
	Stat(ctx context.Context, key string) (*ObjectInfo, error)

	// Delete 删除对象
	Delete(ctx context.Context, key string) error

	// List 列举一页对象，marker 为空表示从头开始
	List(ctx context.Context, prefix, marker string, limit int) (*ListPage, error)

	// UploadToken 为上传策略签发上传凭证
	UploadToken(policy UploadPolicy) string

	// SignURL 为私有空间的下载地址签名，deadline 为过期时刻
	SignURL(rawURL string, deadline time.Time) string
}

// ListPage 一页列举结果
type ListPage struct {
	Items   []ObjectInfo
	Marker  string
	HasNext bool
}

// UploadPolicy 上传策略
type UploadPolicy struct {
	// Scope 目标空间，"bucket" 或 "bucket:key"
	Scope string

	// Expires 凭证有效期，从签发时刻开始计算
	Expires time.Duration

	// FsizeLimit 允许上传的最大字节数，0 表示不限制
	FsizeLimit int64

	// MimeLimit 允许的MIME类型列表，为空表示不限制
	MimeLimit []string
}

// NewUploadPolicy 创建限定到单个对象键的上传策略
func NewUploadPolicy(bucket, key string, expires time.Duration) UploadPolicy {
	scope := bucket
	if key != "" {
		scope = bucket + ":" + key
	}
	return UploadPolicy{
		Scope:   scope,
		Expires: expires,
	}
}
