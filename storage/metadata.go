package storage

import (
	"mime"
	"path"
	"strings"
	"time"
)

// putTimeUnitsPerSecond 七牛 putTime 字段以 100 纳秒为单位
const putTimeUnitsPerSecond = 10_000_000

// ObjectInfo 云存储对象的元数据
type ObjectInfo struct {
	// Key 对象键
	Key string `json:"key"`

	// Size 文件大小（字节）
	Size int64 `json:"size"`

	// PutTime 上传时间，单位为 100 纳秒
	PutTime int64 `json:"put_time"`

	// MimeType 文件MIME类型
	MimeType string `json:"mime_type,omitempty"`

	// Hash 文件内容哈希
	Hash string `json:"hash,omitempty"`
}

// ModTimeSeconds 返回自 Unix 纪元起的秒数，即 PutTime / 10_000_000
func (o ObjectInfo) ModTimeSeconds() float64 {
	return float64(o.PutTime) / putTimeUnitsPerSecond
}

// ModTime 返回最后修改时间
func (o ObjectInfo) ModTime() time.Time {
	return time.Unix(0, o.PutTime*(int64(time.Second)/putTimeUnitsPerSecond))
}

// Name 返回不含目录的文件名
func (o ObjectInfo) Name() string {
	return path.Base(o.Key)
}

// MimeTypeByName 根据文件扩展名猜测MIME类型
func MimeTypeByName(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".json":
		return "application/json"
	case ".mp3":
		return "audio/mpeg"
	case ".mp4":
		return "video/mp4"
	}

	if ext != "" {
		if mimeType := mime.TypeByExtension(ext); mimeType != "" {
			return mimeType
		}
	}
	return "application/octet-stream"
}

// IsImage 判断文件名是否对应图片类型
func IsImage(filename string) bool {
	return strings.HasPrefix(MimeTypeByName(filename), "image/")
}
