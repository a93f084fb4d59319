package db

import (
	"time"

	"gorm.io/gorm"

	"github.com/zzliekkas/qiniustorage/storage"
	"github.com/zzliekkas/qiniustorage/upload"
)

// Upload 直传完成后记录的文件
type Upload struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	File      storage.FieldFile `gorm:"size:1024;not null;index" json:"file"`
	CreatedAt time.Time         `json:"created_at"`
}

// TableName 表名
func (Upload) TableName() string {
	return "uploads"
}

// UploadTarget 上传完成记录器使用的默认目标模型
func UploadTarget() upload.Target {
	return upload.Target{
		Name: "uploads",
		New:  func() upload.Record { return &Upload{} },
		Fields: map[string]upload.FieldSetter{
			"file": func(record upload.Record, file storage.FieldFile) error {
				record.(*Upload).File = file
				return nil
			},
		},
	}
}

// Migrate 创建或更新数据表
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&Upload{})
}
