package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/zzliekkas/qiniustorage/storage"
	"github.com/zzliekkas/qiniustorage/upload"
)

// RecordStore 基于GORM的上传记录存储
type RecordStore struct {
	db *gorm.DB
}

// NewRecordStore 创建上传记录存储
func NewRecordStore(gdb *gorm.DB) *RecordStore {
	return &RecordStore{db: gdb}
}

// Create 保存新记录并返回主键，实现 upload.Store
func (s *RecordStore) Create(ctx context.Context, record upload.Record) (interface{}, error) {
	tx := s.db.WithContext(ctx).Create(record)
	if tx.Error != nil {
		return nil, tx.Error
	}

	schema := tx.Statement.Schema
	if schema == nil || schema.PrioritizedPrimaryField == nil {
		return nil, errors.New("模型没有主键")
	}

	pk, _ := schema.PrioritizedPrimaryField.ValueOf(tx.Statement.Context, tx.Statement.ReflectValue)
	return pk, nil
}

// FindUpload 按主键查找上传记录，并将文件字段绑定到存储适配器
func (s *RecordStore) FindUpload(ctx context.Context, id uint, st *storage.Storage) (*Upload, error) {
	var record Upload
	if err := s.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("上传记录 %d 不存在: %w", id, err)
		}
		return nil, err
	}
	record.File.Bind(st)
	return &record, nil
}

// RecentUploads 按创建时间倒序返回最近的上传记录
func (s *RecordStore) RecentUploads(ctx context.Context, limit int, st *storage.Storage) ([]Upload, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []Upload
	if err := s.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	for i := range records {
		records[i].File.Bind(st)
	}
	return records, nil
}
