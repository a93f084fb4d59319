package upload

import (
	"context"
	"fmt"
	"reflect"

	"github.com/sirupsen/logrus"

	"github.com/zzliekkas/qiniustorage/storage"
)

// Record 待保存的记录，通常是指向模型结构体的指针
type Record interface{}

// FieldSetter 将文件字段写入记录
type FieldSetter func(record Record, file storage.FieldFile) error

// Hook 保存前后执行的钩子
type Hook func(ctx context.Context, record Record) error

// Target 上传记录的目标模型
type Target struct {
	// Name 模型名称，用于日志
	Name string

	// New 创建一条新记录
	New func() Record

	// Fields 可写入文件的字段
	Fields map[string]FieldSetter
}

// Store 记录持久化接口
type Store interface {
	// Create 保存新记录并返回主键
	Create(ctx context.Context, record Record) (interface{}, error)
}

// Completion 上传完成结果
type Completion struct {
	Key string      `json:"key"`
	PK  interface{} `json:"pk"`
}

// RecorderOption 记录器选项
type RecorderOption func(*Recorder)

// WithBeforeSave 设置保存前钩子
func WithBeforeSave(hook Hook) RecorderOption {
	return func(r *Recorder) {
		r.beforeSave = hook
	}
}

// WithAfterSave 设置保存后钩子
func WithAfterSave(hook Hook) RecorderOption {
	return func(r *Recorder) {
		r.afterSave = hook
	}
}

// WithRecorderLogger 设置日志记录器
func WithRecorderLogger(logger logrus.FieldLogger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Recorder 上传完成记录器
//
// 将客户端直传完成的对象键写入目标模型的文件字段并保存。
type Recorder struct {
	target     Target
	field      string
	setter     FieldSetter
	store      Store
	storage    *storage.Storage
	beforeSave Hook
	afterSave  Hook
	logger     logrus.FieldLogger
}

// NewRecorder 创建上传完成记录器，字段不存在时立即返回错误
func NewRecorder(target Target, field string, store Store, s *storage.Storage, opts ...RecorderOption) (*Recorder, error) {
	if target.New == nil {
		return nil, fmt.Errorf("upload: 模型 '%s' 缺少构造函数", target.Name)
	}
	if store == nil {
		return nil, fmt.Errorf("upload: 存储接口不能为空")
	}

	setter, ok := target.Fields[field]
	if !ok {
		return nil, fmt.Errorf("upload: 模型 '%s' 没有文件字段 '%s'", target.Name, field)
	}

	r := &Recorder{
		target:  target,
		field:   field,
		setter:  setter,
		store:   store,
		storage: s,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Complete 创建记录，写入文件字段并保存
//
// 任何一步失败都会记录日志并返回 *PersistenceError。
func (r *Recorder) Complete(ctx context.Context, key string) (*Completion, error) {
	record := r.target.New()
	file := storage.NewFieldFile(r.storage, key)

	if err := r.setter(record, file); err != nil {
		return nil, r.fail("field", key, err)
	}

	if r.beforeSave != nil {
		if err := r.beforeSave(ctx, record); err != nil {
			return nil, r.fail("before_save", key, err)
		}
	}

	pk, err := r.store.Create(ctx, record)
	if err != nil {
		return nil, r.fail("create", key, err)
	}

	if r.afterSave != nil {
		if err := r.afterSave(ctx, record); err != nil {
			return nil, r.fail("after_save", key, err)
		}
	}

	r.logger.WithFields(logrus.Fields{
		"model": r.target.Name,
		"field": r.field,
		"key":   key,
		"pk":    pk,
	}).Info("上传记录已保存")

	return &Completion{Key: key, PK: pk}, nil
}

func (r *Recorder) fail(stage, key string, err error) error {
	r.logger.WithFields(logrus.Fields{
		"model": r.target.Name,
		"field": r.field,
		"key":   key,
		"stage": stage,
	}).WithError(err).Error("保存上传记录失败")
	return &PersistenceError{Stage: stage, Key: key, Err: err}
}

var fieldFileType = reflect.TypeOf(storage.FieldFile{})

// ReflectTarget 通过反射收集模型中所有 storage.FieldFile 类型的字段
//
// newRecord 必须返回指向结构体的指针，字段名使用Go字段名。
func ReflectTarget(name string, newRecord func() Record) (Target, error) {
	sample := reflect.ValueOf(newRecord())
	if sample.Kind() != reflect.Ptr || sample.Elem().Kind() != reflect.Struct {
		return Target{}, fmt.Errorf("upload: 模型 '%s' 必须是结构体指针", name)
	}

	fields := make(map[string]FieldSetter)
	structType := sample.Elem().Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Type != fieldFileType || !field.IsExported() {
			continue
		}

		index := field.Index
		fields[field.Name] = func(record Record, file storage.FieldFile) error {
			value := reflect.ValueOf(record)
			if value.Kind() != reflect.Ptr || value.IsNil() || value.Elem().Type() != structType {
				return fmt.Errorf("upload: 记录类型应为 *%s，实际为 %T", structType.Name(), record)
			}
			value.Elem().FieldByIndex(index).Set(reflect.ValueOf(file))
			return nil
		}
	}

	return Target{Name: name, New: newRecord, Fields: fields}, nil
}
