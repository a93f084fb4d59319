package storage

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnbound 文件字段没有绑定存储适配器
var ErrUnbound = errors.New("storage: 文件字段未绑定存储")

// FieldFile 数据库文件字段
//
// 数据库中只保存对象键，URL、打开等操作通过绑定的存储适配器完成。
// 从数据库读出的值需要调用 Bind 重新绑定适配器。
type FieldFile struct {
	Name    string
	storage *Storage
}

// NewFieldFile 创建绑定到适配器的文件字段
func NewFieldFile(s *Storage, name string) FieldFile {
	return FieldFile{Name: name, storage: s}
}

// Bind 绑定存储适配器
func (f *FieldFile) Bind(s *Storage) {
	f.storage = s
}

// Storage 返回绑定的存储适配器，未绑定时为 nil
func (f FieldFile) Storage() *Storage {
	return f.storage
}

// IsZero 字段是否为空
func (f FieldFile) IsZero() bool {
	return f.Name == ""
}

// URL 返回文件访问地址
func (f FieldFile) URL() (string, error) {
	if f.storage == nil {
		return "", ErrUnbound
	}
	return f.storage.URL(f.Name), nil
}

// Open 打开文件
func (f FieldFile) Open(ctx context.Context, mode OpenMode) (*File, error) {
	if f.storage == nil {
		return nil, ErrUnbound
	}
	return f.storage.Open(ctx, f.Name, mode), nil
}

// String 返回对象键
func (f FieldFile) String() string {
	return f.Name
}

// Scan 实现sql.Scanner接口
func (f *FieldFile) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		f.Name = ""
	case string:
		f.Name = v
	case []byte:
		f.Name = string(v)
	default:
		return fmt.Errorf("storage: 无法将 %T 转换为文件字段", value)
	}
	return nil
}

// Value 实现driver.Valuer接口
func (f FieldFile) Value() (driver.Value, error) {
	return f.Name, nil
}

// GormDataType 数据库列类型
func (FieldFile) GormDataType() string {
	return "string"
}

// MarshalJSON 序列化为对象键字符串
func (f FieldFile) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Name)
}

// UnmarshalJSON 从对象键字符串反序列化
func (f *FieldFile) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &f.Name)
}
