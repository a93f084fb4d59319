package storage

import (
	"errors"
	"fmt"
)

// 常见错误定义
var (
	// ErrIO 所有由云存储返回的失败都可以通过 errors.Is(err, ErrIO) 识别
	ErrIO = errors.New("storage: 云存储操作失败")

	// ErrNotFound 对象不存在
	ErrNotFound = errors.New("storage: 文件不存在")

	// ErrReadOnly 以只读模式打开的文件不允许写入
	ErrReadOnly = errors.New("storage: 文件以只读模式打开")

	// ErrInvalidName 对象名称无效
	ErrInvalidName = errors.New("storage: 无效的文件名")
)

// IOError 描述一次失败的云存储调用
type IOError struct {
	// Op 操作名称，如 save、delete、stat、read、list
	Op string

	// Key 规范化后的对象键
	Key string

	// Err 云存储返回的原始错误
	Err error
}

// Error 实现error接口
func (e *IOError) Error() string {
	return fmt.Sprintf("storage: %s 文件 '%s' 失败，错误信息: %v", e.Op, e.Key, e.Err)
}

// Unwrap 返回云存储的原始错误
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrIO) 成立
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// IsNotFound 判断错误是否表示对象不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
