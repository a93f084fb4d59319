package upload

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zzliekkas/qiniustorage/storage"
)

// 常见错误定义
var (
	// ErrInvalidFilename 文件名为空或超出上传根路径
	ErrInvalidFilename = errors.New("upload: 无效的文件名")

	// ErrInvalidKey 对象键不属于上传根路径
	ErrInvalidKey = errors.New("upload: 无效的对象键")

	// ErrPersistence 保存上传记录失败
	ErrPersistence = errors.New("upload: 保存上传记录失败")
)

// PersistenceError 描述一次失败的上传记录保存
type PersistenceError struct {
	// Stage 失败的阶段，如 field、before_save、create、after_save
	Stage string

	// Key 对象键
	Key string

	// Err 原始错误
	Err error
}

// Error 实现error接口
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("upload: 保存文件 '%s' 的上传记录失败（%s）: %v", e.Key, e.Stage, e.Err)
}

// Unwrap 返回原始错误
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrPersistence) 成立
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// HTTPError 表示HTTP错误
type HTTPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error 实现error接口
func (e *HTTPError) Error() string {
	return fmt.Sprintf("code=%d, message=%s", e.Code, e.Message)
}

// NewHTTPError 创建一个新的HTTP错误
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// toHTTPError 将错误映射为HTTP错误
func toHTTPError(err error) *HTTPError {
	var he *HTTPError
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, ErrInvalidFilename), errors.Is(err, ErrInvalidKey), errors.Is(err, storage.ErrInvalidName):
		return NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPersistence):
		return NewHTTPError(http.StatusInternalServerError, "保存上传记录失败")
	case errors.Is(err, storage.ErrIO):
		return NewHTTPError(http.StatusBadGateway, "云存储服务不可用")
	default:
		return NewHTTPError(http.StatusInternalServerError, "内部服务器错误")
	}
}
