package storage

import (
	"bytes"
	"context"
	"io"
	"os"
)

// OpenMode 文件打开模式
type OpenMode int

const (
	// ModeRead 只读
	ModeRead OpenMode = iota
	// ModeWrite 只写，关闭时上传
	ModeWrite
	// ModeReadWrite 读写
	ModeReadWrite
)

// Writable 是否允许写入
func (m OpenMode) Writable() bool {
	return m == ModeWrite || m == ModeReadWrite
}

// String 返回模式名称
func (m OpenMode) String() string {
	switch m {
	case ModeRead:
		return "r"
	case ModeWrite:
		return "w"
	case ModeReadWrite:
		return "rw"
	default:
		return "unknown"
	}
}

// File 远程文件句柄
//
// 第一次读取时下载完整内容并缓存，写入只修改本地缓冲区，
// Close 时如果有未上传的修改则整体上传一次。File 不是并发安全的。
type File struct {
	ctx     context.Context
	storage *Storage
	name    string
	mode    OpenMode

	buf    []byte
	off    int
	read   bool
	dirty  bool
	closed bool
	size   int64
	sized  bool
}

func newFile(ctx context.Context, s *Storage, name string, mode OpenMode) *File {
	if ctx == nil {
		ctx = context.Background()
	}
	return &File{
		ctx:     ctx,
		storage: s,
		name:    name,
		mode:    mode,
	}
}

// Name 返回对象键
func (f *File) Name() string {
	return f.name
}

// Mode 返回打开模式
func (f *File) Mode() OpenMode {
	return f.mode
}

// Dirty 是否存在未上传的修改
func (f *File) Dirty() bool {
	return f.dirty
}

// Read 实现io.Reader，第一次调用时下载完整内容
func (f *File) Read(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if err := f.fetch(); err != nil {
		return 0, err
	}
	if f.off >= len(f.buf) {
		return 0, io.EOF
	}
	n := copy(p, f.buf[f.off:])
	f.off += n
	return n, nil
}

// ReadAll 返回尚未读取的全部内容
func (f *File) ReadAll() ([]byte, error) {
	if f.closed {
		return nil, os.ErrClosed
	}
	if err := f.fetch(); err != nil {
		return nil, err
	}
	data := make([]byte, len(f.buf)-f.off)
	copy(data, f.buf[f.off:])
	f.off = len(f.buf)
	return data, nil
}

// Write 实现io.Writer，内容追加到缓冲区末尾
func (f *File) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if !f.mode.Writable() {
		return 0, ErrReadOnly
	}

	f.buf = append(f.buf, p...)
	f.dirty = true
	f.read = true
	return len(p), nil
}

// Close 有未上传的修改时上传整个缓冲区，然后释放缓冲区，重复调用不会再次上传
func (f *File) Close() error {
	if f.closed {
		return nil
	}

	if f.dirty {
		if _, err := f.storage.Save(f.ctx, f.name, bytes.NewReader(f.buf)); err != nil {
			return err
		}
		f.dirty = false
	}

	f.buf = nil
	f.off = 0
	f.closed = true
	return nil
}

// Size 返回远程对象大小，首次调用后缓存，不包含尚未上传的本地写入
func (f *File) Size() (int64, error) {
	if f.sized {
		return f.size, nil
	}
	size, err := f.storage.Size(f.ctx, f.name)
	if err != nil {
		return 0, err
	}
	f.size = size
	f.sized = true
	return size, nil
}

// URL 返回文件的访问地址
func (f *File) URL() string {
	return f.storage.URL(f.name)
}

// ThumbnailURL 返回缩略图地址，非图片文件返回 false
func (f *File) ThumbnailURL(opts ThumbnailOptions) (string, bool) {
	return f.storage.ThumbnailURL(f.name, opts)
}

func (f *File) fetch() error {
	if f.read {
		return nil
	}
	data, err := f.storage.ReadBytes(f.ctx, f.name)
	if err != nil {
		return err
	}
	f.buf = data
	f.off = 0
	f.read = true
	return nil
}
