package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// 常用磁盘名称
const (
	DiskMedia  = "media"
	DiskStatic = "static"
)

// Manager 存储管理器
//
// 按名称管理多个共享同一空间、根路径不同的存储适配器，例如用户上传的 media 和静态资源 static。
type Manager struct {
	// 已注册的磁盘
	disks map[string]*Storage

	// 默认磁盘名称
	defaultDisk string

	// 互斥锁保证并发安全
	mu sync.RWMutex
}

// NewManager 创建新的存储管理器
func NewManager() *Manager {
	return &Manager{
		disks: make(map[string]*Storage),
	}
}

// NewManagerWithLocations 基于同一个适配器按根路径注册多个磁盘，第一个名称作为默认磁盘
func NewManagerWithLocations(base *Storage, locations map[string]string) *Manager {
	m := NewManager()

	names := make([]string, 0, len(locations))
	for name := range locations {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m.RegisterDisk(name, base.At(locations[name]))
	}
	if _, ok := locations[DiskMedia]; ok {
		m.defaultDisk = DiskMedia
	}
	return m
}

// Disk 获取指定名称的磁盘
func (m *Manager) Disk(name string) (*Storage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.disks[name]; ok {
		return s, nil
	}

	return nil, fmt.Errorf("storage: 磁盘 '%s' 未找到", name)
}

// DefaultDisk 获取默认磁盘
func (m *Manager) DefaultDisk() (*Storage, error) {
	m.mu.RLock()
	name := m.defaultDisk
	m.mu.RUnlock()

	if name == "" {
		return nil, fmt.Errorf("storage: 未设置默认磁盘")
	}
	return m.Disk(name)
}

// SetDefaultDisk 设置默认磁盘
func (m *Manager) SetDefaultDisk(name string) error {
	if _, err := m.Disk(name); err != nil {
		return err
	}

	m.mu.Lock()
	m.defaultDisk = name
	m.mu.Unlock()

	return nil
}

// RegisterDisk 注册磁盘，第一个注册的磁盘成为默认磁盘
func (m *Manager) RegisterDisk(name string, s *Storage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.disks[name] = s
	if m.defaultDisk == "" {
		m.defaultDisk = name
	}
}

// UnregisterDisk 注销磁盘
func (m *Manager) UnregisterDisk(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.disks, name)

	if m.defaultDisk == name {
		m.defaultDisk = ""
		names := make([]string, 0, len(m.disks))
		for diskName := range m.disks {
			names = append(names, diskName)
		}
		if len(names) > 0 {
			sort.Strings(names)
			m.defaultDisk = names[0]
		}
	}
}

// GetDiskNames 获取所有已注册的磁盘名称，按字母序排列
func (m *Manager) GetDiskNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.disks))
	for name := range m.disks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasDisk 检查指定名称的磁盘是否存在
func (m *Manager) HasDisk(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.disks[name]
	return exists
}

// GetDefaultDiskName 获取默认磁盘名称
func (m *Manager) GetDefaultDiskName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.defaultDisk
}

// 以下方法是对默认磁盘的操作代理

// Open 在默认磁盘上打开文件
func (m *Manager) Open(ctx context.Context, name string, mode OpenMode) (*File, error) {
	s, err := m.DefaultDisk()
	if err != nil {
		return nil, err
	}
	return s.Open(ctx, name, mode), nil
}

// Save 保存文件到默认磁盘
func (m *Manager) Save(ctx context.Context, name string, content io.Reader) (string, error) {
	s, err := m.DefaultDisk()
	if err != nil {
		return "", err
	}
	return s.Save(ctx, name, content)
}

// Exists 检查文件在默认磁盘上是否存在
func (m *Manager) Exists(ctx context.Context, name string) (bool, error) {
	s, err := m.DefaultDisk()
	if err != nil {
		return false, err
	}
	return s.Exists(ctx, name), nil
}

// Delete 从默认磁盘删除文件
func (m *Manager) Delete(ctx context.Context, name string) error {
	s, err := m.DefaultDisk()
	if err != nil {
		return err
	}
	return s.Delete(ctx, name)
}

// URL 获取默认磁盘上文件的访问地址
func (m *Manager) URL(name string) (string, error) {
	s, err := m.DefaultDisk()
	if err != nil {
		return "", err
	}
	return s.URL(name), nil
}
