package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// HookType 定义钩子类型
type HookType int

const (
	// HookShutdown 关闭钩子
	HookShutdown HookType = iota
)

// shutdownTimeout 执行关闭钩子的最长时间
const shutdownTimeout = 10 * time.Second

// Hook 表示应用钩子函数
type Hook struct {
	Name     string                          // 钩子名称
	Function func(ctx context.Context) error // 钩子函数
	Type     HookType                        // 钩子类型
	Priority int                             // 优先级，数值越小越先执行
}

// HooksManager 钩子管理器
type HooksManager struct {
	hooks map[HookType][]Hook
	mu    sync.RWMutex
}

// NewHooksManager 创建新的钩子管理器
func NewHooksManager() *HooksManager {
	return &HooksManager{
		hooks: make(map[HookType][]Hook),
	}
}

// Register 注册钩子，同优先级按注册顺序执行
func (hm *HooksManager) Register(hook Hook) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	hooks := append(hm.hooks[hook.Type], hook)
	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].Priority < hooks[j].Priority
	})
	hm.hooks[hook.Type] = hooks
}

// OnShutdown 注册关闭钩子
func (hm *HooksManager) OnShutdown(name string, priority int, fn func(ctx context.Context) error) {
	hm.Register(Hook{Name: name, Function: fn, Type: HookShutdown, Priority: priority})
}

// Execute 执行指定类型的所有钩子，单个钩子失败不影响后续钩子
func (hm *HooksManager) Execute(ctx context.Context, hookType HookType) error {
	hm.mu.RLock()
	hooks := append([]Hook(nil), hm.hooks[hookType]...)
	hm.mu.RUnlock()

	var errs []error
	for _, hook := range hooks {
		if err := hook.Function(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", hook.Name, err))
		}
	}
	return errors.Join(errs...)
}
