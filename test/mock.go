// Package test 提供测试支持工具和辅助函数
package test

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Mock 是单元测试中的模拟对象基类
type Mock struct {
	Calls map[string][][]interface{}
	mu    sync.Mutex
}

// NewMock 创建一个新的模拟对象
func NewMock() *Mock {
	return &Mock{
		Calls: make(map[string][][]interface{}),
	}
}

// RecordCall 记录对模拟对象的方法调用
func (m *Mock) RecordCall(methodName string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls[methodName] = append(m.Calls[methodName], args)
}

// GetCalls 获取对特定方法的所有调用
func (m *Mock) GetCalls(methodName string) [][]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([][]interface{}, len(m.Calls[methodName]))
	copy(calls, m.Calls[methodName])
	return calls
}

// CallCount 获取特定方法被调用的次数
func (m *Mock) CallCount(methodName string) int {
	return len(m.GetCalls(methodName))
}

// WasCalled 判断特定方法是否被调用过
func (m *Mock) WasCalled(methodName string) bool {
	return m.CallCount(methodName) > 0
}

// Reset 清空调用记录
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = make(map[string][][]interface{})
}

// MockAssertions 提供对模拟对象的断言
type MockAssertions struct {
	T    *testing.T
	Mock *Mock
}

// NewMockAssertions 创建新的模拟断言助手
func NewMockAssertions(t *testing.T, mock *Mock) *MockAssertions {
	return &MockAssertions{
		T:    t,
		Mock: mock,
	}
}

// AssertCalled 断言方法已被调用，提供参数时要求至少一次调用的参数完全匹配
func (a *MockAssertions) AssertCalled(methodName string, args ...interface{}) bool {
	calls := a.Mock.GetCalls(methodName)

	if len(calls) == 0 {
		assert.Fail(a.T, fmt.Sprintf("预期方法 '%s' 被调用，但它没有被调用", methodName))
		return false
	}

	if len(args) == 0 {
		return true
	}

	for _, call := range calls {
		if len(call) != len(args) {
			continue
		}

		match := true
		for i, arg := range args {
			if !reflect.DeepEqual(arg, call[i]) {
				match = false
				break
			}
		}

		if match {
			return true
		}
	}

	assert.Fail(a.T, fmt.Sprintf("预期方法 '%s' 使用参数 %v 被调用，但未找到匹配的调用", methodName, args))
	return false
}

// AssertNotCalled 断言方法未被调用
func (a *MockAssertions) AssertNotCalled(methodName string) bool {
	calls := a.Mock.GetCalls(methodName)

	if len(calls) > 0 {
		assert.Fail(a.T, fmt.Sprintf("预期方法 '%s' 不被调用，但它被调用了 %d 次", methodName, len(calls)))
		return false
	}

	return true
}

// AssertCalledTimes 断言方法被调用特定次数
func (a *MockAssertions) AssertCalledTimes(methodName string, times int) bool {
	callCount := a.Mock.CallCount(methodName)

	if callCount != times {
		assert.Fail(a.T, fmt.Sprintf("预期方法 '%s' 被调用 %d 次，但它被调用了 %d 次", methodName, times, callCount))
		return false
	}

	return true
}
