// Package di 封装 dig 依赖注入容器
package di

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/dig"
)

// Container 是依赖注入容器的封装
type Container struct {
	container *dig.Container
}

// New 创建一个新的DI容器
func New() *Container {
	return &Container{
		container: dig.New(),
	}
}

// Provide 向容器注册服务构造函数
func (c *Container) Provide(constructor interface{}, opts ...dig.ProvideOption) error {
	return c.container.Provide(constructor, opts...)
}

// ProvideAll 依次注册多个构造函数，遇到错误立即返回
func (c *Container) ProvideAll(constructors ...interface{}) error {
	for _, constructor := range constructors {
		if err := c.container.Provide(constructor); err != nil {
			return err
		}
	}
	return nil
}

// ProvideNamed 向容器注册命名服务
func (c *Container) ProvideNamed(constructor interface{}, name string) error {
	return c.container.Provide(constructor, dig.Name(name))
}

// ProvideValue 直接注册一个值到容器
func (c *Container) ProvideValue(value interface{}, opts ...dig.ProvideOption) error {
	valueType := reflect.TypeOf(value)
	if valueType == nil {
		return errors.New("cannot provide nil value")
	}

	constructor := reflect.MakeFunc(
		reflect.FuncOf(nil, []reflect.Type{valueType}, false),
		func(_ []reflect.Value) []reflect.Value {
			return []reflect.Value{reflect.ValueOf(value)}
		},
	).Interface()

	return c.container.Provide(constructor, opts...)
}

// Invoke 调用函数并注入其依赖
func (c *Container) Invoke(function interface{}, opts ...dig.InvokeOption) error {
	return c.container.Invoke(function, opts...)
}

// Extract 从容器中提取 target 所指向类型的实例
func (c *Container) Extract(target interface{}) error {
	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Ptr {
		return fmt.Errorf("target must be a pointer, got %T", target)
	}
	if targetValue.IsNil() {
		return errors.New("target is nil pointer")
	}

	elemType := targetValue.Elem().Type()
	fn := reflect.MakeFunc(
		reflect.FuncOf([]reflect.Type{elemType}, nil, false),
		func(args []reflect.Value) []reflect.Value {
			targetValue.Elem().Set(args[0])
			return nil
		},
	)

	return c.container.Invoke(fn.Interface())
}

// Dig 获取内部的dig容器
func (c *Container) Dig() *dig.Container {
	return c.container
}
