// Package cli 提供 qiniustorage 命令行工具的基础设施
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zzliekkas/qiniustorage/app"
	"github.com/zzliekkas/qiniustorage/config"
)

// Banner 命令行标志
const Banner = `
  ┌─┐┬┌┐┌┬┬ ┬  ┌─┐┌┬┐┌─┐┬─┐┌─┐┌─┐┌─┐
  │─┼┼││││││ │  └─┐ │ │ │├┬┘├─┤│ ┬├┤
  └─┘└┴┘└┘┴└─┘  └─┘ ┴ └─┘┴└─┴ ┴└─┘└─┘
  %s - %s
`

// Factory 根据配置创建应用
type Factory func(cfg *config.Config) (*app.Application, error)

// App 表示CLI应用程序
type App struct {
	// 应用名称
	Name string

	// 应用版本
	Version string

	// 应用描述
	Description string

	rootCmd    *cobra.Command
	configPath string
	envFile    string
	factory    Factory

	config      *config.Config
	application *app.Application
}

// NewApp 创建一个新的CLI应用程序
func NewApp(name, version, description string) *App {
	a := &App{
		Name:        name,
		Version:     version,
		Description: description,
		factory: func(cfg *config.Config) (*app.Application, error) {
			return app.New(cfg)
		},
	}

	a.rootCmd = &cobra.Command{
		Use:           a.Name,
		Short:         a.Description,
		Version:       a.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	a.rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "配置文件路径 (yaml)")
	a.rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", ".env 文件路径，不存在时忽略")

	return a
}

// NewQiniuStorageCLI 创建默认的命令行应用
func NewQiniuStorageCLI() *App {
	return NewApp("qiniustorage", app.Version, "七牛云对象存储与直传服务")
}

// SetFactory 设置应用的创建方式
func (a *App) SetFactory(factory Factory) {
	a.factory = factory
}

// SetConfig 使用已构造的配置，跳过配置文件加载
func (a *App) SetConfig(cfg *config.Config) {
	a.config = cfg
}

// AddCommand 添加一个命令到应用程序
func (a *App) AddCommand(cmd *cobra.Command) {
	a.rootCmd.AddCommand(cmd)
}

// Root 返回根命令
func (a *App) Root() *cobra.Command {
	return a.rootCmd
}

// Config 加载并返回配置
func (a *App) Config() (*config.Config, error) {
	if a.config != nil {
		return a.config, nil
	}

	opts := []config.ConfigOption{config.WithEnvFile(a.envFile)}
	if a.configPath != "" {
		dir, file := filepath.Split(a.configPath)
		ext := filepath.Ext(file)
		if dir == "" {
			dir = "."
		}
		opts = append(opts,
			config.WithConfigPath(dir),
			config.WithConfigName(strings.TrimSuffix(file, ext)),
			config.WithConfigType(strings.TrimPrefix(ext, ".")),
		)
	}

	cfg := config.NewConfig(opts...)
	if err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	a.config = cfg
	return cfg, nil
}

// Application 返回按配置创建的应用，只创建一次
func (a *App) Application() (*app.Application, error) {
	if a.application != nil {
		return a.application, nil
	}

	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	application, err := a.factory(cfg)
	if err != nil {
		return nil, err
	}
	a.application = application
	return application, nil
}

// Run 运行CLI应用程序
func (a *App) Run(args []string) error {
	// QINIUSTORAGE_BANNER=none 时不显示标志
	if os.Getenv("QINIUSTORAGE_BANNER") != "none" && len(args) == 0 {
		color.Cyan(Banner, a.Version, a.Description)
	}

	a.rootCmd.SetArgs(args)
	return a.rootCmd.Execute()
}

// PrintError 打印错误信息
func PrintError(format string, args ...interface{}) {
	fmt.Fprintln(color.Error, color.RedString("✗ "+format, args...))
}

// PrintSuccess 打印成功信息
func PrintSuccess(format string, args ...interface{}) {
	fmt.Fprintln(color.Output, color.GreenString("✓ "+format, args...))
}

// PrintInfo 打印信息
func PrintInfo(format string, args ...interface{}) {
	fmt.Fprintln(color.Output, color.CyanString("→ "+format, args...))
}

// PrintWarning 打印警告信息
func PrintWarning(format string, args ...interface{}) {
	fmt.Fprintln(color.Output, color.YellowString("⚠ "+format, args...))
}

// Output 返回命令的数据输出目标
func Output(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
