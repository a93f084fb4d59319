package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zzliekkas/qiniustorage/cli"
	"github.com/zzliekkas/qiniustorage/server"
)

// NewServerCommand 创建服务器命令
func NewServerCommand(app *cli.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server", "start", "run"},
		Short:   "启动上传接口服务器",
		Long:    `启动HTTP服务器，提供上传凭证签发和上传完成记录接口。收到 SIGINT 或 SIGTERM 后优雅关闭。`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}

			// 命令行参数覆盖配置文件
			if cmd.Flags().Changed("host") {
				host, _ := cmd.Flags().GetString("host")
				cfg.Set(server.KeyHost, host)
			}
			if cmd.Flags().Changed("port") {
				port, _ := cmd.Flags().GetInt("port")
				cfg.Set(server.KeyPort, port)
			}
			if production, _ := cmd.Flags().GetBool("production"); production {
				cfg.Set(server.KeyMode, "release")
			}

			application, err := app.Application()
			if err != nil {
				return err
			}
			srv, err := application.Server()
			if err != nil {
				return err
			}
			cli.PrintInfo("监听: %s", srv.Addr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Serve(ctx); err != nil {
				return err
			}
			cli.PrintSuccess("服务器已关闭")
			return nil
		},
	}

	cmd.Flags().StringP("host", "H", "", "设置服务器监听的主机")
	cmd.Flags().IntP("port", "p", 8080, "设置服务器监听的端口")
	cmd.Flags().BoolP("production", "P", false, "在生产模式下运行")

	return cmd
}
