package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zzliekkas/qiniustorage/cli"
	"github.com/zzliekkas/qiniustorage/config"
	"github.com/zzliekkas/qiniustorage/middleware"
	"github.com/zzliekkas/qiniustorage/server"
)

// NewTokenCommand 创建上传凭证签发命令
func NewTokenCommand(app *cli.App) *cobra.Command {
	return &cobra.Command{
		Use:   "token <filename>",
		Short: "签发直传上传凭证",
		Long:  `为文件名签发限定到单个对象键的七牛上传凭证，输出 {"token","key","url"}。`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.Application()
			if err != nil {
				return err
			}
			issuer, err := application.Issuer()
			if err != nil {
				return err
			}

			ticket, err := issuer.Issue(args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cli.Output(cmd))
			enc.SetIndent("", "  ")
			return enc.Encode(ticket)
		},
	}
}

// NewAuthTokenCommand 创建访问上传接口的 JWT 令牌命令
func NewAuthTokenCommand(app *cli.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth-token",
		Short: "签发访问上传接口的 Bearer 令牌",
		Long:  `使用 UPLOAD_JWT_SECRET 签发 HS256 令牌，用于调用启用了认证的上传接口。`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}
			secret, err := config.ResolveString(cfg, server.KeyJWTSecret, "")
			if err != nil {
				return err
			}
			if secret == "" {
				return errors.New("未配置 UPLOAD_JWT_SECRET")
			}

			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			token, err := middleware.CreateTokenWithExp(app.Name, subject, ttl, []byte(secret))
			if err != nil {
				return err
			}
			fmt.Fprintln(cli.Output(cmd), token)
			return nil
		},
	}

	cmd.Flags().StringP("subject", "s", "cli", "令牌主体")
	cmd.Flags().Duration("ttl", 24*time.Hour, "令牌有效期")

	return cmd
}
