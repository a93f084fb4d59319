package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/zzliekkas/qiniustorage/cli"
	"github.com/zzliekkas/qiniustorage/db"
)

// NewDBCommand 创建数据库管理命令
func NewDBCommand(app *cli.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "db",
		Aliases: []string{"database"},
		Short:   "管理上传记录数据库",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "创建或更新上传记录表",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.Application()
			if err != nil {
				return err
			}
			// 打开连接时已执行迁移
			err = application.Container().Invoke(func(gdb *gorm.DB) error {
				return db.Migrate(gdb)
			})
			if err != nil {
				return err
			}
			cli.PrintSuccess("数据库迁移完成")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "status",
		Aliases: []string{"ping"},
		Short:   "检查数据库连接",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.Application()
			if err != nil {
				return err
			}
			return application.Container().Invoke(func(cfg db.Config, gdb *gorm.DB) error {
				if err := db.Ping(cmd.Context(), gdb); err != nil {
					return err
				}
				cli.PrintSuccess("数据库连接正常 (%s)", cfg.Driver)
				return nil
			})
		},
	})

	return cmd
}

// NewUploadsCommand 创建上传记录命令
func NewUploadsCommand(app *cli.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "列出最近完成的上传记录",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.Application()
			if err != nil {
				return err
			}
			store, err := application.RecordStore()
			if err != nil {
				return err
			}
			s, err := application.Storage()
			if err != nil {
				return err
			}

			limit, _ := cmd.Flags().GetInt("limit")
			uploads, err := store.RecentUploads(cmd.Context(), limit, s)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cli.Output(cmd), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\t键\t上传时间\t地址")
			for _, u := range uploads {
				url, _ := u.File.URL()
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.File.Name, u.CreatedAt.Format("2006-01-02 15:04:05"), url)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "显示的记录数量")

	return cmd
}
