package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zzliekkas/qiniustorage/cli"
	"github.com/zzliekkas/qiniustorage/storage"
)

// NewStorageCommand 创建存储管理命令
func NewStorageCommand(app *cli.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "storage",
		Aliases: []string{"store", "disk"},
		Short:   "管理七牛云存储中的文件",
		Long:    `列出、查看、上传、下载和删除七牛云存储空间中的文件，生成访问地址和缩略图地址。`,
	}

	cmd.PersistentFlags().StringP("disk", "d", "", "存储磁盘名称 (media, static)")

	cmd.AddCommand(newStorageListCommand(app))
	cmd.AddCommand(newStorageStatCommand(app))
	cmd.AddCommand(newStorageCatCommand(app))
	cmd.AddCommand(newStoragePutCommand(app))
	cmd.AddCommand(newStorageDeleteCommand(app))
	cmd.AddCommand(newStorageURLCommand(app))
	cmd.AddCommand(newStorageThumbCommand(app))

	return cmd
}

// disk 返回命令指定的存储磁盘
func disk(app *cli.App, cmd *cobra.Command) (*storage.Storage, error) {
	application, err := app.Application()
	if err != nil {
		return nil, err
	}
	m, err := application.Manager()
	if err != nil {
		return nil, err
	}

	name, _ := cmd.Flags().GetString("disk")
	if name == "" {
		return m.DefaultDisk()
	}
	return m.Disk(name)
}

// newStorageListCommand 创建存储列表命令
func newStorageListCommand(app *cli.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls [directory]",
		Aliases: []string{"list"},
		Short:   "列出目录下的子目录和文件",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := disk(app, cmd)
			if err != nil {
				return err
			}

			directory := ""
			if len(args) > 0 {
				directory = args[0]
			}
			long, _ := cmd.Flags().GetBool("long")
			human, _ := cmd.Flags().GetBool("human")

			dirs, files, err := s.ListDir(cmd.Context(), directory)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cli.Output(cmd), 0, 0, 2, ' ', 0)
			for _, dir := range dirs {
				if long {
					fmt.Fprintf(w, "%s/\t-\t-\n", dir)
				} else {
					fmt.Fprintf(w, "%s/\n", dir)
				}
			}
			for _, file := range files {
				if !long {
					fmt.Fprintln(w, file)
					continue
				}

				info, err := s.Stat(cmd.Context(), joinName(directory, file))
				if err != nil {
					return err
				}
				size := fmt.Sprintf("%d", info.Size)
				if human {
					size = humanReadableSize(info.Size)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", file, size, info.ModTime().Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolP("long", "l", false, "显示文件大小和修改时间")
	cmd.Flags().BoolP("human", "H", true, "以人类可读格式显示文件大小")

	return cmd
}

// newStorageStatCommand 创建文件信息命令
func newStorageStatCommand(app *cli.App) *cobra.Command {
	return &cobra.Command{
		Use:     "stat <name>",
		Aliases: []string{"info"},
		Short:   "显示文件元数据",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := disk(app, cmd)
			if err != nil {
				return err
			}

			info, err := s.Stat(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cli.Output(cmd), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "键:\t%s\n", info.Key)
			fmt.Fprintf(w, "大小:\t%s (%d 字节)\n", humanReadableSize(info.Size), info.Size)
			fmt.Fprintf(w, "类型:\t%s\n", info.MimeType)
			fmt.Fprintf(w, "哈希:\t%s\n", info.Hash)
			fmt.Fprintf(w, "修改时间:\t%s\n", info.ModTime().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(w, "地址:\t%s\n", s.URL(args[0]))
			return w.Flush()
		},
	}
}

// newStorageCatCommand 创建文件内容输出命令
func newStorageCatCommand(app *cli.App) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <name>",
		Short: "输出文件内容",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := disk(app, cmd)
			if err != nil {
				return err
			}

			f := s.Open(cmd.Context(), args[0], storage.ModeRead)
			defer f.Close()

			_, err = io.Copy(cli.Output(cmd), f)
			return err
		},
	}
}

// newStoragePutCommand 创建上传命令
func newStoragePutCommand(app *cli.App) *cobra.Command {
	return &cobra.Command{
		Use:     "put <local-file> [name]",
		Aliases: []string{"upload"},
		Short:   "上传本地文件",
		Long:    `上传本地文件到存储空间，未指定名称时使用本地文件名。`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := disk(app, cmd)
			if err != nil {
				return err
			}

			name := filepath.Base(args[0])
			if len(args) == 2 {
				name = args[1]
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}

			// Save 负责关闭文件
			key, err := s.Save(cmd.Context(), name, f)
			if err != nil {
				return err
			}

			cli.PrintSuccess("已上传: %s", key)
			fmt.Fprintln(cli.Output(cmd), s.URL(s.RelativeName(key)))
			return nil
		},
	}
}

// newStorageDeleteCommand 创建删除命令
func newStorageDeleteCommand(app *cli.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <name>...",
		Aliases: []string{"delete", "del"},
		Short:   "删除文件",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := disk(app, cmd)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")

			var errs []error
			for _, name := range args {
				if err := s.Delete(cmd.Context(), name); err != nil {
					if force && storage.IsNotFound(err) {
						cli.PrintWarning("文件不存在: %s", name)
						continue
					}
					cli.PrintError("删除失败: %s: %v", name, err)
					errs = append(errs, err)
					continue
				}
				cli.PrintSuccess("已删除: %s", name)
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().BoolP("force", "f", false, "忽略不存在的文件")

	return cmd
}

// newStorageURLCommand 创建访问地址命令
func newStorageURLCommand(app *cli.App) *cobra.Command {
	return &cobra.Command{
		Use:   "url <name>",
		Short: "生成文件的访问地址",
		Long:  `生成文件的访问地址，私有空间会附带有效期和下载签名。`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := disk(app, cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cli.Output(cmd), s.URL(args[0]))
			return nil
		},
	}
}

// newStorageThumbCommand 创建缩略图地址命令
func newStorageThumbCommand(app *cli.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thumb <name>",
		Short: "生成图片的缩略图地址",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := disk(app, cmd)
			if err != nil {
				return err
			}

			opts := storage.ThumbnailOptions{}
			opts.Width, _ = cmd.Flags().GetInt("width")
			opts.Height, _ = cmd.Flags().GetInt("height")
			opts.Quality, _ = cmd.Flags().GetInt("quality")
			opts.Format, _ = cmd.Flags().GetString("format")
			opts.Mode, _ = cmd.Flags().GetInt("mode")

			url, ok := s.ThumbnailURL(args[0], opts)
			if !ok {
				return fmt.Errorf("不是图片文件: %s", args[0])
			}
			fmt.Fprintln(cli.Output(cmd), url)
			return nil
		},
	}

	cmd.Flags().IntP("width", "w", 0, "缩略图宽度")
	cmd.Flags().IntP("height", "t", 0, "缩略图高度")
	cmd.Flags().IntP("quality", "q", 0, "图片质量 (1-100)")
	cmd.Flags().StringP("format", "f", "", "输出格式 (jpg, png, webp)")
	cmd.Flags().IntP("mode", "m", 0, "imageView2 模式 (0-5)，默认 2")

	return cmd
}

// joinName 拼接目录和文件名
func joinName(directory, name string) string {
	if directory == "" {
		return name
	}
	return directory + "/" + name
}

// humanReadableSize 格式化文件大小为人类可读格式
func humanReadableSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
