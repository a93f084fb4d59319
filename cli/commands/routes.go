package commands

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zzliekkas/qiniustorage/cli"
)

// NewRoutesCommand 创建路由列表命令
func NewRoutesCommand(app *cli.App) *cobra.Command {
	return &cobra.Command{
		Use:     "routes",
		Aliases: []string{"route"},
		Short:   "显示所有注册的路由",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.Application()
			if err != nil {
				return err
			}
			srv, err := application.Server()
			if err != nil {
				return err
			}

			routes := srv.Engine().Routes()
			sort.Slice(routes, func(i, j int) bool {
				if routes[i].Path == routes[j].Path {
					return routes[i].Method < routes[j].Method
				}
				return routes[i].Path < routes[j].Path
			})

			w := tabwriter.NewWriter(cli.Output(cmd), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "方法\t路径\t处理器")
			for _, route := range routes {
				fmt.Fprintf(w, "%s\t%s\t%s\n", route.Method, route.Path, route.Handler)
			}
			return w.Flush()
		},
	}
}
