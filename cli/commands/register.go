package commands

import "github.com/zzliekkas/qiniustorage/cli"

// RegisterCommands 将所有命令注册到CLI应用
func RegisterCommands(app *cli.App) {
	// 服务器命令
	app.AddCommand(NewServerCommand(app))

	// 存储命令
	app.AddCommand(NewStorageCommand(app))

	// 上传凭证命令
	app.AddCommand(NewTokenCommand(app))
	app.AddCommand(NewAuthTokenCommand(app))

	// 数据库与上传记录命令
	app.AddCommand(NewDBCommand(app))
	app.AddCommand(NewUploadsCommand(app))

	// 路由命令
	app.AddCommand(NewRoutesCommand(app))
}
