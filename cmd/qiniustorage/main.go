package main

import (
	"os"

	"github.com/zzliekkas/qiniustorage/cli"
	"github.com/zzliekkas/qiniustorage/cli/commands"
)

func main() {
	app := cli.NewQiniuStorageCLI()
	commands.RegisterCommands(app)

	if err := app.Run(os.Args[1:]); err != nil {
		cli.PrintError("%v", err)
		os.Exit(1)
	}
}
