// @title manaboo 后端 API
// @version 1.0
// @description 日语语法学习与情景对话练习的后端服务。

// @BasePath /api

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCommand := &cobra.Command{
		Use:           "manaboo",
		Short:         "Japanese grammar practice backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		// 不带子命令时直接启动服务
		RunE: runServe,
	}
	rootCommand.PersistentFlags().StringVar(&configPath, "config", "configs", "config directory or yaml file")

	rootCommand.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newExportCommand(),
	)
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to execute a command: %+v\n", err)
		os.Exit(1)
	}
}
