package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configDefault 内嵌的默认配置，首次运行时写出
var configDefault string

var rootCmd = &cobra.Command{
	Use:   "fast-note-graph-service",
	Short: "Fast Note Graph Service",
	Long:  "Notes linked by [[Title]] references, with outgoing links and backlinks kept in sync on every write.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func Execute(c string) {
	configDefault = c
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
