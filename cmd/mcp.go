package cmd

import (
	"context"
	"fmt"
	"os"

	internalApp "github.com/haierkeys/fast-note-graph-service/internal/app"
	"github.com/haierkeys/fast-note-graph-service/internal/mcpserver"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp --uid N",
	Short: "Serve one user's note graph to MCP clients over stdio",
	Long: `Serve one user's note graph to MCP clients over stdio.

stdout carries the protocol, so logs go to stderr and the configured log file.`,
	Run: func(cmd *cobra.Command, args []string) {
		fs := cmd.Flags()
		configPath, _ := fs.GetString("config")
		uid, _ := fs.GetInt64("uid")

		if uid <= 0 {
			fmt.Fprintln(os.Stderr, "--uid must be a positive user id")
			os.Exit(1)
		}

		a, closeApp, err := openApp(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
			os.Exit(1)
		}
		defer closeApp()

		if err := a.Dao.AutoMigrate(context.Background()); err != nil {
			a.Logger().Error("failed to migrate database", zap.Error(err))
			return
		}

		tools := mcpserver.NewTools(a.NoteService, a.GraphService, uid, a.Logger())
		s := mcpserver.NewServer(tools, internalApp.Version)

		a.Logger().Info("mcp stdio server starting", zap.Int64("uid", uid))
		if err := server.ServeStdio(s); err != nil {
			a.Logger().Error("mcp stdio server error", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	fs := mcpCmd.Flags()
	fs.StringP("config", "c", "", "config file path")
	fs.Int64P("uid", "u", 0, "owner whose graph is served")
}
