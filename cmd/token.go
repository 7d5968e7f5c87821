package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token --uid N",
	Short: "Issue an API token for a user",
	Run: func(cmd *cobra.Command, args []string) {
		fs := cmd.Flags()
		configPath, _ := fs.GetString("config")
		uid, _ := fs.GetInt64("uid")
		nickname, _ := fs.GetString("name")

		if uid <= 0 {
			fmt.Println("--uid must be a positive user id")
			os.Exit(1)
		}

		a, closeApp, err := openApp(configPath)
		if err != nil {
			fmt.Printf("Failed to start: %v\n", err)
			os.Exit(1)
		}
		defer closeApp()

		token, err := a.TokenManager.Generate(uid, nickname, "")
		if err != nil {
			fmt.Printf("Failed to generate token: %v\n", err)
			closeApp()
			os.Exit(1)
		}
		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	fs := tokenCmd.Flags()
	fs.StringP("config", "c", "", "config file path")
	fs.Int64P("uid", "u", 0, "user id the token is issued for")
	fs.String("name", "", "nickname stored in the token")
}
